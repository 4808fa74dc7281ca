package database

// Timestamps are Unix milliseconds written by the application so the DDL
// stays portable between SQLite and MySQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
    id VARCHAR(36) PRIMARY KEY,
    email VARCHAR(255) NOT NULL UNIQUE,
    nickname VARCHAR(255) NOT NULL,
    nickname_lower VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    display_name VARCHAR(255) NOT NULL,
    avatar_url TEXT,
    banner_url TEXT,
    bio TEXT,
    badges TEXT,
    theme VARCHAR(64) NOT NULL,
    plan VARCHAR(16) NOT NULL,
    expires_at BIGINT,
    wallet DOUBLE NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS account_credits (
    account_id VARCHAR(36) NOT NULL,
    generator_id VARCHAR(64) NOT NULL,
    credits INT NOT NULL DEFAULT 0,
    PRIMARY KEY (account_id, generator_id)
)`,

	`CREATE TABLE IF NOT EXISTS account_coupons (
    account_id VARCHAR(36) NOT NULL,
    code VARCHAR(64) NOT NULL,
    created_at BIGINT NOT NULL,
    PRIMARY KEY (account_id, code)
)`,

	`CREATE TABLE IF NOT EXISTS payment_requests (
    id VARCHAR(36) PRIMARY KEY,
    account_id VARCHAR(36) NOT NULL,
    email VARCHAR(255) NOT NULL,
    nickname VARCHAR(255) NOT NULL,
    kind VARCHAR(16) NOT NULL,
    item_id VARCHAR(64) NOT NULL,
    pix_code TEXT,
    status VARCHAR(16) NOT NULL,
    created_at BIGINT NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS product_requests (
    id VARCHAR(36) PRIMARY KEY,
    account_id VARCHAR(36) NOT NULL,
    nickname VARCHAR(255) NOT NULL,
    request_text TEXT NOT NULL,
    status VARCHAR(16) NOT NULL,
    links TEXT,
    created_at BIGINT NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS session (
    id INT PRIMARY KEY,
    account_id VARCHAR(36)
)`,
}
