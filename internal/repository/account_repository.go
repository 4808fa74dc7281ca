package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oyasudev/oyasify/internal/models"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) DB() *sql.DB {
	return r.db
}

const accountColumns = `id, email, nickname, password_hash, display_name, COALESCE(avatar_url, ''), COALESCE(banner_url, ''), COALESCE(bio, ''), COALESCE(badges, '[]'), theme, plan, expires_at, wallet, created_at, updated_at`

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	badges, err := json.Marshal(account.Profile.Badges)
	if err != nil {
		return fmt.Errorf("encode badges: %w", err)
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	const query = `
INSERT INTO accounts (id, email, nickname, nickname_lower, password_hash, display_name, avatar_url, banner_url, bio, badges, theme, plan, expires_at, wallet, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		account.ID,
		strings.ToLower(account.Email),
		account.Nickname,
		strings.ToLower(account.Nickname),
		account.PasswordHash,
		account.Profile.DisplayName,
		account.Profile.AvatarURL,
		account.Profile.BannerURL,
		account.Profile.Bio,
		string(badges),
		account.Profile.Theme,
		string(account.Access.Plan),
		nullableMillis(account.Access.ExpiresAt),
		account.WalletBalance,
		now.UnixMilli(),
		now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, strings.ToLower(email))
}

func (r *AccountRepository) GetByNickname(ctx context.Context, nickname string) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE nickname_lower = ?`, strings.ToLower(nickname))
}

func (r *AccountRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	if err := r.loadCredits(ctx, account); err != nil {
		return nil, err
	}
	if err := r.loadCoupons(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Update writes the account row back in full. Credits and coupons have their
// own guarded mutations below and are not touched here.
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	badges, err := json.Marshal(account.Profile.Badges)
	if err != nil {
		return fmt.Errorf("encode badges: %w", err)
	}
	now := time.Now().UTC()
	account.UpdatedAt = now

	const query = `
UPDATE accounts
SET display_name = ?, avatar_url = ?, banner_url = ?, bio = ?, badges = ?, theme = ?, plan = ?, expires_at = ?, wallet = ?, updated_at = ?
WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query,
		account.Profile.DisplayName,
		account.Profile.AvatarURL,
		account.Profile.BannerURL,
		account.Profile.Bio,
		string(badges),
		account.Profile.Theme,
		string(account.Access.Plan),
		nullableMillis(account.Access.ExpiresAt),
		account.WalletBalance,
		now.UnixMilli(),
		account.ID,
	); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// AddCredits increments the per-generator balance, creating the row on first
// purchase.
func (r *AccountRepository) AddCredits(ctx context.Context, accountID, generatorID string, delta int) error {
	const update = `
UPDATE account_credits SET credits = credits + ?
WHERE account_id = ? AND generator_id = ?`
	res, err := r.db.ExecContext(ctx, update, delta, accountID, generatorID)
	if err != nil {
		return fmt.Errorf("add credits: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credits rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	const insert = `
INSERT INTO account_credits (account_id, generator_id, credits)
VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, insert, accountID, generatorID, delta); err != nil {
		return fmt.Errorf("insert credits: %w", err)
	}
	return nil
}

// ConsumeCredit decrements a balance by one. The guard keeps the balance from
// ever going below zero; the false return means there was nothing to consume.
func (r *AccountRepository) ConsumeCredit(ctx context.Context, accountID, generatorID string) (bool, error) {
	const query = `
UPDATE account_credits SET credits = credits - 1
WHERE account_id = ? AND generator_id = ? AND credits >= 1`
	res, err := r.db.ExecContext(ctx, query, accountID, generatorID)
	if err != nil {
		return false, fmt.Errorf("consume credit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *AccountRepository) AddToWallet(ctx context.Context, accountID string, amount float64) error {
	const query = `UPDATE accounts SET wallet = wallet + ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, amount, time.Now().UTC().UnixMilli(), accountID); err != nil {
		return fmt.Errorf("add to wallet: %w", err)
	}
	return nil
}

// RecordCoupon appends a code to the redeemed set. The primary key makes the
// set insert-only per account.
func (r *AccountRepository) RecordCoupon(ctx context.Context, accountID, code string) error {
	const query = `
INSERT INTO account_coupons (account_id, code, created_at)
VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, accountID, code, time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("record coupon: %w", err)
	}
	return nil
}

func (r *AccountRepository) loadCredits(ctx context.Context, account *models.Account) error {
	const query = `SELECT generator_id, credits FROM account_credits WHERE account_id = ?`
	rows, err := r.db.QueryContext(ctx, query, account.ID)
	if err != nil {
		return fmt.Errorf("load credits: %w", err)
	}
	defer rows.Close()

	account.Credits = make(map[string]int)
	for rows.Next() {
		var generatorID string
		var credits int
		if err := rows.Scan(&generatorID, &credits); err != nil {
			return fmt.Errorf("scan credits: %w", err)
		}
		account.Credits[generatorID] = credits
	}
	return rows.Err()
}

func (r *AccountRepository) loadCoupons(ctx context.Context, account *models.Account) error {
	const query = `SELECT code FROM account_coupons WHERE account_id = ?`
	rows, err := r.db.QueryContext(ctx, query, account.ID)
	if err != nil {
		return fmt.Errorf("load coupons: %w", err)
	}
	defer rows.Close()

	account.CouponsUsed = nil
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return fmt.Errorf("scan coupon: %w", err)
		}
		account.CouponsUsed = append(account.CouponsUsed, code)
	}
	return rows.Err()
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var (
		a         models.Account
		badges    string
		plan      string
		expiresAt sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&a.ID,
		&a.Email,
		&a.Nickname,
		&a.PasswordHash,
		&a.Profile.DisplayName,
		&a.Profile.AvatarURL,
		&a.Profile.BannerURL,
		&a.Profile.Bio,
		&badges,
		&a.Profile.Theme,
		&plan,
		&expiresAt,
		&a.WalletBalance,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(badges), &a.Profile.Badges); err != nil {
		return nil, fmt.Errorf("decode badges: %w", err)
	}
	a.Access.Plan = models.PlanID(plan)
	if expiresAt.Valid {
		t := time.UnixMilli(expiresAt.Int64).UTC()
		a.Access.ExpiresAt = &t
	}
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	a.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &a, nil
}

func nullableMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
