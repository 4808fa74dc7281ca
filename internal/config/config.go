package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the core services and the
// supporting infrastructure.
type Config struct {
	StoreDriver string
	SQLitePath  string
	MySQLDSN    string

	AllowedEmailDomain string
	ReservedNickname   string
	OwnerWalletSeed    float64

	CouponCode       string
	CouponDays       int
	PlanDurationDays int
	SweepInterval    time.Duration

	GeminiAPIKey   string
	GeminiBaseURL  string
	GeminiModel    string
	RequestTimeout time.Duration

	AdminListenAddr string
	AdminUsername   string
	AdminPassword   string

	NotifyBotToken string
	NotifyChatID   int64

	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string
	S3UsePathStyle  bool
	S3Prefix        string
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
		SQLitePath:         getEnv("SQLITE_PATH", "oyasify.db"),
		MySQLDSN:           os.Getenv("MYSQL_DSN"),
		AllowedEmailDomain: normalizeDomain(getEnv("ALLOWED_EMAIL_DOMAIN", "gmail.com")),
		ReservedNickname:   strings.ToLower(getEnv("RESERVED_NICKNAME", "oyasu")),
		OwnerWalletSeed:    getFloat("OWNER_WALLET_SEED", 396.83),
		CouponCode:         strings.ToUpper(getEnv("COUPON_CODE", "GRATIS7")),
		CouponDays:         getInt("COUPON_DAYS", 7),
		PlanDurationDays:   getInt("PLAN_DURATION_DAYS", 30),
		SweepInterval:      time.Second * time.Duration(getInt("SWEEP_INTERVAL_SECONDS", 60)),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		RequestTimeout:     time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 60)),
		AdminListenAddr:    getEnv("ADMIN_LISTEN_ADDR", ":8080"),
		AdminUsername:      getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", "change-me"),
		NotifyBotToken:     os.Getenv("NOTIFY_BOT_TOKEN"),
		NotifyChatID:       getInt64("NOTIFY_CHAT_ID", 0),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3Region:           os.Getenv("S3_REGION"),
		S3AccessKey:        os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("S3_SECRET_KEY"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3PublicBaseURL:    os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:     getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:           getEnv("S3_PREFIX", "profiles"),
	}

	var missing []string
	switch cfg.StoreDriver {
	case "sqlite":
		if cfg.SQLitePath == "" {
			missing = append(missing, "SQLITE_PATH")
		}
	case "mysql":
		if cfg.MySQLDSN == "" {
			missing = append(missing, "MYSQL_DSN")
		}
	default:
		return Config{}, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

// S3Configured reports whether the asset uploader can be constructed. Profile
// uploads degrade to seeded placeholders when it is not.
func (c Config) S3Configured() bool {
	return c.S3Region != "" && c.S3AccessKey != "" && c.S3SecretKey != "" && c.S3Bucket != "" && c.S3PublicBaseURL != ""
}

// NotifyConfigured reports whether the owner Telegram notifier is enabled.
func (c Config) NotifyConfigured() bool {
	return c.NotifyBotToken != "" && c.NotifyChatID != 0
}

func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, "@")
	return domain
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// Running without an env file is fine; everything has a default except
	// the MySQL DSN, which is validated above.
	return nil
}
