package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BONDD_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BONDD_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Bonds ──
	setDuration(&cfg.Bonds.MinMaturity, "BONDD_BONDS_MIN_MATURITY")
	setUint32(&cfg.Bonds.ProtocolFeePpm, "BONDD_BONDS_PROTOCOL_FEE_PPM")
	setStr(&cfg.Bonds.EscrowAccount, "BONDD_BONDS_ESCROW_ACCOUNT")
	setStr(&cfg.Bonds.FeeSinkAccount, "BONDD_BONDS_FEE_SINK_ACCOUNT")
	setDuration(&cfg.Bonds.LockTTL, "BONDD_BONDS_LOCK_TTL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "BONDD_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "BONDD_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "BONDD_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "BONDD_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "BONDD_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "BONDD_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "BONDD_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "BONDD_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "BONDD_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "BONDD_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "BONDD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BONDD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BONDD_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BONDD_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BONDD_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BONDD_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "BONDD_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BONDD_S3_REGION")
	setStr(&cfg.S3.Bucket, "BONDD_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BONDD_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BONDD_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "BONDD_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "BONDD_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "BONDD_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "BONDD_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "BONDD_ARCHIVE_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "BONDD_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "BONDD_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "BONDD_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimitPerMin, "BONDD_SERVER_RATE_LIMIT_PER_MIN")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BONDD_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BONDD_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BONDD_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BONDD_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BONDD_MODE")
	setStr(&cfg.LogLevel, "BONDD_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint32(dst *uint32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			*dst = uint32(n)
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
