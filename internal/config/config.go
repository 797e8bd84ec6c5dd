// Package config defines the top-level configuration for the bondvault
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/lockboxlabs/bondvault/internal/fee"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by BONDD_* environment variables.
type Config struct {
	Bonds    BondsConfig    `toml:"bonds"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Archive  ArchiveConfig  `toml:"archive"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// BondsConfig holds the immutable economic parameters of the bond engines.
// They are fixed at deployment; changing them requires a restart.
type BondsConfig struct {
	// MinMaturity is the minimum lock window. Issuance rejects any maturity
	// that does not exceed now + MinMaturity.
	MinMaturity duration `toml:"min_maturity"`
	// ProtocolFeePpm is the redemption fee rate in parts per million
	// (5000 = 0.5%).
	ProtocolFeePpm uint32 `toml:"protocol_fee_ppm"`
	// EscrowAccount holds collateral between issuance and redemption.
	EscrowAccount string `toml:"escrow_account"`
	// FeeSinkAccount receives collected protocol fees.
	FeeSinkAccount string `toml:"fee_sink_account"`
	// LockTTL bounds how long a per-bond lock may be held by a single call.
	LockTTL duration `toml:"lock_ttl"`
}

// FeeRate returns the configured protocol fee as a fee.Rate.
func (b BondsConfig) FeeRate() fee.Rate {
	return fee.Rate(b.ProtocolFeePpm)
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the archiver.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig controls the audit-log archiver.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
}

// APIKey maps a bearer token to a resolved caller identity. Caller
// authentication is deliberately this thin: the engines only ever see the
// resolved account and privilege flag.
type APIKey struct {
	Key        string `toml:"key"`
	Account    string `toml:"account"`
	Privileged bool   `toml:"privileged"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled         bool     `toml:"enabled"`
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	APIKeys         []APIKey `toml:"api_keys"`
	RateLimitPerMin int      `toml:"rate_limit_per_min"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "720h", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "720h" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Bonds: BondsConfig{
			MinMaturity:    duration{30 * 24 * time.Hour},
			ProtocolFeePpm: 5_000, // 0.5%
			EscrowAccount:  "escrow:bonds",
			FeeSinkAccount: "treasury:fees",
			LockTTL:        duration{10 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "bondvault",
			User:          "bondvault",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "bondvault-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			Interval:      duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8080,
			CORSOrigins:     []string{"http://localhost:3000"},
			RateLimitPerMin: 600,
		},
		Notify: NotifyConfig{
			Events: []string{"bond_created", "bond_redeemed", "bond_unlocked", "error"},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"archive": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, archive, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Bonds
	if c.Bonds.MinMaturity.Duration <= 0 {
		errs = append(errs, "bonds: min_maturity must be > 0")
	}
	if !c.Bonds.FeeRate().Valid() {
		errs = append(errs, fmt.Sprintf("bonds: protocol_fee_ppm must be 0-%d, got %d", fee.Scale, c.Bonds.ProtocolFeePpm))
	}
	if c.Bonds.EscrowAccount == "" {
		errs = append(errs, "bonds: escrow_account must not be empty")
	}
	if c.Bonds.FeeSinkAccount == "" {
		errs = append(errs, "bonds: fee_sink_account must not be empty")
	}
	if c.Bonds.EscrowAccount == c.Bonds.FeeSinkAccount {
		errs = append(errs, "bonds: escrow_account and fee_sink_account must differ")
	}
	if c.Bonds.LockTTL.Duration <= 0 {
		errs = append(errs, "bonds: lock_ttl must be > 0")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Archive / S3
	if c.Archive.Enabled || c.Mode == "archive" {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archiving is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archiving is enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
		if c.Archive.Interval.Duration <= 0 {
			errs = append(errs, "archive: interval must be > 0")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimitPerMin < 0 {
			errs = append(errs, "server: rate_limit_per_min must be >= 0")
		}
		seen := make(map[string]bool, len(c.Server.APIKeys))
		for i, k := range c.Server.APIKeys {
			if k.Key == "" {
				errs = append(errs, fmt.Sprintf("server: api_keys[%d]: key must not be empty", i))
			}
			if k.Account == "" {
				errs = append(errs, fmt.Sprintf("server: api_keys[%d]: account must not be empty", i))
			}
			if seen[k.Key] {
				errs = append(errs, fmt.Sprintf("server: api_keys[%d]: duplicate key", i))
			}
			seen[k.Key] = true
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
