package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "full"
log_level = "debug"

[bonds]
min_maturity = "720h"
protocol_fee_ppm = 10000

[server]
port = 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "full", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 720*time.Hour, cfg.Bonds.MinMaturity.Duration)
	assert.Equal(t, uint32(10_000), cfg.Bonds.ProtocolFeePpm)
	assert.Equal(t, 9090, cfg.Server.Port)

	// Untouched sections keep their defaults.
	assert.Equal(t, "escrow:bonds", cfg.Bonds.EscrowAccount)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[redis]
addr = "redis.internal:6379"
`)

	t.Setenv("BONDD_REDIS_ADDR", "override:6380")
	t.Setenv("BONDD_BONDS_PROTOCOL_FEE_PPM", "2500")
	t.Setenv("BONDD_POSTGRES_PASSWORD", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "override:6380", cfg.Redis.Addr)
	assert.Equal(t, uint32(2_500), cfg.Bonds.ProtocolFeePpm)
	assert.Equal(t, "s3cret", cfg.Postgres.Password)
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateRejectsFeeOverScale(t *testing.T) {
	cfg := Defaults()
	cfg.Bonds.ProtocolFeePpm = 1_000_001

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "protocol_fee_ppm")
}

func TestValidateRejectsSharedEscrowAndSink(t *testing.T) {
	cfg := Defaults()
	cfg.Bonds.FeeSinkAccount = cfg.Bonds.EscrowAccount

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestValidateRejectsDuplicateAPIKeys(t *testing.T) {
	cfg := Defaults()
	cfg.Server.APIKeys = []APIKey{
		{Key: "k1", Account: "alice"},
		{Key: "k1", Account: "bob"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	cfg.Bonds.EscrowAccount = ""
	cfg.Server.Port = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "escrow_account")
	assert.Contains(t, err.Error(), "port")
}
