package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.DSN, "@tcp(localhost:3306)/journeys")
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 24*time.Hour, cfg.ShareCodeTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoadConfig_Postgres(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=root password= dbname=journeys sslmode=disable", cfg.Database.DSN)
}

func TestLoadConfig_DSNOverride(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file::memory:")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "file::memory:", cfg.Database.DSN)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown driver", key: "DB_DRIVER", value: "oracle"},
		{name: "non numeric poll interval", key: "POLL_INTERVAL_SECONDS", value: "soon"},
		{name: "zero poll interval", key: "POLL_INTERVAL_SECONDS", value: "0"},
		{name: "negative share ttl", key: "SHARE_CODE_TTL_HOURS", value: "-1"},
		{name: "bad redis flag", key: "REDIS_ENABLED", value: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
