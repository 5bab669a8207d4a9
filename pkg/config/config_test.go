package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)

	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxIdleTime)

	assert.Equal(t, "Research Project", cfg.Import.DefaultInitiativeType)
	assert.Equal(t, "noemail.local", cfg.Import.PlaceholderDomain)
	assert.Equal(t, int64(5*1024*1024), cfg.Import.MaxUploadSizeBytes)
	assert.Equal(t, 10, cfg.Import.ErrorDisplayLimit)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_CONN_MAX_LIFETIME", "45m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "5m")
	t.Setenv("IMPORT_ERROR_DISPLAY_LIMIT", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxIdleTime)
	assert.Equal(t, 25, cfg.Import.ErrorDisplayLimit)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Hour, parseDuration("not-a-duration", time.Hour))
	assert.Equal(t, 2*time.Minute, parseDuration("2m", time.Hour))
}
