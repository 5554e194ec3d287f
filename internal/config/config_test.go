package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_NAME", "staff-match")
	t.Setenv("APP_ENV", "test")
	t.Setenv("HTTP_PORT", "8080")
	for _, k := range []string{"REDIS_HOST", "DB_HOST", "DB_NAME", "DB_SSL_MODE", "MATCH_CACHE_TTL", "MATCH_ASSISTED_CACHE_TTL", "MATCH_CACHE_TIMEOUT", "MATCH_FETCH_TIMEOUT", "MATCH_SCORE_WORKERS", "MATCH_POOL_CAP"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Matching.CacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.Matching.AssistedCacheTTL)
	assert.Equal(t, 300*time.Millisecond, cfg.Matching.CacheTimeout)
	assert.Equal(t, 8, cfg.Matching.ScoreWorkers)
	assert.Equal(t, 100, cfg.Matching.PoolCap)
	assert.Equal(t, "disable", cfg.Database.DBSSLMode)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Database.Enabled())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("APP_NAME", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("HTTP_PORT", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, errMissingRequiredEnv)
	assert.Contains(t, err.Error(), "HTTP_PORT")
}

func TestLoad_DurationsAcceptSecondsAndGoSyntax(t *testing.T) {
	setRequired(t)
	t.Setenv("MATCH_CACHE_TTL", "120")
	t.Setenv("MATCH_FETCH_TIMEOUT", "750ms")
	t.Setenv("REDIS_HOST", "cache")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Matching.CacheTTL)
	assert.Equal(t, 750*time.Millisecond, cfg.Matching.FetchTimeout)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
}

func TestLoad_InvalidNumber(t *testing.T) {
	setRequired(t)
	t.Setenv("MATCH_SCORE_WORKERS", "many")

	_, err := Load()
	assert.ErrorIs(t, err, errInvalidEnv)
}
