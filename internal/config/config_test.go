package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/engine-dashboard/internal/config"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	for _, v := range []string{"PORT", "APP_NAME", "ENV", "LOG_LEVEL", "API_BASE_URL", "API_TIMEOUT",
		"CYCLE_BATCH_CONCURRENCY", "TOKEN_STORE", "TOKEN_STORE_DIR", "REDIS_ADDR", "REDIS_KEY_PREFIX", "TOKEN_STORE_TIMEOUT"} {
		t.Setenv(v, "")
	}

	c, err := config.Parse()
	require.NoError(t, err)

	require.Equal(t, ":8090", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:5000/api", c.GetAPIBaseURL())
	require.Equal(t, 15*time.Second, c.GetAPITimeout())
	require.Equal(t, 4, c.GetCycleBatchConcurrency())
	require.Equal(t, config.TokenStoreFile, c.GetTokenStore())
	require.NotEmpty(t, c.GetTokenStoreDir())
	require.Equal(t, 3*time.Second, c.GetTokenStoreTimeout())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("API_BASE_URL", "https://engines.example.com/api/")
	t.Setenv("API_TIMEOUT", "2s")
	t.Setenv("CYCLE_BATCH_CONCURRENCY", "0")
	t.Setenv("TOKEN_STORE", "redis")
	t.Setenv("TOKEN_STORE_DIR", "/tmp/tokens")
	t.Setenv("TOKEN_STORE_TIMEOUT", "500ms")

	c, err := config.Parse()
	require.NoError(t, err)

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "https://engines.example.com/api", c.GetAPIBaseURL())
	require.Equal(t, 2*time.Second, c.GetAPITimeout())
	require.Equal(t, 1, c.GetCycleBatchConcurrency())
	require.Equal(t, config.TokenStoreRedis, c.GetTokenStore())
	require.Equal(t, "/tmp/tokens", c.GetTokenStoreDir())
	require.Equal(t, 500*time.Millisecond, c.GetTokenStoreTimeout())
}

func TestParseRejectsBadDuration(t *testing.T) {
	t.Setenv("API_TIMEOUT", "soon")

	_, err := config.Parse()
	require.Error(t, err)
}
