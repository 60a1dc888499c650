package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	require.Equal(t, "0.0.0.0", cfg.Host)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 1000, cfg.ResultsRetention)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.False(t, cfg.UsesPostgres())
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("RESULTS_RETENTION", "50")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MONGODB_URI", "postgres://localhost/uptimer")

	cfg := Load()

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 50, cfg.ResultsRetention)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.True(t, cfg.UsesPostgres())
	require.Equal(t, "0.0.0.0:9090", cfg.Addr())
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"USERNAME", "PASSWORD", "SECRET_KEY", "HOST", "PORT", "CORS_ORIGINS",
		"SESSION_MAX_AGE", "MONGODB_URI", "MONGODB_DB", "RESULTS_RETENTION",
		"LOG_LEVEL", "SCHEDULER_WORKERS",
	} {
		require.NoError(t, os.Unsetenv(key))
	}
}
