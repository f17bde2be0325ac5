package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  allowed_origins:
    - http://localhost:4000
storage:
  database_path: reconcile_test.db
reconciliation:
  percent_tolerance: 7.5
  amount_tolerance: 0.5
  auto_resolve_exact_matches: true
  currency_symbols: ["฿", ","]
observability:
  logging:
    level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:4000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "reconcile_test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 7.5, cfg.Reconciliation.PercentTolerance)
	assert.Equal(t, 0.5, cfg.Reconciliation.AmountTolerance)
	assert.True(t, cfg.Reconciliation.AutoResolveExactMatches)
	assert.Equal(t, []string{"฿", ","}, cfg.Reconciliation.CurrencySymbols)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: only.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "only.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 5.0, cfg.Reconciliation.PercentTolerance)
	assert.Equal(t, 2, cfg.Reconciliation.NameSimilarityThreshold)
	assert.Equal(t, "2006-01-02", cfg.Reconciliation.DateFormat)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("RECONCILE_TEST_DB", "expanded.db")

	path := writeConfig(t, `
storage:
  database_path: ${RECONCILE_TEST_DB}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RECONCILE_DB_PATH", "env.db")
	t.Setenv("RECONCILE_PORT", "9191")
	t.Setenv("RECONCILE_PERCENT_TOLERANCE", "10")
	t.Setenv("RECONCILE_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg := LoadFromEnv()

	assert.Equal(t, "env.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Reconciliation.PercentTolerance)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	os.Unsetenv("RECONCILE_DB_PATH")
	os.Unsetenv("RECONCILE_PORT")

	cfg := LoadFromEnv()

	assert.Equal(t, "reconcile.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadOrEnvWithPath_Fallback(t *testing.T) {
	t.Setenv("RECONCILE_DB_PATH", "fallback.db")

	cfg := LoadOrEnvWithPath("nonexistent.yaml")
	require.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}
