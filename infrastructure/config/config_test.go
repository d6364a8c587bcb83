package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "profiles", cfg.ProfilesTable)
	assert.Equal(t, "v4", cfg.SchemaVersion)
	assert.Equal(t, 0.2, cfg.ViewportMargin)
	assert.Equal(t, 150*time.Millisecond, cfg.EnrichDebounce)
	assert.Equal(t, 200, cfg.EnrichBatchLimit)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("SCHEMA_VERSION", "v5")
	t.Setenv("VIEWPORT_MARGIN", "0.5")
	t.Setenv("ENRICH_DEBOUNCE", "300ms")
	t.Setenv("ENRICH_BATCH_LIMIT", "50")
	t.Setenv("ENABLE_CORS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, "v5", cfg.SchemaVersion)
	assert.Equal(t, 0.5, cfg.ViewportMargin)
	assert.Equal(t, 300*time.Millisecond, cfg.EnrichDebounce)
	assert.Equal(t, 50, cfg.EnrichBatchLimit)
	assert.False(t, cfg.EnableCORS)
}

func TestLoadConfig_YAMLOverlayThenEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"server_address: \":7070\"\nschema_version: v9\ncache_path: /tmp/overlay.db\n",
	), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SCHEMA_VERSION", "v10")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ServerAddress, "file overrides the default")
	assert.Equal(t, "/tmp/overlay.db", cfg.CachePath)
	assert.Equal(t, "v10", cfg.SchemaVersion, "environment overrides the file")
}

func TestLoadConfig_MissingOverlayFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig_Validate_ProductionRequiresSupabase(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL")

	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	_, err = LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_ANON_KEY")

	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestConfig_Validate_NegativeMarginRejected(t *testing.T) {
	t.Setenv("VIEWPORT_MARGIN", "-0.1")

	_, err := LoadConfig()
	assert.Error(t, err)
}
