package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialog-app/dialog/internal/config"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := config.DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "dialog", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, config.DefaultDirectoryCacheTTL, cfg.Redis.DirectoryCacheTTL)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromPath_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  port: 9090
mongodb:
  uri: mongodb://mongo:27017/?replicaSet=rs0
  database: dialog_staging
rate_limit:
  send_limit: 5
  window: 30s
log:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "dialog_staging", cfg.MongoDB.Database)
	assert.Equal(t, 5, cfg.RateLimit.SendLimit)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.True(t, cfg.IsDevelopment())

	// untouched sections keep their defaults
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadFromPath_MissingExplicitFile(t *testing.T) {
	_, err := config.LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DIALOG_SERVER_PORT", "8181")
	t.Setenv("DIALOG_MONGODB_URI", "mongodb://db:27017/?replicaSet=rs0")
	t.Setenv("DIALOG_AUTH_LEEWAY", "1m")
	t.Setenv("DIALOG_RATE_LIMIT_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "mongodb://db:27017/?replicaSet=rs0", cfg.MongoDB.URI)
	assert.Equal(t, time.Minute, cfg.Auth.Leeway)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }},
		{"missing mongo uri", func(c *config.Config) { c.MongoDB.URI = "" }},
		{"missing mongo database", func(c *config.Config) { c.MongoDB.Database = "" }},
		{"missing redis addr", func(c *config.Config) { c.Redis.Addr = "" }},
		{"missing jwks url", func(c *config.Config) { c.Auth.JWKSURL = "" }},
		{"bad log level", func(c *config.Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *config.Config) { c.Log.Format = "xml" }},
		{"bad send limit", func(c *config.Config) { c.RateLimit.SendLimit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, config.ErrConfigInvalid)
		})
	}
}

func TestValidate_DisabledRateLimitSkipsChecks(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.SendLimit = 0

	require.NoError(t, cfg.Validate())
}
