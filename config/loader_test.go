package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.HTTPPort)
	assert.Equal(t, 120*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 5*time.Second, cfg.Browser.ActionTimeout)
	assert.Equal(t, "memory", cfg.Intervention.Store)
	assert.False(t, cfg.Browser.Headless)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  http_port: 9000
browser:
  headless: true
  viewport_width: 1920
  viewport_height: 1080
intervention:
  store: redis
  default_timeout: 10m
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.ViewportWidth)
	assert.Equal(t, "redis", cfg.Intervention.Store)
	assert.Equal(t, 10*time.Minute, cfg.Intervention.DefaultTimeout)
	// untouched fields keep defaults
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BROWSERPILOT_SERVER_HTTP_PORT", "8088")
	t.Setenv("BROWSERPILOT_BROWSER_HEADLESS", "true")
	t.Setenv("BROWSERPILOT_BROWSER_NAVIGATION_TIMEOUT", "90s")
	t.Setenv("BROWSERPILOT_AUTH_API_KEYS", "key-a, key-b")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.HTTPPort)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 90*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.Auth.APIKeys)
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.HTTPPort)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.HTTPPort = 0 }},
		{"zero viewport", func(c *Config) { c.Browser.ViewportWidth = 0 }},
		{"zero action timeout", func(c *Config) { c.Browser.ActionTimeout = 0 }},
		{"unknown store", func(c *Config) { c.Intervention.Store = "etcd" }},
		{"unknown driver", func(c *Config) {
			c.Intervention.Store = "database"
			c.Database.Driver = "oracle"
		}},
		{"bad live quality", func(c *Config) { c.Live.Quality = 150 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Driver: "postgres", Host: "db", Port: 5432,
		User: "pilot", Password: "secret", Name: "interventions", SSLMode: "disable",
	}
	assert.Contains(t, d.DSN(), "host=db")
	assert.Contains(t, d.DSN(), "dbname=interventions")

	d = DatabaseConfig{Driver: "sqlite", Path: ":memory:"}
	assert.Equal(t, ":memory:", d.DSN())

	d = DatabaseConfig{Driver: "oracle"}
	assert.Empty(t, d.DSN())
}
