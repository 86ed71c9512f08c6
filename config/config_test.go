package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_GroupedJSONAndDefaults(t *testing.T) {
	path := writeJSON(t, `{
		"app": {"AppPort": "9090", "JWTSecret": "file-secret"},
		"database": {"Driver": "postgres", "DBName": "blog"},
		"site": {"Name": "My Blog", "ImageDomains": ["images.unsplash.com"]}
	}`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, "file-secret", cfg.JWTSecret)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "blog", cfg.DBName)
	assert.Equal(t, "My Blog", cfg.SiteName)
	assert.Equal(t, []string{"images.unsplash.com"}, cfg.ImageDomains)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.False(t, cfg.MailEnabled())
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	path := writeJSON(t, `{"app": {"JWTSecret": "file-secret"}}`)
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CACHE_TTL_SECONDS", "42")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "news@example.com")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWTSecret)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 42, cfg.CacheTTLSeconds)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.MailEnabled())
}

func TestLoadFrom_Errors(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorIs(t, err, ErrMissingJWTSecret)
	})

	t.Run("bad integer", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "x")
		t.Setenv("REDIS_PORT", "six")
		_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "x")
		_, err := LoadFrom(writeJSON(t, `{"app": `))
		assert.Error(t, err)
	})
}
