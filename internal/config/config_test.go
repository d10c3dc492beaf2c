package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3001", cfg.Addr())
	assert.Equal(t, "yourday.db", cfg.DatabaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.AuditInterval)
	assert.Equal(t, 24*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, "http://localhost:3001/api", cfg.APIBaseURL)
	assert.Error(t, cfg.RequireSecret())
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_SECRET", " s3cret ")
	t.Setenv("AUDIT_INTERVAL", "0")
	t.Setenv("API_BASE_URL", "http://api.local/api/")
	t.Setenv("API_TOKEN", "tok")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.NoError(t, cfg.RequireSecret())
	assert.Zero(t, cfg.AuditInterval)
	assert.Equal(t, "http://api.local/api", cfg.APIBaseURL)
	assert.Equal(t, "tok", cfg.APIToken)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "yourday.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\nreminder_window: 2h\nlog_format: console\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, "console", cfg.LogFormat)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsNegativeAudit(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AUDIT_INTERVAL", "-1m")

	_, err := Load("")
	assert.Error(t, err)
}
