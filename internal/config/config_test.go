package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "trade-journal/internal/errors"
)

func TestLoad_CreatesTemplateAndAppliesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, statErr, "template should be written on first load")

	assert.Equal(t, 0.01, cfg.Analytics.FStep)
	assert.Equal(t, 0.3, cfg.Analytics.MAERatioThreshold)
	assert.Equal(t, 2.0, cfg.Analytics.MFERMultiplier)
	assert.Equal(t, 999.0, cfg.Analytics.Saturation)
	assert.Equal(t, filepath.Join(dir, "journal.db"), cfg.Store.DBPath)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "journal", cfg.Notifications.SubjectPrefix)
	assert.Equal(t, dir, cfg.Dir)
}

func TestLoad_ReadsFileValues(t *testing.T) {
	dir := t.TempDir()
	content := `
[analytics]
f_step = 0.05
mae_ratio_threshold = 0.25
parallel = true
workers = 4

[server]
listen_addr = "0.0.0.0:9000"
request_timeout = "5s"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Analytics.FStep)
	assert.Equal(t, 0.25, cfg.Analytics.MAERatioThreshold)
	assert.Equal(t, 2.0, cfg.Analytics.MFERMultiplier, "unset keys keep defaults")
	assert.True(t, cfg.Analytics.Parallel)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)

	engine := cfg.EngineConfig()
	assert.Equal(t, 0.05, engine.FStep)
	assert.Equal(t, 0.25, engine.Excursion.MAERatioThreshold)
	assert.Equal(t, 4, engine.Workers)
	assert.True(t, engine.Parallel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JOURNAL_DB_PATH", "/tmp/override.db")
	t.Setenv("JOURNAL_LISTEN_ADDR", ":7070")
	t.Setenv("JOURNAL_NATS_URL", "nats://broker:4222")
	t.Setenv("JOURNAL_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", cfg.Store.DBPath)
	assert.Equal(t, ":7070", cfg.Server.ListenAddr)
	assert.Equal(t, "nats://broker:4222", cfg.Notifications.NATSURL)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, "debug", cfg.LogConfig().Level)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[analytics]\nf_step = 0.9\n"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfigInvalid))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero f step", func(c *Config) { c.Analytics.FStep = 0 }, true},
		{"f step too large", func(c *Config) { c.Analytics.FStep = 0.6 }, true},
		{"f step at bound", func(c *Config) { c.Analytics.FStep = 0.5 }, false},
		{"negative mae threshold", func(c *Config) { c.Analytics.MAERatioThreshold = -0.1 }, true},
		{"negative mfe multiplier", func(c *Config) { c.Analytics.MFERMultiplier = -1 }, true},
		{"saturation of one", func(c *Config) { c.Analytics.Saturation = 1 }, true},
		{"negative workers", func(c *Config) { c.Analytics.Workers = -2 }, true},
		{"empty db path", func(c *Config) { c.Store.DBPath = " " }, true},
		{"nats enabled without url", func(c *Config) {
			c.Notifications.Enabled = true
			c.Notifications.NATSURL = ""
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, loadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("JOURNAL_TEST_DOTENV=from-file\n"), 0644))
	t.Setenv("JOURNAL_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("JOURNAL_TEST_DOTENV"))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("JOURNAL_TEST_DOTENV"))
}
