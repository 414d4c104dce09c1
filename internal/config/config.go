// Package config provides configuration management for the trade journal.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"trade-journal/internal/analytics"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Analytics     AnalyticsConfig    `mapstructure:"analytics"`
	Store         StoreConfig        `mapstructure:"store"`
	Server        ServerConfig       `mapstructure:"server"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-"`
}

// AnalyticsConfig tunes the statistics engine.
type AnalyticsConfig struct {
	FStep             float64 `mapstructure:"f_step"`
	MAERatioThreshold float64 `mapstructure:"mae_ratio_threshold"`
	MFERMultiplier    float64 `mapstructure:"mfe_r_multiplier"`
	Saturation        float64 `mapstructure:"saturation"`
	Parallel          bool    `mapstructure:"parallel"`
	Workers           int     `mapstructure:"workers"` // 0 = one per CPU
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	ListenAddr     string        `mapstructure:"listen_addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// NotificationConfig holds journal event publishing configuration.
type NotificationConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	NATSURL       string `mapstructure:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// LoggingConfig mirrors logging.LogConfig in file form.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/trade-journal"
	}
	return filepath.Join(home, ".config", "trade-journal")
}

// ConfigPath returns the config.toml path inside configDir.
func ConfigPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is created from the template and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{Dir: configDir}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration rooted at configDir.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	v := viper.New()
	setDefaults(v, configDir)
	cfg := &Config{Dir: configDir}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper, configDir string) {
	def := analytics.DefaultConfig()
	v.SetDefault("analytics.f_step", def.FStep)
	v.SetDefault("analytics.mae_ratio_threshold", def.Excursion.MAERatioThreshold)
	v.SetDefault("analytics.mfe_r_multiplier", def.Excursion.MFERMultiplier)
	v.SetDefault("analytics.saturation", def.Saturation)
	v.SetDefault("analytics.parallel", false)
	v.SetDefault("analytics.workers", 0)

	v.SetDefault("store.db_path", filepath.Join(configDir, "journal.db"))

	v.SetDefault("server.listen_addr", "127.0.0.1:8080")
	v.SetDefault("server.request_timeout", 30*time.Second)

	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.nats_url", "nats://127.0.0.1:4222")
	v.SetDefault("notifications.subject_prefix", "journal")

	logDef := logging.DefaultLogConfig()
	v.SetDefault("logging.level", logDef.Level)
	v.SetDefault("logging.console", logDef.Console)
	v.SetDefault("logging.file", logDef.File)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "journal.log"))
	v.SetDefault("logging.max_size", logDef.MaxSize)
	v.SetDefault("logging.max_backups", logDef.MaxBackups)
	v.SetDefault("logging.max_age", logDef.MaxAge)
}

// loadDotEnv loads a .env file when present. Variables already set in the
// environment win.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JOURNAL_DB_PATH"); v != "" {
		cfg.Store.DBPath = v
	}
	if v := os.Getenv("JOURNAL_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("JOURNAL_NATS_URL"); v != "" {
		cfg.Notifications.NATSURL = v
		cfg.Notifications.Enabled = true
	}
	if v := os.Getenv("JOURNAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	a := c.Analytics
	if a.FStep <= 0 || a.FStep > 0.5 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "analytics.f_step must be in (0, 0.5], got %v", a.FStep)
	}
	if a.MAERatioThreshold < 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "analytics.mae_ratio_threshold must be non-negative")
	}
	if a.MFERMultiplier < 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "analytics.mfe_r_multiplier must be non-negative")
	}
	if a.Saturation <= 1 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "analytics.saturation must be greater than 1, got %v", a.Saturation)
	}
	if a.Workers < 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "analytics.workers must be non-negative")
	}

	if strings.TrimSpace(c.Store.DBPath) == "" {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "store.db_path is required")
	}
	if c.Server.RequestTimeout < 0 {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "server.request_timeout must be non-negative")
	}
	if c.Notifications.Enabled && c.Notifications.NATSURL == "" {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "notifications.nats_url is required when notifications are enabled")
	}
	return nil
}

// EngineConfig converts the analytics section into an engine configuration.
func (c *Config) EngineConfig() analytics.Config {
	cfg := analytics.DefaultConfig()
	cfg.FStep = c.Analytics.FStep
	cfg.Saturation = c.Analytics.Saturation
	cfg.Excursion = analytics.ExcursionPolicy{
		MAERatioThreshold: c.Analytics.MAERatioThreshold,
		MFERMultiplier:    c.Analytics.MFERMultiplier,
	}
	cfg.Parallel = c.Analytics.Parallel
	if c.Analytics.Workers > 0 {
		cfg.Workers = c.Analytics.Workers
	}
	return cfg
}

// LogConfig converts the logging section into a logger configuration.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}
