package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Trade Journal Configuration

[analytics]
# Resolution of the optimal f search grid, in (0, 0.5]
f_step = 0.01
# Average MAE/risk below this ratio suggests stops are too wide
mae_ratio_threshold = 0.3
# Average MFE/risk above this multiple of realized R suggests early exits
mfe_r_multiplier = 2.0
# Value reported in place of unbounded ratios
saturation = 999.0
# Evaluate calculators concurrently
parallel = false
# Worker goroutines when parallel (0 = one per CPU)
workers = 0

[store]
# SQLite database file (defaults to journal.db in this directory)
# db_path = ""

[server]
listen_addr = "127.0.0.1:8080"
request_timeout = "30s"

[notifications]
# Publish trade.closed and trades.imported events to NATS
enabled = false
nats_url = "nats://127.0.0.1:4222"
subject_prefix = "journal"

[logging]
# debug, info, warn, error
level = "info"
console = true
# Rotating log file
file = false
# file_path = ""
max_size = 50
max_backups = 5
max_age = 30
`

// WriteTemplate writes the config template into configDir, replacing any
// existing file.
func WriteTemplate(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := ConfigPath(configDir)
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}
	return path, nil
}

func createTemplateConfig(configDir string) error {
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	_, err := WriteTemplate(configDir)
	return err
}
