// Package cli provides the command-line interface for the trade journal.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trade-journal/internal/analytics"
	"trade-journal/internal/config"
	"trade-journal/internal/journal"
	"trade-journal/internal/logging"
	"trade-journal/internal/notify"
	"trade-journal/internal/resilience"
	"trade-journal/internal/store"
)

// Version information, overridden at build time with -ldflags.
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// App holds the application dependencies. The journal service is opened on
// first use so that commands like version and config never touch the
// database.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	service *journal.Service
	closers []func() error
}

// Service returns the journal service, opening the store and event
// channels on first call.
func (a *App) Service() (*journal.Service, error) {
	if a.service != nil {
		return a.service, nil
	}

	dbPath := a.Config.Store.DBPath
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.Close)
	a.Logger.Debug().Str("db_path", dbPath).Msg("SQLite store initialized")

	engine := analytics.NewEngine(a.Config.EngineConfig(), a.Logger)
	a.service = journal.NewService(st, engine, a.notifier(), a.Logger)
	return a.service, nil
}

func (a *App) notifier() notify.Notifier {
	cfg := a.Config.Notifications
	if !cfg.Enabled {
		return notify.NoOpNotifier{}
	}

	mn := notify.NewMultiNotifier(notify.NewLogChannel(a.Logger))
	nc, err := notify.NewNATSChannel(cfg.NATSURL, cfg.SubjectPrefix, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Str("url", cfg.NATSURL).Msg("NATS unavailable, events will only be logged")
		return mn
	}
	a.closers = append(a.closers, nc.Close)
	mn.AddChannel(notify.Guard(nc, resilience.DefaultBreakerConfig(), resilience.DefaultRetryConfig()))
	a.Logger.Debug().Str("url", cfg.NATSURL).Msg("NATS channel initialized")
	return mn
}

// Close releases everything opened by Service.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn().Err(err).Msg("Close failed")
		}
	}
	a.closers = nil
	a.service = nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	app := &App{Logger: zerolog.Nop()}
	defer app.Close()
	return NewRootCmd(app).ExecuteContext(ctx)
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "journal",
		Short: "Trade journal with position sizing and system quality statistics",
		Long: `Trade journal records trades per account and derives a statistics panel
from the closed ones: optimal f, SQN, runs test, profit and recovery
factors, AHPR, MAE/MFE excursions and an equity curve.

Use 'journal examples' to see common workflows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			app.Config = cfg

			logCfg := cfg.LogConfig()
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logCfg.Level = "debug"
			}
			app.Logger = logging.NewLoggerWithConfig(logCfg)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trade-journal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newStatsCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
	rootCmd.AddCommand(newExamplesCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Trade Journal v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsStructured() {
				return output.Structured(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	}
	showCmd.Flags().String("format", FormatText, "output format: text, json or yaml")
	cmd.AddCommand(showCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := config.ConfigPath(app.Config.Dir)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("Configuration is valid")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Overwrite the configuration file with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path, err := config.WriteTemplate(app.Config.Dir)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Success("Wrote %s", path)
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Analytics")
	output.Printf("  f step:          %.2f\n", cfg.Analytics.FStep)
	output.Printf("  MAE threshold:   %.2f\n", cfg.Analytics.MAERatioThreshold)
	output.Printf("  MFE multiplier:  %.2f\n", cfg.Analytics.MFERMultiplier)
	output.Printf("  Saturation:      %.0f\n", cfg.Analytics.Saturation)
	output.Printf("  Parallel:        %v (workers %d)\n", cfg.Analytics.Parallel, cfg.Analytics.Workers)
	output.Println()

	output.Bold("Store")
	output.Printf("  Database:        %s\n", cfg.Store.DBPath)
	output.Println()

	output.Bold("Server")
	output.Printf("  Listen:          %s\n", cfg.Server.ListenAddr)
	output.Printf("  Timeout:         %s\n", cfg.Server.RequestTimeout)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:         %v\n", cfg.Notifications.Enabled)
	output.Printf("  NATS:            %s\n", cfg.Notifications.NATSURL)
	output.Printf("  Subject prefix:  %s\n", cfg.Notifications.SubjectPrefix)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  File:            %v (%s)\n", cfg.Logging.File, cfg.Logging.FilePath)
}
