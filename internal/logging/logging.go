// Package logging builds the zerolog loggers used across the journal.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days

	// Out overrides the console destination. Defaults to stderr so command
	// output on stdout stays machine readable.
	Out io.Writer
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       false,
		FilePath:   filepath.Join(home, ".config", "trade-journal", "logs", "journal.log"),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// NewLogger returns a logger built from DefaultLogConfig.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig builds a logger writing to the console, a rotated
// file, or both.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		out := cfg.Out
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, zerolog.ConsoleWriter{
			Out:         out,
			TimeFormat:  time.RFC3339,
			FormatLevel: formatLevel,
		})
	}

	// Rotated file writer
	if cfg.File && cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(writer).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

func formatLevel(i interface{}) string {
	ll, ok := i.(string)
	if !ok {
		return "???"
	}
	switch ll {
	case "debug":
		return "\033[36mDBG\033[0m"
	case "info":
		return "\033[32mINF\033[0m"
	case "warn":
		return "\033[33mWRN\033[0m"
	case "error":
		return "\033[31mERR\033[0m"
	default:
		return ll
	}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ContextKey is the type for context keys.
type ContextKey string

const (
	// LoggerKey is the context key for the logger.
	LoggerKey ContextKey = "logger"
	// RequestIDKey is the context key for request ID.
	RequestIDKey ContextKey = "request_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithRequestID stores a request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the request ID stored in the context, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithAccount adds an account ID to the logger context.
func WithAccount(logger zerolog.Logger, accountID int64) zerolog.Logger {
	return logger.With().Int64("account_id", accountID).Logger()
}

// WithTradeID adds a trade ID to the logger context.
func WithTradeID(logger zerolog.Logger, tradeID int64) zerolog.Logger {
	return logger.With().Int64("trade_id", tradeID).Logger()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// LogTradeClosed logs a trade close.
func LogTradeClosed(logger zerolog.Logger, tradeID int64, symbol string, exitPrice, pnl float64) {
	logger.Info().
		Str("event", "trade_closed").
		Int64("trade_id", tradeID).
		Str("symbol", symbol).
		Float64("exit_price", exitPrice).
		Float64("pnl", pnl).
		Msg("Trade closed")
}

// LogSnapshot logs a computed statistics snapshot.
func LogSnapshot(logger zerolog.Logger, accountID int64, closed int, totalPnL float64, flags int) {
	logger.Info().
		Str("event", "snapshot").
		Int64("account_id", accountID).
		Int("closed_trades", closed).
		Float64("total_pnl", totalPnL).
		Int("flagged_metrics", flags).
		Msg("Statistics computed")
}

// LogImport logs the outcome of a trade import.
func LogImport(logger zerolog.Logger, batchID, source string, imported, skipped int) {
	logger.Info().
		Str("event", "import").
		Str("batch_id", batchID).
		Str("source", source).
		Int("imported", imported).
		Int("skipped", skipped).
		Msg("Trades imported")
}

// LogRequest logs a served HTTP request.
func LogRequest(logger zerolog.Logger, method, path string, status int, duration time.Duration) {
	event := logger.Info()
	if status >= 500 {
		event = logger.Error()
	} else if status >= 400 {
		event = logger.Warn()
	}
	event.
		Str("event", "request").
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration", duration).
		Msg("Request served")
}
