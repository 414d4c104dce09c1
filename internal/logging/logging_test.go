package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" INFO ":  zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewLoggerWithConfig_ConsoleAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithConfig(LogConfig{Level: "warn", Console: true, Out: &buf})

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLoggerWithConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "journal.log")
	logger := NewLoggerWithConfig(LogConfig{Level: "info", File: true, FilePath: path, MaxSize: 1})
	logger.Info().Msg("to file")
	assert.FileExists(t, path)
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))

	var buf bytes.Buffer
	ctx = WithRequestID(ctx, "01HXREQ")
	ctx = WithLogger(ctx, zerolog.New(&buf))

	assert.Equal(t, "01HXREQ", RequestID(ctx))
	logger := FromContext(ctx)
	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")

	// Without a stored logger, FromContext is a no-op logger.
	nop := FromContext(context.Background())
	nop.Info().Msg("dropped")
}

func TestLogRequest_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{200, "info"},
		{404, "warn"},
		{503, "error"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		LogRequest(zerolog.New(&buf), "GET", "/stats", tt.status, 15*time.Millisecond)

		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, tt.level, line["level"])
		assert.Equal(t, float64(tt.status), line["status"])
		assert.Equal(t, "/stats", line["path"])
	}
}

func TestScopedLoggers(t *testing.T) {
	var buf bytes.Buffer
	logger := WithOperation(WithTradeID(WithAccount(zerolog.New(&buf), 7), 42), "close_trade")
	LogTradeClosed(logger, 42, "INFY", 1550, 480)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, float64(7), line["account_id"])
	assert.Equal(t, "close_trade", line["operation"])
	assert.Equal(t, "trade_closed", line["event"])
	assert.Equal(t, float64(480), line["pnl"])
}
