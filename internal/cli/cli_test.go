package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"trade-journal/internal/models"
)

func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	app := &App{Logger: zerolog.Nop()}
	defer app.Close()

	var out bytes.Buffer
	cmd := NewRootCmd(app)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", dir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func testConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("JOURNAL_DB_PATH", filepath.Join(dir, "journal.db"))
	t.Setenv("JOURNAL_LOG_LEVEL", "error")
	return dir
}

func TestCLI_TradeWorkflow(t *testing.T) {
	dir := testConfigDir(t)

	out, err := runCLI(t, dir, "trades", "add", "infy", "long", "10", "1500",
		"-a", "1", "--stop", "1480", "--at", "2024-05-02 09:30",
		"--exit", "1550", "--exit-at", "2024-05-03 15:00", "--tags", "breakout,gap", "--json")
	require.NoError(t, err, out)

	var trade models.TradeRecord
	require.NoError(t, json.Unmarshal([]byte(out), &trade))
	assert.Equal(t, "INFY", trade.Symbol)
	require.NotNil(t, trade.PnL)
	assert.InDelta(t, 500, *trade.PnL, 1e-9)
	assert.Equal(t, []string{"breakout", "gap"}, trade.Tags)

	out, err = runCLI(t, dir, "trades", "add", "TCS", "short", "5", "3500", "-a", "1", "--json")
	require.NoError(t, err, out)
	var open models.TradeRecord
	require.NoError(t, json.Unmarshal([]byte(out), &open))
	assert.False(t, open.IsClosed())

	out, err = runCLI(t, dir, "trades", "list", "-a", "1", "--open", "--json")
	require.NoError(t, err, out)
	var list []models.TradeRecord
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "TCS", list[0].Symbol)

	out, err = runCLI(t, dir, "trades", "list", "-a", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "INFY")
	assert.Contains(t, out, "+500.00")

	out, err = runCLI(t, dir, "stats", "-a", "1", "--capital", "10000", "--format", "yaml")
	require.NoError(t, err, out)
	var snap map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &snap))
	assert.Equal(t, 1, snap["total_trades"])
	assert.Equal(t, 1, snap["open_trades"])
	assert.Equal(t, string(models.FlagInsufficientData), snap["flags"].(map[string]interface{})["sqn"])

	out, err = runCLI(t, dir, "stats", "-a", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, models.PendingLabel)
	assert.Contains(t, out, "Total P&L")

	out, err = runCLI(t, dir, "export", "-a", "1")
	require.NoError(t, err, out)
	assert.Equal(t, 3, len(strings.Split(strings.TrimSpace(out), "\n")))
}

func TestCLI_CloseAndErrors(t *testing.T) {
	dir := testConfigDir(t)

	out, err := runCLI(t, dir, "trades", "add", "SBIN", "long", "100", "600", "-a", "2",
		"--at", "2024-05-02", "--json")
	require.NoError(t, err, out)
	var trade models.TradeRecord
	require.NoError(t, json.Unmarshal([]byte(out), &trade))

	id := strconv.FormatInt(trade.ID, 10)
	out, err = runCLI(t, dir, "trades", "close", id, "590", "--reason", "stop", "--json")
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), &trade))
	assert.InDelta(t, -1000, trade.RealizedPnL(), 1e-9)

	_, err = runCLI(t, dir, "trades", "close", id, "610")
	assert.Error(t, err)

	_, err = runCLI(t, dir, "trades", "add", "SBIN", "sideways", "1", "1", "-a", "2")
	assert.Error(t, err)

	_, err = runCLI(t, dir, "stats")
	assert.Error(t, err)

	_, err = runCLI(t, dir, "stats", "-a", "2", "--capital", "NaN")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "starting_capital")
}

func TestCLI_Import(t *testing.T) {
	dir := testConfigDir(t)
	file := filepath.Join(dir, "fills.csv")
	require.NoError(t, os.WriteFile(file, []byte(strings.Join([]string{
		"executed_at,symbol,side,quantity,price,commission",
		"2024-01-02 09:15:00,INFY,buy,10,1500,10",
		"2024-01-02 14:00:00,INFY,sell,10,1550,10",
		"2024-01-03 09:15:00,TCS,hold,2,3500,0",
	}, "\n")), 0644))

	out, err := runCLI(t, dir, "import", file, "-a", "3", "--source", "broker")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 1 trades")
	assert.Contains(t, out, "Skipped 1 rows")
}

func TestCLI_ConfigAndVersion(t *testing.T) {
	dir := testConfigDir(t)

	out, err := runCLI(t, dir, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), strings.TrimSpace(out))
	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, err)

	out, err = runCLI(t, dir, "config", "validate", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":true}`, out)

	out, err = runCLI(t, dir, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
}

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	o := newOutput(&buf, FormatText, false)
	table := NewTable(o, "Tag", "P&L")
	table.AddRow("breakout", o.FormatPnL(120))
	table.AddRow("gap", o.FormatPnL(-5))
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Tag       P&L", lines[0])
	assert.Equal(t, "--------  -------", lines[1])
	assert.Equal(t, "breakout  +120.00", lines[2])
	assert.Equal(t, "gap       -5.00", lines[3])
}

func TestStripANSI(t *testing.T) {
	o := newOutput(&bytes.Buffer{}, FormatText, true)
	colored := o.Green("win")
	assert.NotEqual(t, "win", colored)
	assert.Equal(t, "win", stripANSI(colored))
	assert.Equal(t, 3, visibleLen(colored))
}
