package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"trade-journal/internal/models"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	format       string
	colorEnabled bool
}

// NewOutput creates a new Output for cmd. The global --json flag wins over
// a command's --format flag.
func NewOutput(cmd *cobra.Command) *Output {
	format := FormatText
	if f, err := cmd.Flags().GetString("format"); err == nil && f != "" {
		format = strings.ToLower(f)
	}
	if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
		format = FormatJSON
	}
	return newOutput(cmd.OutOrStdout(), format, format == FormatText && isTerminal())
}

func newOutput(w io.Writer, format string, colorEnabled bool) *Output {
	return &Output{writer: w, format: format, colorEnabled: colorEnabled}
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("NO_COLOR") == ""
}

// Format returns the selected output format.
func (o *Output) Format() string {
	return o.format
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.format == FormatJSON
}

// IsStructured reports whether output is machine readable.
func (o *Output) IsStructured() bool {
	return o.format == FormatJSON || o.format == FormatYAML
}

// Structured writes data as JSON or YAML depending on the format.
func (o *Output) Structured(data interface{}) error {
	if o.format == FormatYAML {
		return o.YAML(data)
	}
	return o.JSON(data)
}

// JSON outputs data as indented JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// YAML outputs data as YAML.
func (o *Output) YAML(data interface{}) error {
	encoder := yaml.NewEncoder(o.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.line(o.paint(color.FgGreen), format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.line(o.paint(color.FgRed), format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.line(o.paint(color.FgYellow), format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.line(o.paint(color.FgCyan), format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.line(o.paint(color.Bold), format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.line(o.paint(color.Faint), format, args...)
}

func (o *Output) line(c *color.Color, format string, args ...interface{}) {
	c.Fprintln(o.writer, fmt.Sprintf(format, args...))
}

// paint returns a color honouring this output's color setting rather than
// the package-wide color.NoColor.
func (o *Output) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if o.colorEnabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Green returns green colored text.
func (o *Output) Green(text string) string {
	return o.paint(color.FgGreen).Sprint(text)
}

// Red returns red colored text.
func (o *Output) Red(text string) string {
	return o.paint(color.FgRed).Sprint(text)
}

// Yellow returns yellow colored text.
func (o *Output) Yellow(text string) string {
	return o.paint(color.FgYellow).Sprint(text)
}

// DimText returns dimmed text.
func (o *Output) DimText(text string) string {
	return o.paint(color.Faint).Sprint(text)
}

// FormatPnL formats P&L with sign and color.
func (o *Output) FormatPnL(pnl float64) string {
	formatted := FormatPnL(pnl)
	switch {
	case pnl > 0:
		return o.Green(formatted)
	case pnl < 0:
		return o.Red(formatted)
	}
	return formatted
}

// Flagged renders a metric value with its flag. Metrics without enough
// data show only the pending label.
func (o *Output) Flagged(value string, flag models.MetricFlag) string {
	switch flag {
	case "":
		return value
	case models.FlagInsufficientData:
		return o.DimText(FormatFlag(flag))
	}
	return value + " " + o.Yellow("("+FormatFlag(flag)+")")
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleLen(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && visibleLen(cell) > widths[i] {
				widths[i] = visibleLen(cell)
			}
		}
	}

	t.printRow(t.headers, widths, true)
	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	t.output.Println(t.output.DimText(strings.Join(seps, "  ")))
	for _, row := range t.rows {
		t.printRow(row, widths, false)
	}
}

func (t *Table) printRow(cells []string, widths []int, isHeader bool) {
	parts := make([]string, 0, len(cells))
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		padded := cell + strings.Repeat(" ", widths[i]-visibleLen(cell))
		if isHeader {
			padded = t.output.paint(color.Bold).Sprint(padded)
		}
		parts = append(parts, padded)
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

// stripANSI removes ANSI escape codes from a string.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func visibleLen(s string) int {
	return len([]rune(stripANSI(s)))
}
