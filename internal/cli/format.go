package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"trade-journal/internal/models"
)

// FormatAmount formats a number with two decimals and thousands separators.
func FormatAmount(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	result := groupThousands(parts[0]) + "." + parts[1]
	if negative && strings.Trim(str, "0.") != "" {
		result = "-" + result
	}
	return result
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPnL formats P&L with sign.
func FormatPnL(pnl float64) string {
	formatted := FormatAmount(pnl)
	if pnl > 0 && formatted != "0.00" {
		return "+" + formatted
	}
	return formatted
}

// FormatPercent formats a percentage value.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.2f%%", value)
}

// FormatRatio formats a dimensionless metric.
func FormatRatio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatPrice formats a price, using more decimals for small values.
func FormatPrice(price float64) string {
	if math.Abs(price) >= 10 {
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.4f", price)
}

// FormatOptionalPrice formats a nullable price.
func FormatOptionalPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return FormatPrice(*p)
}

// FormatDate formats a date.
func FormatDate(t time.Time) string {
	return t.Local().Format("02-Jan-2006")
}

// FormatDateTime formats a datetime.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("02-Jan-2006 15:04")
}

// FormatFlag renders a metric flag for humans.
func FormatFlag(flag models.MetricFlag) string {
	switch flag {
	case models.FlagInsufficientData:
		return models.PendingLabel
	case models.FlagSaturated:
		return "saturated"
	case models.FlagRuinDetected:
		return "ruin"
	case models.FlagNoVariance:
		return "no variance"
	}
	return string(flag)
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
