package journal

import (
	"time"

	"github.com/shopspring/decimal"

	"trade-journal/internal/models"
)

// RealizedPnL returns the profit of a position net of commission:
// (exit - entry) * qty for longs, (entry - exit) * qty for shorts.
// Arithmetic is decimal so that round prices give round results.
func RealizedPnL(direction models.Direction, entry, exit, qty, commission float64) float64 {
	gross := decimal.NewFromFloat(exit).
		Sub(decimal.NewFromFloat(entry)).
		Mul(decimal.NewFromFloat(qty)).
		Mul(decimal.NewFromFloat(direction.Sign()))
	return gross.Sub(decimal.NewFromFloat(commission)).InexactFloat64()
}

// ApplyClose records the outcome on an open trade. exitAt defaults to now.
func ApplyClose(t *models.TradeRecord, in CloseInput, now time.Time) {
	exitAt := now
	if in.ExitAt != nil && !in.ExitAt.IsZero() {
		exitAt = *in.ExitAt
	}
	pnl := RealizedPnL(t.Direction, t.EntryPrice, in.ExitPrice, t.Quantity, t.Commission)

	t.ExitPrice = models.Float(in.ExitPrice)
	t.ExitAt = &exitAt
	t.PnL = &pnl
	t.ExitReason = in.ExitReason
	if in.MAEPrice != nil {
		t.MAEPrice = in.MAEPrice
	}
	if in.MFEPrice != nil {
		t.MFEPrice = in.MFEPrice
	}
}
