package analytics

import (
	"math"
	"sort"

	"trade-journal/internal/models"
)

// NormalizedTrade is a closed trade with its optional risk framing resolved
// into explicit values. Trades without a risk basis have RiskDefined=false
// and a zero RMultiple, which callers must not use.
type NormalizedTrade struct {
	Trade       *models.TradeRecord
	PnL         float64
	Win         bool
	RiskDefined bool
	RiskBasis   float64
	RMultiple   float64
	HPR         float64
}

// RiskBasis returns the currency amount risked on a trade: the explicit
// risk amount when present, else the stop distance scaled by quantity and
// leverage. ok is false when neither yields a positive basis.
func RiskBasis(t *models.TradeRecord) (basis float64, ok bool) {
	if t.RiskAmount != nil && *t.RiskAmount > 0 {
		return *t.RiskAmount, true
	}
	if t.StopLoss != nil {
		leverage := t.Leverage
		if leverage == 0 {
			leverage = 1
		}
		basis = math.Abs(t.EntryPrice-*t.StopLoss) * t.Quantity * leverage
		if basis > 0 {
			return basis, true
		}
	}
	return 0, false
}

// HoldingPeriodReturn returns 1 + pnl/entry_capital, where entry capital
// is entry price times quantity. A zero entry capital yields a neutral 1.
func HoldingPeriodReturn(t *models.TradeRecord) float64 {
	capital := t.EntryPrice * t.Quantity
	return 1 + SafeDiv(t.RealizedPnL(), capital, 0)
}

// Normalize derives the risk-denominated view of a single closed trade.
func Normalize(t *models.TradeRecord) NormalizedTrade {
	pnl := t.RealizedPnL()
	nt := NormalizedTrade{
		Trade: t,
		PnL:   pnl,
		Win:   pnl > 0,
		HPR:   HoldingPeriodReturn(t),
	}
	if basis, ok := RiskBasis(t); ok {
		nt.RiskDefined = true
		nt.RiskBasis = basis
		nt.RMultiple = pnl / basis
	}
	return nt
}

// NormalizeClosed normalizes the closed trades of a history and orders them
// by exit time ascending, breaking ties by id. Open trades are skipped.
func NormalizeClosed(trades []models.TradeRecord) []NormalizedTrade {
	out := make([]NormalizedTrade, 0, len(trades))
	for i := range trades {
		if !trades[i].IsClosed() {
			continue
		}
		out = append(out, Normalize(&trades[i]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Trade, out[j].Trade
		if !a.ExitAt.Equal(*b.ExitAt) {
			return a.ExitAt.Before(*b.ExitAt)
		}
		return a.ID < b.ID
	})
	return out
}

// RMultiples returns the R-multiples of the risk-defined trades, in order.
func RMultiples(trades []NormalizedTrade) []float64 {
	rs := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.RiskDefined {
			rs = append(rs, t.RMultiple)
		}
	}
	return rs
}

// PnLs returns realized PnL amounts, in order.
func PnLs(trades []NormalizedTrade) []float64 {
	out := make([]float64, len(trades))
	for i, t := range trades {
		out[i] = t.PnL
	}
	return out
}

// Outcomes returns the win/loss sequence, in order. Zero PnL is a loss.
func Outcomes(trades []NormalizedTrade) []bool {
	out := make([]bool, len(trades))
	for i, t := range trades {
		out[i] = t.Win
	}
	return out
}
