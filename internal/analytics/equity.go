package analytics

import (
	"trade-journal/internal/models"
)

// EquityCurve accumulates closed-trade PnL, already ordered by exit time,
// onto startingCapital and returns one point per trade together with the
// largest peak-to-trough decline. The starting balance counts as the
// initial peak, so a losing first trade is a drawdown.
func EquityCurve(trades []NormalizedTrade, startingCapital float64) ([]models.EquityPoint, float64) {
	curve := make([]models.EquityPoint, 0, len(trades))
	balances := make([]float64, 0, len(trades)+1)
	balances = append(balances, startingCapital)

	balance := startingCapital
	for _, t := range trades {
		balance += t.PnL
		curve = append(curve, models.EquityPoint{Date: *t.Trade.ExitAt, Balance: balance})
		balances = append(balances, balance)
	}
	return curve, MaxDrawdown(balances)
}

// MaxDrawdown returns the largest peak-to-trough decline of a balance
// series in a single forward pass. The first balance is the initial peak.
func MaxDrawdown(balances []float64) float64 {
	if len(balances) == 0 {
		return 0
	}
	peak := balances[0]
	var maxDD float64
	for _, b := range balances {
		if b > peak {
			peak = b
		}
		if dd := peak - b; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
