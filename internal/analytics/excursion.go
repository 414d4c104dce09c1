package analytics

import (
	"fmt"
	"math"

	"trade-journal/internal/models"
)

// Default excursion policy thresholds.
const (
	DefaultMAERatioThreshold = 0.3
	DefaultMFERMultiplier    = 2.0
)

// ExcursionPolicy holds the thresholds behind the MAE/MFE advice.
type ExcursionPolicy struct {
	// MAERatioThreshold flags stops as too wide when the average MAE
	// ratio falls below it.
	MAERatioThreshold float64
	// MFERMultiplier flags early exits when the average MFE ratio exceeds
	// this multiple of the average realized R-multiple.
	MFERMultiplier float64
}

// DefaultExcursionPolicy returns the stock thresholds.
func DefaultExcursionPolicy() ExcursionPolicy {
	return ExcursionPolicy{
		MAERatioThreshold: DefaultMAERatioThreshold,
		MFERMultiplier:    DefaultMFERMultiplier,
	}
}

// Excursions aggregates MAE and MFE distances, expressed in units of risk,
// over risk-defined trades that recorded them. Trades without a risk basis
// are ignored; an empty eligible set gives zero ratios, no advice and
// FlagInsufficientData.
func Excursions(trades []NormalizedTrade, policy ExcursionPolicy) models.ExcursionSummary {
	var maeRatios, mfeRatios, mfeRs []float64
	for _, t := range trades {
		if !t.RiskDefined {
			continue
		}
		tr := t.Trade
		if tr.MAEPrice != nil {
			maeRatios = append(maeRatios, math.Abs(tr.EntryPrice-*tr.MAEPrice)*tr.Quantity/t.RiskBasis)
		}
		if tr.MFEPrice != nil {
			mfeRatios = append(mfeRatios, math.Abs(*tr.MFEPrice-tr.EntryPrice)*tr.Quantity/t.RiskBasis)
			mfeRs = append(mfeRs, t.RMultiple)
		}
	}

	summary := models.ExcursionSummary{
		AvgMAERatio:     Mean(maeRatios),
		AvgMFERatio:     Mean(mfeRatios),
		Recommendations: []string{},
	}
	if len(maeRatios) == 0 && len(mfeRatios) == 0 {
		summary.Flag = models.FlagInsufficientData
	}

	if len(maeRatios) > 0 && summary.AvgMAERatio < policy.MAERatioThreshold {
		summary.Recommendations = append(summary.Recommendations, fmt.Sprintf(
			"Stops likely too wide: average adverse excursion is %.0f%% of risk. Consider tightening stops to increase position size.",
			summary.AvgMAERatio*100))
	}
	if len(mfeRatios) > 0 {
		avgR := Mean(mfeRs)
		if summary.AvgMFERatio > policy.MFERMultiplier*avgR {
			summary.Recommendations = append(summary.Recommendations, fmt.Sprintf(
				"Consistently leaving profit on the table: price ran %.2fR in your favour on average but you realized %.2fR. Consider later exits or trailing stops.",
				summary.AvgMFERatio, avgR))
		}
	}
	return summary
}
