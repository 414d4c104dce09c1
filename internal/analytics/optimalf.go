package analytics

import (
	"math"

	"trade-journal/internal/models"
)

const (
	// DefaultFStep is the resolution of the optimal f grid.
	DefaultFStep = 0.01
	maxF         = 0.99
)

// OptimalF runs Ralph Vince's fixed-fraction search over realized PnL
// amounts. Each candidate f in (0, 0.99] at the given step is scored by
// the geometric mean of its holding-period returns
//
//	HPR_i(f) = 1 + f * pnl_i / |biggest loss|
//
// and the smallest f reaching the maximum wins. A candidate whose factor
// for any trade is non-positive implies ruin; it and every larger f are
// dropped from the search.
//
// Fewer than two trades, or a history without a losing trade, leaves the
// result at zero with FlagInsufficientData. NoLosses is set only when the
// history has a winning trade.
func OptimalF(pnls []float64, step float64) models.OptimalFResult {
	if step <= 0 || step > maxF {
		step = DefaultFStep
	}

	if len(pnls) < 2 {
		return models.OptimalFResult{Flag: models.FlagInsufficientData}
	}

	worst, hasWin := 0.0, false
	for _, p := range pnls {
		if p < worst {
			worst = p
		}
		if p > 0 {
			hasWin = true
		}
	}
	if worst == 0 {
		// A flat history has neither wins nor losses.
		return models.OptimalFResult{Flag: models.FlagInsufficientData, NoLosses: hasWin}
	}
	biggestLoss := -worst

	n := float64(len(pnls))
	best := models.OptimalFResult{}
	bestLogG := math.Inf(-1)

	for k := 1; ; k++ {
		f := roundTo(float64(k)*step, 6)
		if f > maxF+1e-9 {
			break
		}

		logTWR, feasible := logTerminalWealth(pnls, biggestLoss, f)
		if !feasible {
			break
		}

		logG := logTWR / n
		if logG > bestLogG {
			bestLogG = logG
			best.OptimalF = roundTo(f, 4)
			best.GeometricMean = math.Exp(logG)
			best.TWR = math.Exp(logTWR)
		}
	}

	if math.IsInf(bestLogG, -1) {
		// Even the smallest fraction risks ruin.
		return models.OptimalFResult{Flag: models.FlagRuinDetected}
	}
	return best
}

// logTerminalWealth returns ln(TWR(f)). feasible is false when any
// holding-period factor is non-positive.
func logTerminalWealth(pnls []float64, biggestLoss, f float64) (float64, bool) {
	var logSum float64
	for _, p := range pnls {
		hpr := 1 + f*(p/biggestLoss)
		if hpr <= 0 {
			return 0, false
		}
		logSum += math.Log(hpr)
	}
	return logSum, true
}

func roundTo(v float64, places int) float64 {
	m := math.Pow(10, float64(places))
	return math.Round(v*m) / m
}
