package analytics

import (
	"trade-journal/internal/models"
)

// Efficiency holds the PnL-efficiency metrics and their flags.
type Efficiency struct {
	ProfitFactor     float64
	ProfitFactorFlag models.MetricFlag

	RExpectancy     float64
	RExpectancyFlag models.MetricFlag

	RecoveryFactor     float64
	RecoveryFactorFlag models.MetricFlag

	AHPR     float64
	AHPRFlag models.MetricFlag
}

// ProfitFactor returns gross profit over gross loss. With no losses and
// some profit the ratio saturates; with neither it is undefined.
func ProfitFactor(pnls []float64, saturation float64) (float64, models.MetricFlag) {
	var grossProfit, grossLoss float64
	for _, p := range pnls {
		if p > 0 {
			grossProfit += p
		} else {
			grossLoss -= p
		}
	}

	switch {
	case grossLoss == 0 && grossProfit == 0:
		return 0, models.FlagInsufficientData
	case grossLoss == 0:
		return saturation, models.FlagSaturated
	}

	pf := grossProfit / grossLoss
	if pf >= saturation {
		return saturation, models.FlagSaturated
	}
	return pf, ""
}

// RExpectancy returns the mean R-multiple, undefined without any.
func RExpectancy(rs []float64) (float64, models.MetricFlag) {
	if len(rs) == 0 {
		return 0, models.FlagInsufficientData
	}
	return Mean(rs), ""
}

// RecoveryFactor returns net PnL over max drawdown. A zero drawdown
// saturates when the account is up and reports 0 otherwise.
func RecoveryFactor(netPnL, maxDrawdown float64, closed int, saturation float64) (float64, models.MetricFlag) {
	if closed == 0 {
		return 0, models.FlagInsufficientData
	}
	if maxDrawdown == 0 {
		if netPnL > 0 {
			return saturation, models.FlagSaturated
		}
		return 0, models.FlagNoVariance
	}

	rf := netPnL / maxDrawdown
	if rf >= saturation || rf <= -saturation {
		return clamp(rf, saturation), models.FlagSaturated
	}
	return rf, ""
}

// AHPR returns the geometric mean of holding-period returns. Any
// non-positive HPR means a trade wiped out its capital; the result is then
// 0 with FlagRuinDetected.
func AHPR(hprs []float64) (float64, models.MetricFlag) {
	if len(hprs) == 0 {
		return 0, models.FlagInsufficientData
	}
	gm, ok := GeometricMean(hprs)
	if !ok {
		return 0, models.FlagRuinDetected
	}
	return gm, ""
}

// ComputeEfficiency evaluates every efficiency metric over an ordered
// closed-trade history and the drawdown of its equity curve.
func ComputeEfficiency(trades []NormalizedTrade, maxDrawdown, saturation float64) Efficiency {
	pnls := PnLs(trades)
	hprs := make([]float64, len(trades))
	var net float64
	for i, t := range trades {
		hprs[i] = t.HPR
		net += t.PnL
	}

	var e Efficiency
	e.ProfitFactor, e.ProfitFactorFlag = ProfitFactor(pnls, saturation)
	e.RExpectancy, e.RExpectancyFlag = RExpectancy(RMultiples(trades))
	e.RecoveryFactor, e.RecoveryFactorFlag = RecoveryFactor(net, maxDrawdown, len(trades), saturation)
	e.AHPR, e.AHPRFlag = AHPR(hprs)
	return e
}
