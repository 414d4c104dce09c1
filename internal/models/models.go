// Package models provides domain models for the trade journal.
package models

// Direction represents the side of a position.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// Sign returns +1 for long and -1 for short positions.
func (d Direction) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// MetricFlag marks a metric whose numeric value is a neutral default
// or a clamped value rather than a computed one.
type MetricFlag string

const (
	FlagInsufficientData MetricFlag = "insufficient_data"
	FlagSaturated        MetricFlag = "saturated"
	FlagRuinDetected     MetricFlag = "ruin_detected"
	FlagNoVariance       MetricFlag = "no_variance"
)

// Metric names used as keys of StatsSnapshot.Flags.
const (
	MetricOptimalF       = "optimal_f"
	MetricSQN            = "sqn"
	MetricZScore         = "z_score"
	MetricProfitFactor   = "profit_factor"
	MetricRExpectancy    = "r_expectancy"
	MetricRecoveryFactor = "recovery_factor"
	MetricAHPR           = "ahpr"
	MetricMAEMFE         = "mae_mfe_analysis"
)

// Placeholder text for qualitative fields of undefined metrics.
const (
	PendingLabel = "Calculating..."
)
