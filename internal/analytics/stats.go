// Package analytics computes the trade performance statistics panel from a
// finite history of trade records. Every function here is pure: the same
// input always yields the same snapshot and no input record is modified.
package analytics

import (
	"math"
)

// DefaultSaturation is the value reported in place of an unbounded ratio
// (profit factor with no losses, SQN with zero variance, and so on).
const DefaultSaturation = 999.0

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// SampleStdDev returns the standard deviation with an N-1 divisor.
// Fewer than two values yield 0.
func SampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	m := Mean(values)
	var variance float64
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(n-1))
}

// GeometricMean returns (Π values)^(1/N) computed through logarithms.
// ok is false when the slice is empty or any value is non-positive.
func GeometricMean(values []float64) (gm float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	var logSum float64
	for _, v := range values {
		if v <= 0 {
			return 0, false
		}
		logSum += math.Log(v)
	}
	return math.Exp(logSum / float64(len(values))), true
}

// SafeDiv returns num/den, or fallback when den is zero or the quotient
// is not finite.
func SafeDiv(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	q := num / den
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return fallback
	}
	return q
}

// clamp bounds v to [-limit, limit].
func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
