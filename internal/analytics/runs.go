package analytics

import (
	"math"

	"trade-journal/internal/models"
)

// Runs-test verdicts.
const (
	VerdictStreaky     = "Streaky"
	VerdictRandom      = "Random"
	VerdictAlternating = "Alternating"
)

// zCritical is the two-tailed 95% confidence cutoff.
const zCritical = 1.96

var verdictDescriptions = map[string]string{
	VerdictStreaky:     "Wins and losses cluster in streaks. Increase size during winning streaks and cut size during losing streaks.",
	VerdictRandom:      "Outcomes look independent of each other. No streak-based sizing adjustment is justified.",
	VerdictAlternating: "Wins and losses tend to alternate. Increase size after a loss and decrease it after a win.",
}

// CountRuns returns the number of maximal streaks of identical outcomes.
func CountRuns(outcomes []bool) int {
	if len(outcomes) == 0 {
		return 0
	}
	runs := 1
	for i := 1; i < len(outcomes); i++ {
		if outcomes[i] != outcomes[i-1] {
			runs++
		}
	}
	return runs
}

// SerialCorrelation runs the Wald-Wolfowitz runs test over a chronological
// win/loss sequence:
//
//	Z = (R - (2WL/N + 1)) / sqrt(2WL(2WL - N) / (N²(N - 1)))
//
// The sequence needs at least two outcomes with both wins and losses, and
// a positive variance term; otherwise the result is flagged insufficient.
func SerialCorrelation(outcomes []bool) models.ZScoreResult {
	n := len(outcomes)
	var wins int
	for _, w := range outcomes {
		if w {
			wins++
		}
	}
	losses := n - wins
	runs := CountRuns(outcomes)

	pending := models.ZScoreResult{
		Verdict:     models.PendingLabel,
		Description: "Need at least two closed trades including both a win and a loss.",
		Runs:        runs,
		Flag:        models.FlagInsufficientData,
	}
	if n < 2 || wins == 0 || losses == 0 {
		return pending
	}

	N := float64(n)
	x := 2 * float64(wins) * float64(losses)
	variance := x * (x - N) / (N * N * (N - 1))
	if variance <= 0 {
		pending.Description = "Sequence too short for the runs test to have any variance."
		return pending
	}

	z := (float64(runs) - (x/N + 1)) / math.Sqrt(variance)
	verdict := ClassifyZ(z)
	return models.ZScoreResult{
		ZScore:      z,
		Verdict:     verdict,
		Description: verdictDescriptions[verdict],
		Runs:        runs,
	}
}

// ClassifyZ maps a runs-test Z-score to its verdict.
func ClassifyZ(z float64) string {
	switch {
	case z < -zCritical:
		return VerdictStreaky
	case z > zCritical:
		return VerdictAlternating
	default:
		return VerdictRandom
	}
}
