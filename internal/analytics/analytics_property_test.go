package analytics

import (
	"math"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"trade-journal/internal/models"
)

// pnlGen generates realized PnL histories of 2 to 40 trades.
func pnlGen() gopter.Gen {
	return gen.IntRange(2, 40).FlatMap(func(n interface{}) gopter.Gen {
		return gen.SliceOfN(n.(int), gen.Float64Range(-500, 500))
	}, reflect.TypeOf([]float64{}))
}

// Property: win_rate = 100 * profitable_trades / total_trades for any mix of
// open and closed trades.
func TestProperty_WinRateIdentity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("win rate matches counts", prop.ForAll(
		func(pnls []float64, open int) bool {
			trades := tradesFromPnL(pnls...)
			for i := 0; i < open; i++ {
				trades = append(trades, models.TradeRecord{
					ID: int64(1000 + i), AccountID: 1, Symbol: "SBIN",
					Direction: models.DirectionLong, EntryPrice: 600, Quantity: 1, EntryAt: baseTime,
				})
			}
			snap, err := ComputeSnapshot(1, trades, nil)
			if err != nil {
				return false
			}
			if snap.TotalTrades != len(pnls) || snap.OpenTrades != open {
				return false
			}
			want := 0.0
			if snap.TotalTrades > 0 {
				want = 100 * float64(snap.ProfitableTrades) / float64(snap.TotalTrades)
			}
			return snap.WinRate == want && snap.WinRate >= 0 && snap.WinRate <= 100
		},
		gen.SliceOf(gen.Float64Range(-500, 500)),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}

// Property: raising one trade's PnL never lowers the profit factor.
func TestProperty_ProfitFactorMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("profit factor non-decreasing", prop.ForAll(
		func(pnls []float64, idx int, delta float64) bool {
			i := idx % len(pnls)
			before, _ := ProfitFactor(pnls, DefaultSaturation)

			raised := append([]float64(nil), pnls...)
			raised[i] += delta
			after, _ := ProfitFactor(raised, DefaultSaturation)

			return after >= before-1e-9
		},
		pnlGen(),
		gen.IntRange(0, 1000),
		gen.Float64Range(0.01, 300),
	))

	properties.TestingRun(t)
}

// Property: for a history that is not net losing, raising one trade's PnL
// never lowers the recovery factor. The drawdown can only shrink while net
// PnL grows.
func TestProperty_RecoveryFactorMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	recovery := func(pnls []float64) (float64, float64) {
		closed := NormalizeClosed(tradesFromPnL(pnls...))
		_, maxDD := EquityCurve(closed, 10000)
		net := 0.0
		for _, p := range pnls {
			net += p
		}
		rf, _ := RecoveryFactor(net, maxDD, len(pnls), DefaultSaturation)
		return rf, net
	}

	properties.Property("recovery factor non-decreasing when net >= 0", prop.ForAll(
		func(pnls []float64, idx int, delta float64) bool {
			before, net := recovery(pnls)
			if net < 0 {
				return true
			}
			raised := append([]float64(nil), pnls...)
			raised[idx%len(pnls)] += delta
			after, _ := recovery(raised)
			return after >= before-1e-9*math.Max(1, math.Abs(before))
		},
		pnlGen(),
		gen.IntRange(0, 1000),
		gen.Float64Range(0.01, 300),
	))

	properties.TestingRun(t)
}

// Property: scaling every PnL by the same positive factor leaves the
// optimal fraction unchanged.
func TestProperty_OptimalFScaleInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("argmax f unchanged under scaling", prop.ForAll(
		func(pnls []float64, exp int) bool {
			// Powers of two scale exactly in binary floating point.
			k := math.Ldexp(1, exp)
			scaled := make([]float64, len(pnls))
			for i, p := range pnls {
				scaled[i] = p * k
			}
			a := OptimalF(pnls, DefaultFStep)
			b := OptimalF(scaled, DefaultFStep)
			return a.OptimalF == b.OptimalF && a.Flag == b.Flag
		},
		pnlGen(),
		gen.IntRange(-6, 10),
	))

	properties.TestingRun(t)
}

// Property: every snapshot value is finite and the optimal fraction stays
// inside its grid.
func TestProperty_SnapshotBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	finite := func(vs ...float64) bool {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	}

	properties.Property("snapshot values finite", prop.ForAll(
		func(pnls []float64, risk float64) bool {
			trades := tradesFromPnL(pnls...)
			for i := range trades {
				if i%2 == 0 {
					trades[i].RiskAmount = models.Float(risk)
				}
			}
			snap, err := ComputeSnapshot(1, trades, nil)
			if err != nil {
				return false
			}
			if snap.OptimalF < 0 || snap.OptimalF > maxF {
				return false
			}
			return finite(snap.TotalPnL, snap.WinRate, snap.OptimalF, snap.SQN.SQN, snap.ZScore.ZScore,
				snap.ProfitFactor, snap.RExpectancy, snap.RecoveryFactor, snap.MaxDrawdown, snap.AHPR,
				snap.MAEMFEAnalysis.AvgMAERatio, snap.MAEMFEAnalysis.AvgMFERatio)
		},
		pnlGen(),
		gen.Float64Range(1, 200),
	))

	properties.TestingRun(t)
}

// Property: strictly alternating sequences classify as Alternating and a
// single win streak followed by a single loss streak as Streaky, for any
// length from 20 up.
func TestProperty_RunsClassification(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("alternating and two-streak sequences", prop.ForAll(
		func(n int, firstWin bool) bool {
			alternating := make([]bool, n)
			streaky := make([]bool, n)
			for i := 0; i < n; i++ {
				alternating[i] = (i%2 == 0) == firstWin
				streaky[i] = (i < n/2) == firstWin
			}
			alt := SerialCorrelation(alternating)
			str := SerialCorrelation(streaky)
			return alt.ZScore > zCritical && alt.Verdict == VerdictAlternating &&
				str.ZScore < -zCritical && str.Verdict == VerdictStreaky &&
				ClassifyZ(alt.ZScore) == alt.Verdict && ClassifyZ(str.ZScore) == str.Verdict
		},
		gen.IntRange(20, 400),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property: shifting every R-multiple up by the same amount leaves the
// standard deviation unchanged, so SQN cannot fall. SQN is not monotone
// under raising a single R in general, since that can widen the spread.
func TestProperty_SQNMonotonicUnderUniformShift(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("uniform R increase never lowers SQN", prop.ForAll(
		func(rs []float64, delta float64) bool {
			shifted := make([]float64, len(rs))
			for i, r := range rs {
				shifted[i] = r + delta
			}
			before := SQN(rs, DefaultSaturation)
			after := SQN(shifted, DefaultSaturation)
			return after.SQN >= before.SQN-1e-9*math.Max(1, math.Abs(before.SQN))
		},
		gen.IntRange(2, 40).FlatMap(func(n interface{}) gopter.Gen {
			return gen.SliceOfN(n.(int), gen.Float64Range(-5, 5))
		}, reflect.TypeOf([]float64{})),
		gen.Float64Range(0.01, 5),
	))

	properties.TestingRun(t)
}
