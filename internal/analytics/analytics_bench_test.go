package analytics

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"trade-journal/internal/models"
)

func benchTrades(n int) []models.TradeRecord {
	rng := rand.New(rand.NewSource(42))
	trades := make([]models.TradeRecord, n)
	for i := range trades {
		pnl := rng.NormFloat64()*150 + 20
		trades[i] = closedTrade(int64(i+1), pnl, i%365, withRisk(100), withTags("setup", "tf"))
	}
	return trades
}

func benchmarkSnapshot(b *testing.B, n int, parallel bool) {
	cfg := DefaultConfig()
	cfg.Parallel = parallel
	engine := NewEngine(cfg, zerolog.Nop())
	trades := benchTrades(n)
	capital := 100000.0

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.ComputeSnapshot(1, trades, &capital); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkComputeSnapshot_1k_Sequential(b *testing.B)  { benchmarkSnapshot(b, 1000, false) }
func BenchmarkComputeSnapshot_1k_Parallel(b *testing.B)    { benchmarkSnapshot(b, 1000, true) }
func BenchmarkComputeSnapshot_10k_Sequential(b *testing.B) { benchmarkSnapshot(b, 10000, false) }
func BenchmarkComputeSnapshot_10k_Parallel(b *testing.B)   { benchmarkSnapshot(b, 10000, true) }

func BenchmarkOptimalF(b *testing.B) {
	trades := benchTrades(1000)
	pnls := make([]float64, len(trades))
	for i, t := range trades {
		pnls[i] = *t.PnL
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		OptimalF(pnls, DefaultFStep)
	}
}
