package analytics

import (
	"math"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// Config tunes the engine. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	FStep      float64
	Saturation float64
	Excursion  ExcursionPolicy

	// Parallel evaluates independent calculators concurrently.
	Parallel bool
	Workers  int
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		FStep:      DefaultFStep,
		Saturation: DefaultSaturation,
		Excursion:  DefaultExcursionPolicy(),
		Parallel:   false,
		Workers:    runtime.NumCPU(),
	}
}

// Engine composes the metric calculators into one StatsSnapshot. It holds
// no state between calls and is safe for concurrent use.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
}

// NewEngine creates a new engine. Invalid numeric settings fall back to
// their defaults.
func NewEngine(cfg Config, logger zerolog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.FStep <= 0 || cfg.FStep > maxF {
		cfg.FStep = def.FStep
	}
	if cfg.Saturation <= 1 {
		cfg.Saturation = def.Saturation
	}
	if cfg.Excursion.MAERatioThreshold < 0 {
		cfg.Excursion.MAERatioThreshold = def.Excursion.MAERatioThreshold
	}
	if cfg.Excursion.MFERMultiplier < 0 {
		cfg.Excursion.MFERMultiplier = def.Excursion.MFERMultiplier
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	return &Engine{cfg: cfg, logger: logger.With().Str("component", "analytics").Logger()}
}

// ComputeSnapshot is a convenience wrapper over a default engine.
func ComputeSnapshot(accountID int64, trades []models.TradeRecord, startingCapital *float64) (*models.StatsSnapshot, error) {
	return NewEngine(DefaultConfig(), zerolog.Nop()).ComputeSnapshot(accountID, trades, startingCapital)
}

// results collects the calculator outputs; each field has one writer.
type results struct {
	curve       []models.EquityPoint
	maxDrawdown float64
	efficiency  Efficiency
	optimalF    models.OptimalFResult
	sqn         models.SQNResult
	zScore      models.ZScoreResult
	excursion   models.ExcursionSummary
	tags        []models.TagStat
}

// ComputeSnapshot derives the statistics panel for one account from its
// trade history. Open trades are counted but take no part in any metric.
// A non-finite starting capital is treated as 0.
// The only error is ErrNilTradeList; small or degenerate histories produce
// flagged neutral values instead.
func (e *Engine) ComputeSnapshot(accountID int64, trades []models.TradeRecord, startingCapital *float64) (*models.StatsSnapshot, error) {
	if trades == nil {
		return nil, apperrors.ErrNilTradeList
	}
	start := time.Now()

	capital := 0.0
	if startingCapital != nil && !math.IsNaN(*startingCapital) && !math.IsInf(*startingCapital, 0) {
		capital = *startingCapital
	}

	closed := NormalizeClosed(trades)
	res := e.run(closed, capital)

	snap := &models.StatsSnapshot{
		AccountID:   accountID,
		TotalTrades: len(closed),
		OpenTrades:  len(trades) - len(closed),

		OptimalF:       res.optimalF.OptimalF,
		OptimalFDetail: res.optimalF,
		SQN:            res.sqn,
		ZScore:         res.zScore,
		ProfitFactor:   res.efficiency.ProfitFactor,
		RExpectancy:    res.efficiency.RExpectancy,
		RecoveryFactor: res.efficiency.RecoveryFactor,
		MaxDrawdown:    res.maxDrawdown,
		AHPR:           res.efficiency.AHPR,
		MAEMFEAnalysis: res.excursion,
		EquityCurve:    res.curve,
		TagStats:       res.tags,
		Flags:          make(map[string]models.MetricFlag),
	}

	for _, t := range closed {
		snap.TotalPnL += t.PnL
		if t.Win {
			snap.ProfitableTrades++
		}
	}
	if snap.TotalTrades > 0 {
		snap.WinRate = 100 * float64(snap.ProfitableTrades) / float64(snap.TotalTrades)
	}

	setFlag(snap.Flags, models.MetricOptimalF, res.optimalF.Flag)
	setFlag(snap.Flags, models.MetricSQN, res.sqn.Flag)
	setFlag(snap.Flags, models.MetricZScore, res.zScore.Flag)
	setFlag(snap.Flags, models.MetricProfitFactor, res.efficiency.ProfitFactorFlag)
	setFlag(snap.Flags, models.MetricRExpectancy, res.efficiency.RExpectancyFlag)
	setFlag(snap.Flags, models.MetricRecoveryFactor, res.efficiency.RecoveryFactorFlag)
	setFlag(snap.Flags, models.MetricAHPR, res.efficiency.AHPRFlag)
	setFlag(snap.Flags, models.MetricMAEMFE, res.excursion.Flag)

	snap.Recommendations = recommendations(res)

	e.logger.Debug().
		Int64("account_id", accountID).
		Int("closed", snap.TotalTrades).
		Int("open", snap.OpenTrades).
		Int("flags", len(snap.Flags)).
		Bool("parallel", e.cfg.Parallel).
		Dur("elapsed", time.Since(start)).
		Msg("Snapshot computed")

	return snap, nil
}

// run evaluates the calculators, optionally on a bounded goroutine pool.
// Efficiency shares a task with the equity curve because it needs the
// curve's drawdown.
func (e *Engine) run(closed []NormalizedTrade, capital float64) results {
	var res results
	tasks := []func(){
		func() {
			res.curve, res.maxDrawdown = EquityCurve(closed, capital)
			res.efficiency = ComputeEfficiency(closed, res.maxDrawdown, e.cfg.Saturation)
		},
		func() { res.optimalF = OptimalF(PnLs(closed), e.cfg.FStep) },
		func() { res.sqn = SQN(RMultiples(closed), e.cfg.Saturation) },
		func() { res.zScore = SerialCorrelation(Outcomes(closed)) },
		func() { res.excursion = Excursions(closed, e.cfg.Excursion) },
		func() { res.tags = TagStats(closed) },
	}

	if !e.cfg.Parallel {
		for _, task := range tasks {
			task()
		}
		return res
	}

	p := pool.New().WithMaxGoroutines(e.cfg.Workers)
	for _, task := range tasks {
		p.Go(task)
	}
	p.Wait()
	return res
}

func setFlag(flags map[string]models.MetricFlag, metric string, flag models.MetricFlag) {
	if flag != "" {
		flags[metric] = flag
	}
}

func recommendations(res results) []string {
	recs := make([]string, 0, len(res.excursion.Recommendations)+3)
	recs = append(recs, res.excursion.Recommendations...)

	if v := res.zScore.Verdict; v == VerdictStreaky || v == VerdictAlternating {
		recs = append(recs, res.zScore.Description)
	}

	switch {
	case res.optimalF.NoLosses:
		recs = append(recs, "No losing trades recorded yet. Optimal f cannot be sized and real risk may be higher than the record shows.")
	case res.optimalF.Flag == "" && res.optimalF.GeometricMean <= 1:
		recs = append(recs, "Negative expectancy: no positive fraction of capital grows the account with the current win/loss profile.")
	}

	if res.efficiency.AHPRFlag == models.FlagRuinDetected {
		recs = append(recs, "At least one trade lost its entire entry capital. Review leverage and position sizing.")
	}
	return recs
}
