package models

import "time"

// StatsSnapshot is the derived statistics panel for one account. It is
// recomputed on every request and never persisted.
type StatsSnapshot struct {
	AccountID  int64     `json:"account_id" yaml:"account_id"`
	ComputedAt time.Time `json:"computed_at" yaml:"computed_at"`

	TotalPnL         float64 `json:"total_pnl" yaml:"total_pnl"`
	WinRate          float64 `json:"win_rate" yaml:"win_rate"`
	TotalTrades      int     `json:"total_trades" yaml:"total_trades"`
	ProfitableTrades int     `json:"profitable_trades" yaml:"profitable_trades"`
	OpenTrades       int     `json:"open_trades" yaml:"open_trades"`

	OptimalF       float64          `json:"optimal_f" yaml:"optimal_f"`
	OptimalFDetail OptimalFResult   `json:"optimal_f_detail" yaml:"optimal_f_detail"`
	SQN            SQNResult        `json:"sqn" yaml:"sqn"`
	ZScore         ZScoreResult     `json:"z_score" yaml:"z_score"`
	ProfitFactor   float64          `json:"profit_factor" yaml:"profit_factor"`
	RExpectancy    float64          `json:"r_expectancy" yaml:"r_expectancy"`
	RecoveryFactor float64          `json:"recovery_factor" yaml:"recovery_factor"`
	MaxDrawdown    float64          `json:"max_drawdown" yaml:"max_drawdown"`
	AHPR           float64          `json:"ahpr" yaml:"ahpr"`
	MAEMFEAnalysis ExcursionSummary `json:"mae_mfe_analysis" yaml:"mae_mfe_analysis"`

	EquityCurve []EquityPoint `json:"equity_curve" yaml:"equity_curve"`
	TagStats    []TagStat     `json:"tag_stats" yaml:"tag_stats"`

	Recommendations []string              `json:"recommendations" yaml:"recommendations"`
	Flags           map[string]MetricFlag `json:"flags" yaml:"flags"`
}

// OptimalFResult is the outcome of the fixed-fraction grid search.
type OptimalFResult struct {
	OptimalF      float64    `json:"optimal_f" yaml:"optimal_f"`
	GeometricMean float64    `json:"geometric_mean" yaml:"geometric_mean"`
	TWR           float64    `json:"twr" yaml:"twr"`
	NoLosses      bool       `json:"no_losses" yaml:"no_losses"`
	Flag          MetricFlag `json:"flag,omitempty" yaml:"flag,omitempty"`
}

// SQNResult is the System Quality Number with its rating band.
type SQNResult struct {
	SQN    float64    `json:"sqn" yaml:"sqn"`
	Rating string     `json:"rating" yaml:"rating"`
	Flag   MetricFlag `json:"flag,omitempty" yaml:"flag,omitempty"`
}

// ZScoreResult is the runs-test outcome over the win/loss sequence.
type ZScoreResult struct {
	ZScore      float64    `json:"z_score" yaml:"z_score"`
	Verdict     string     `json:"verdict" yaml:"verdict"`
	Description string     `json:"description" yaml:"description"`
	Runs        int        `json:"runs" yaml:"runs"`
	Flag        MetricFlag `json:"flag,omitempty" yaml:"flag,omitempty"`
}

// ExcursionSummary aggregates MAE/MFE ratios relative to risk.
type ExcursionSummary struct {
	AvgMAERatio     float64    `json:"avg_mae_ratio" yaml:"avg_mae_ratio"`
	AvgMFERatio     float64    `json:"avg_mfe_ratio" yaml:"avg_mfe_ratio"`
	Recommendations []string   `json:"recommendations" yaml:"recommendations"`
	Flag            MetricFlag `json:"flag,omitempty" yaml:"flag,omitempty"`
}

// EquityPoint is one point of the cumulative balance series.
type EquityPoint struct {
	Date    time.Time `json:"date" yaml:"date"`
	Balance float64   `json:"balance" yaml:"balance"`
}

// TagStat is the per-tag performance rollup.
type TagStat struct {
	Tag     string  `json:"tag" yaml:"tag"`
	PnL     float64 `json:"pnl" yaml:"pnl"`
	WinRate float64 `json:"win_rate" yaml:"win_rate"`
	Count   int     `json:"count" yaml:"count"`
}
