package models

import "time"

// TradeRecord is a single journaled position. Optional numeric fields are
// nil when absent. A record is closed iff both ExitAt and PnL are set.
type TradeRecord struct {
	ID        int64 `json:"id" yaml:"id"`
	AccountID int64 `json:"account_id" yaml:"account_id"`

	Symbol    string    `json:"symbol" yaml:"symbol"`
	AssetName string    `json:"asset_name,omitempty" yaml:"asset_name,omitempty"`
	AssetType string    `json:"asset_type,omitempty" yaml:"asset_type,omitempty"`
	Direction Direction `json:"direction" yaml:"direction"`

	EntryPrice float64  `json:"entry_price" yaml:"entry_price"`
	ExitPrice  *float64 `json:"exit_price" yaml:"exit_price"`
	ExitReason string   `json:"exit_reason,omitempty" yaml:"exit_reason,omitempty"`
	Quantity   float64  `json:"quantity" yaml:"quantity"`
	Leverage   float64  `json:"leverage" yaml:"leverage"`
	Commission float64  `json:"commission" yaml:"commission"`

	StopLoss   *float64 `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit *float64 `json:"take_profit" yaml:"take_profit"`
	RiskAmount *float64 `json:"risk_amount" yaml:"risk_amount"`

	EntryAt time.Time  `json:"entry_at" yaml:"entry_at"`
	ExitAt  *time.Time `json:"exit_at" yaml:"exit_at"`

	// PnL is realized profit net of commission.
	PnL *float64 `json:"pnl" yaml:"pnl"`

	MAEPrice *float64 `json:"mae_price" yaml:"mae_price"`
	MFEPrice *float64 `json:"mfe_price" yaml:"mfe_price"`

	SetupName string   `json:"setup_name,omitempty" yaml:"setup_name,omitempty"`
	Timeframe string   `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
	Notes     string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Tags      []string `json:"tags" yaml:"tags"`
}

// IsClosed reports whether the trade has a realized outcome.
func (t *TradeRecord) IsClosed() bool {
	return t.ExitAt != nil && t.PnL != nil
}

// RealizedPnL returns the realized PnL, or 0 for open trades.
func (t *TradeRecord) RealizedPnL() float64 {
	if t.PnL == nil {
		return 0
	}
	return *t.PnL
}

// Float returns a pointer to v. Handy for building records with optional fields.
func Float(v float64) *float64 {
	return &v
}

// Time returns a pointer to t.
func Time(t time.Time) *time.Time {
	return &t
}
