// Package journal is the ingestion boundary of the trade journal. It
// validates and normalizes raw trade input, computes realized PnL on close,
// converts broker execution files into trades and hands clean records to
// the store and the analytics engine.
package journal

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// Validation limits
const (
	maxTags      = 20
	maxTagLength = 50
	maxTextField = 2000
)

// Symbol pattern: uppercase letters, digits and the separators used by
// equity, futures and crypto tickers.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9&._:/-]{1,32}$`)

// TradeInput is a trade as submitted by a user or client. Optional fields
// are nil when absent.
type TradeInput struct {
	AccountID  int64            `json:"account_id"`
	Symbol     string           `json:"symbol"`
	AssetName  string           `json:"asset_name"`
	AssetType  string           `json:"asset_type"`
	Direction  models.Direction `json:"direction"`
	EntryPrice float64          `json:"entry_price"`
	Quantity   float64          `json:"quantity"`
	Leverage   float64          `json:"leverage"`
	Commission float64          `json:"commission"`
	StopLoss   *float64         `json:"stop_loss"`
	TakeProfit *float64         `json:"take_profit"`
	RiskAmount *float64         `json:"risk_amount"`
	EntryAt    *time.Time       `json:"entry_at"`
	SetupName  string           `json:"setup_name"`
	Timeframe  string           `json:"timeframe"`
	Notes      string           `json:"notes"`
	Tags       []string         `json:"tags"`

	// Exit, when set, records the trade as already closed.
	Exit *CloseInput `json:"exit,omitempty"`
}

// CloseInput carries the outcome of a trade.
type CloseInput struct {
	ExitPrice  float64    `json:"exit_price"`
	ExitAt     *time.Time `json:"exit_at"`
	ExitReason string     `json:"exit_reason"`
	MAEPrice   *float64   `json:"mae_price"`
	MFEPrice   *float64   `json:"mfe_price"`
}

// Validator checks raw input before it becomes a TradeRecord.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateTrade validates a new trade.
func (v *Validator) ValidateTrade(in TradeInput) error {
	if in.AccountID <= 0 {
		return apperrors.NewValidationError("account_id", in.AccountID, "account ID must be positive")
	}
	if err := v.ValidateSymbol(in.Symbol); err != nil {
		return err
	}
	if !models.Direction(strings.ToLower(string(in.Direction))).Valid() {
		return apperrors.NewValidationError("direction", in.Direction, "direction must be long or short")
	}
	if err := positive("entry_price", in.EntryPrice); err != nil {
		return err
	}
	if err := positive("quantity", in.Quantity); err != nil {
		return err
	}
	if err := nonNegative("leverage", in.Leverage); err != nil {
		return err
	}
	if err := nonNegative("commission", in.Commission); err != nil {
		return err
	}
	if in.StopLoss != nil {
		if err := positive("stop_loss", *in.StopLoss); err != nil {
			return err
		}
	}
	if in.TakeProfit != nil {
		if err := positive("take_profit", *in.TakeProfit); err != nil {
			return err
		}
	}
	if in.RiskAmount != nil {
		if err := nonNegative("risk_amount", *in.RiskAmount); err != nil {
			return err
		}
	}
	if len(in.Notes) > maxTextField {
		return apperrors.NewValidationError("notes", len(in.Notes), fmt.Sprintf("notes too long (max %d characters)", maxTextField))
	}
	if err := v.ValidateTags(in.Tags); err != nil {
		return err
	}
	if in.Exit != nil {
		entryAt := time.Time{}
		if in.EntryAt != nil {
			entryAt = *in.EntryAt
		}
		return v.ValidateClose(*in.Exit, entryAt)
	}
	return nil
}

// ValidateClose validates the exit of a trade that entered at entryAt.
func (v *Validator) ValidateClose(in CloseInput, entryAt time.Time) error {
	if err := positive("exit_price", in.ExitPrice); err != nil {
		return err
	}
	if in.ExitAt != nil && !entryAt.IsZero() && in.ExitAt.Before(entryAt) {
		return apperrors.NewValidationError("exit_at", *in.ExitAt, "exit time precedes entry time")
	}
	if in.MAEPrice != nil {
		if err := positive("mae_price", *in.MAEPrice); err != nil {
			return err
		}
	}
	if in.MFEPrice != nil {
		if err := positive("mfe_price", *in.MFEPrice); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSymbol validates a trading symbol.
func (v *Validator) ValidateSymbol(symbol string) error {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	if symbol == "" {
		return apperrors.NewValidationError("symbol", symbol, "symbol cannot be empty")
	}
	if !symbolPattern.MatchString(symbol) {
		return apperrors.NewValidationError("symbol", symbol, "invalid symbol format")
	}
	return nil
}

// ValidateTags validates a tag list.
func (v *Validator) ValidateTags(tags []string) error {
	if len(tags) > maxTags {
		return apperrors.NewValidationError("tags", len(tags), fmt.Sprintf("too many tags (max %d)", maxTags))
	}
	for _, tag := range tags {
		if len(strings.TrimSpace(tag)) > maxTagLength {
			return apperrors.NewValidationError("tags", tag, fmt.Sprintf("tag too long (max %d characters)", maxTagLength))
		}
	}
	return nil
}

func positive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return apperrors.NewValidationError(field, v, field+" must be a positive number")
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return apperrors.NewValidationError(field, v, field+" must not be negative")
	}
	return nil
}

// Normalize converts validated input into an open TradeRecord: symbol
// upper-cased, leverage 0 treated as 1, tags trimmed, deduplicated and
// sorted. A zero EntryAt defaults to now.
func Normalize(in TradeInput, now time.Time) models.TradeRecord {
	t := models.TradeRecord{
		AccountID:  in.AccountID,
		Symbol:     strings.TrimSpace(strings.ToUpper(in.Symbol)),
		AssetName:  strings.TrimSpace(in.AssetName),
		AssetType:  strings.TrimSpace(in.AssetType),
		Direction:  models.Direction(strings.ToLower(string(in.Direction))),
		EntryPrice: in.EntryPrice,
		Quantity:   in.Quantity,
		Leverage:   in.Leverage,
		Commission: in.Commission,
		StopLoss:   in.StopLoss,
		TakeProfit: in.TakeProfit,
		RiskAmount: in.RiskAmount,
		EntryAt:    now,
		SetupName:  strings.TrimSpace(in.SetupName),
		Timeframe:  strings.TrimSpace(in.Timeframe),
		Notes:      in.Notes,
		Tags:       NormalizeTags(in.Tags),
	}
	if t.Leverage == 0 {
		t.Leverage = 1
	}
	if in.EntryAt != nil && !in.EntryAt.IsZero() {
		t.EntryAt = *in.EntryAt
	}
	return t
}

// NormalizeTags trims, deduplicates and sorts tags, dropping empty ones.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
