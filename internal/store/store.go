// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"trade-journal/internal/models"
)

// TradeStore defines the interface for trade persistence.
type TradeStore interface {
	// CreateTrade inserts a trade and sets its ID.
	CreateTrade(ctx context.Context, trade *models.TradeRecord) error
	// CreateTrades inserts a batch in one transaction and sets their IDs.
	CreateTrades(ctx context.Context, trades []*models.TradeRecord) error
	GetTrade(ctx context.Context, id int64) (*models.TradeRecord, error)
	// CloseTrade records the exit fields of an open trade. It fails with
	// ErrTradeAlreadyClosed when the stored trade is already closed.
	CloseTrade(ctx context.Context, trade *models.TradeRecord) error
	ListTrades(ctx context.Context, filter TradeFilter) ([]models.TradeRecord, error)

	// Lifecycle
	Close() error
}

// TradeFilter represents filters for querying trades.
type TradeFilter struct {
	AccountID  int64 // 0 = all accounts
	Symbol     string
	ClosedOnly bool
	OpenOnly   bool
	Offset     int
	Limit      int // 0 = no limit
}
