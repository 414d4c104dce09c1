package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func openTrade(account int64, symbol string, entryAt time.Time) *models.TradeRecord {
	return &models.TradeRecord{
		AccountID:  account,
		Symbol:     symbol,
		Direction:  models.DirectionLong,
		EntryPrice: 250.5,
		Quantity:   40,
		Leverage:   1,
		Commission: 12.5,
		StopLoss:   models.Float(245),
		EntryAt:    entryAt,
		SetupName:  "opening range",
		Tags:       []string{"breakout", "morning"},
	}
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	entry := time.Date(2024, 5, 6, 9, 20, 0, 123000000, time.UTC)

	trade := openTrade(3, "HDFCBANK", entry)
	trade.RiskAmount = models.Float(220)
	require.NoError(t, s.CreateTrade(ctx, trade))
	require.NotZero(t, trade.ID)

	got, err := s.GetTrade(ctx, trade.ID)
	require.NoError(t, err)

	assert.Equal(t, trade.ID, got.ID)
	assert.Equal(t, int64(3), got.AccountID)
	assert.Equal(t, "HDFCBANK", got.Symbol)
	assert.Equal(t, models.DirectionLong, got.Direction)
	assert.True(t, entry.Equal(got.EntryAt))
	assert.Equal(t, 245.0, *got.StopLoss)
	assert.Equal(t, 220.0, *got.RiskAmount)
	assert.Nil(t, got.TakeProfit)
	assert.Nil(t, got.ExitAt)
	assert.Nil(t, got.PnL)
	assert.False(t, got.IsClosed())
	assert.Equal(t, []string{"breakout", "morning"}, got.Tags)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetTrade(context.Background(), 404)
	assert.ErrorIs(t, err, apperrors.ErrTradeNotFound)
}

func TestSQLiteStore_CloseTrade(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	entry := time.Date(2024, 5, 6, 9, 20, 0, 0, time.UTC)

	trade := openTrade(1, "TCS", entry)
	require.NoError(t, s.CreateTrade(ctx, trade))

	exit := entry.Add(3 * time.Hour)
	trade.ExitPrice = models.Float(260)
	trade.ExitAt = &exit
	trade.PnL = models.Float(365.5)
	trade.ExitReason = "target"
	trade.MFEPrice = models.Float(262)
	require.NoError(t, s.CloseTrade(ctx, trade))

	got, err := s.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	assert.True(t, got.IsClosed())
	assert.Equal(t, 365.5, got.RealizedPnL())
	assert.True(t, exit.Equal(*got.ExitAt))
	assert.Equal(t, "target", got.ExitReason)
	assert.Equal(t, 262.0, *got.MFEPrice)
	assert.Nil(t, got.MAEPrice)

	err = s.CloseTrade(ctx, trade)
	assert.ErrorIs(t, err, apperrors.ErrTradeAlreadyClosed)

	missing := *trade
	missing.ID = 999
	assert.ErrorIs(t, s.CloseTrade(ctx, &missing), apperrors.ErrTradeNotFound)
}

func TestSQLiteStore_ListTrades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	batch := []*models.TradeRecord{
		openTrade(1, "INFY", base),
		openTrade(1, "TCS", base.Add(time.Hour)),
		openTrade(1, "INFY", base.Add(2*time.Hour)),
		openTrade(2, "INFY", base.Add(3*time.Hour)),
	}
	exit := base.Add(90 * time.Minute)
	batch[0].ExitAt = &exit
	batch[0].ExitPrice = models.Float(255)
	batch[0].PnL = models.Float(167.5)
	require.NoError(t, s.CreateTrades(ctx, batch))
	for _, tr := range batch {
		assert.NotZero(t, tr.ID)
	}

	all, err := s.ListTrades(ctx, TradeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, batch[3].ID, all[0].ID, "newest entry first")

	account1, err := s.ListTrades(ctx, TradeFilter{AccountID: 1})
	require.NoError(t, err)
	assert.Len(t, account1, 3)

	infy, err := s.ListTrades(ctx, TradeFilter{AccountID: 1, Symbol: "infy"})
	require.NoError(t, err)
	assert.Len(t, infy, 2)

	closed, err := s.ListTrades(ctx, TradeFilter{AccountID: 1, ClosedOnly: true})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, batch[0].ID, closed[0].ID)

	open, err := s.ListTrades(ctx, TradeFilter{AccountID: 1, OpenOnly: true})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	page, err := s.ListTrades(ctx, TradeFilter{Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, batch[2].ID, page[0].ID)
	assert.Equal(t, batch[1].ID, page[1].ID)

	tail, err := s.ListTrades(ctx, TradeFilter{Offset: 3})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, batch[0].ID, tail[0].ID)

	none, err := s.ListTrades(ctx, TradeFilter{AccountID: 42})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSQLiteStore_NilTagsStoredEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	trade := openTrade(1, "SBIN", time.Now())
	trade.Tags = nil
	require.NoError(t, s.CreateTrade(ctx, trade))

	got, err := s.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
}
