package journal

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"trade-journal/internal/analytics"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/logging"
	"trade-journal/internal/models"
	"trade-journal/internal/notify"
	"trade-journal/internal/store"
)

// Service ties the ingestion boundary to persistence, analytics and event
// publishing.
type Service struct {
	store     store.TradeStore
	engine    *analytics.Engine
	notifier  notify.Notifier
	validator *Validator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a new journal service. A nil notifier disables events.
func NewService(st store.TradeStore, engine *analytics.Engine, notifier notify.Notifier, logger zerolog.Logger) *Service {
	if notifier == nil {
		notifier = notify.NoOpNotifier{}
	}
	return &Service{
		store:     st,
		engine:    engine,
		notifier:  notifier,
		validator: NewValidator(),
		logger:    logger.With().Str("component", "journal").Logger(),
		now:       time.Now,
	}
}

func (s *Service) log(ctx context.Context, operation string) zerolog.Logger {
	l := logging.WithOperation(s.logger, operation)
	if id := logging.RequestID(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return l
}

// CreateTrade validates and stores a new trade. When the input carries an
// exit the trade is stored closed.
func (s *Service) CreateTrade(ctx context.Context, in TradeInput) (*models.TradeRecord, error) {
	if err := s.validator.ValidateTrade(in); err != nil {
		return nil, err
	}

	now := s.now()
	trade := Normalize(in, now)
	if in.Exit != nil {
		ApplyClose(&trade, *in.Exit, now)
		if trade.ExitAt.Before(trade.EntryAt) {
			return nil, apperrors.NewValidationError("exit_at", *trade.ExitAt, "exit time precedes entry time")
		}
	}

	if err := s.store.CreateTrade(ctx, &trade); err != nil {
		return nil, err
	}

	logger := logging.WithTradeID(s.log(ctx, "create_trade"), trade.ID)
	logger.Info().
		Int64("account_id", trade.AccountID).
		Str("symbol", trade.Symbol).
		Str("direction", string(trade.Direction)).
		Bool("closed", trade.IsClosed()).
		Msg("Trade recorded")

	if trade.IsClosed() {
		s.publish(ctx, notify.TradeClosed(&trade))
	}
	return &trade, nil
}

// CloseTrade records the exit of an open trade and computes its PnL.
func (s *Service) CloseTrade(ctx context.Context, id int64, in CloseInput) (*models.TradeRecord, error) {
	trade, err := s.store.GetTrade(ctx, id)
	if err != nil {
		return nil, err
	}
	if trade.IsClosed() {
		return nil, apperrors.NewDataError("close", id, "trade is not open", apperrors.ErrTradeAlreadyClosed)
	}
	if err := s.validator.ValidateClose(in, trade.EntryAt); err != nil {
		return nil, err
	}

	ApplyClose(trade, in, s.now())
	if trade.ExitAt.Before(trade.EntryAt) {
		return nil, apperrors.NewValidationError("exit_at", *trade.ExitAt, "exit time precedes entry time")
	}
	if err := s.store.CloseTrade(ctx, trade); err != nil {
		return nil, err
	}

	logging.LogTradeClosed(s.log(ctx, "close_trade"), trade.ID, trade.Symbol, *trade.ExitPrice, *trade.PnL)
	s.publish(ctx, notify.TradeClosed(trade))
	return trade, nil
}

// GetTrade returns one trade.
func (s *Service) GetTrade(ctx context.Context, id int64) (*models.TradeRecord, error) {
	return s.store.GetTrade(ctx, id)
}

// ListTrades returns trades matching the filter, newest first.
func (s *Service) ListTrades(ctx context.Context, filter store.TradeFilter) ([]models.TradeRecord, error) {
	if filter.Offset < 0 {
		return nil, apperrors.NewValidationError("skip", filter.Offset, "skip must not be negative")
	}
	if filter.Limit < 0 {
		return nil, apperrors.NewValidationError("limit", filter.Limit, "limit must not be negative")
	}
	return s.store.ListTrades(ctx, filter)
}

// Snapshot computes the statistics panel for an account.
func (s *Service) Snapshot(ctx context.Context, accountID int64, startingCapital *float64) (*models.StatsSnapshot, error) {
	if accountID <= 0 {
		return nil, apperrors.NewValidationError("account_id", accountID, "account ID must be positive")
	}
	if startingCapital != nil && (math.IsNaN(*startingCapital) || math.IsInf(*startingCapital, 0)) {
		return nil, apperrors.NewValidationError("starting_capital", *startingCapital, "starting capital must be a finite number")
	}
	trades, err := s.store.ListTrades(ctx, store.TradeFilter{AccountID: accountID})
	if err != nil {
		return nil, err
	}

	snap, err := s.engine.ComputeSnapshot(accountID, trades, startingCapital)
	if err != nil {
		return nil, err
	}
	snap.ComputedAt = s.now().UTC()

	logging.LogSnapshot(logging.WithAccount(s.log(ctx, "snapshot"), accountID),
		accountID, snap.TotalTrades, snap.TotalPnL, len(snap.Flags))
	return snap, nil
}

// Import converts an execution CSV into trades and stores them as one
// batch.
func (s *Service) Import(ctx context.Context, accountID int64, r io.Reader, source string) (*ImportResult, error) {
	if accountID <= 0 {
		return nil, apperrors.NewValidationError("account_id", accountID, "account ID must be positive")
	}
	if source == "" {
		source = "csv"
	}
	logger := logging.WithAccount(s.log(ctx, "import"), accountID)

	execs, warnings, err := ParseExecutions(r, source)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn().Msg(w)
	}

	trades := MatchExecutions(accountID, execs, source)
	batch := make([]*models.TradeRecord, len(trades))
	for i := range trades {
		batch[i] = &trades[i]
	}
	if err := s.store.CreateTrades(ctx, batch); err != nil {
		return nil, err
	}

	res := &ImportResult{
		BatchID:  ulid.Make().String(),
		Source:   source,
		Skipped:  len(warnings),
		Warnings: warnings,
		Trades:   trades,
	}
	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	if res.Trades == nil {
		res.Trades = []models.TradeRecord{}
	}
	for i := range trades {
		if trades[i].IsClosed() {
			res.Closed++
		} else {
			res.Open++
		}
	}

	logging.LogImport(logger, res.BatchID, source, res.Imported(), res.Skipped)
	s.publish(ctx, notify.TradesImported(accountID, res.BatchID, source, res.Imported(), res.Skipped))
	return res, nil
}

// Export writes every trade of an account as CSV.
func (s *Service) Export(ctx context.Context, accountID int64, w io.Writer) (int, error) {
	if accountID <= 0 {
		return 0, apperrors.NewValidationError("account_id", accountID, "account ID must be positive")
	}
	trades, err := s.store.ListTrades(ctx, store.TradeFilter{AccountID: accountID})
	if err != nil {
		return 0, err
	}
	if err := WriteTradesCSV(w, trades); err != nil {
		return 0, apperrors.NewDataError("export", 0, "writing csv", err)
	}
	return len(trades), nil
}

// publish sends an event; failures are logged and never fail the caller.
func (s *Service) publish(ctx context.Context, e notify.Event) {
	if err := s.notifier.Publish(ctx, e); err != nil {
		logger := s.log(ctx, "publish")
		logger.Warn().Err(err).Str("event", string(e.Type)).Msg("Event not delivered")
	}
}
