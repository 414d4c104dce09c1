// Package notify publishes journal events to interested channels.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

// Notifier defines the interface for publishing journal events.
type Notifier interface {
	Publish(ctx context.Context, e Event) error
}

// Channel defines the interface for a single event destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, e Event) error
	IsEnabled() bool
}

// EventType identifies a journal event. It doubles as the subject suffix.
type EventType string

const (
	EventTradeClosed    EventType = "trade.closed"
	EventTradesImported EventType = "trades.imported"
)

// Event is a journal event. Fields not relevant to the type are omitted.
type Event struct {
	Type      EventType `json:"type"`
	AccountID int64     `json:"account_id"`
	Timestamp time.Time `json:"timestamp"`

	TradeID int64    `json:"trade_id,omitempty"`
	Symbol  string   `json:"symbol,omitempty"`
	PnL     *float64 `json:"pnl,omitempty"`

	BatchID  string `json:"batch_id,omitempty"`
	Source   string `json:"source,omitempty"`
	Imported int    `json:"imported,omitempty"`
	Skipped  int    `json:"skipped,omitempty"`
}

// TradeClosed builds the event for a trade that has just been closed.
func TradeClosed(t *models.TradeRecord) Event {
	e := Event{
		Type:      EventTradeClosed,
		AccountID: t.AccountID,
		TradeID:   t.ID,
		Symbol:    t.Symbol,
		PnL:       t.PnL,
	}
	if t.ExitAt != nil {
		e.Timestamp = *t.ExitAt
	}
	return e
}

// TradesImported builds the event for a completed import batch.
func TradesImported(accountID int64, batchID, source string, imported, skipped int) Event {
	return Event{
		Type:      EventTradesImported,
		AccountID: accountID,
		BatchID:   batchID,
		Source:    source,
		Imported:  imported,
		Skipped:   skipped,
	}
}

// MultiNotifier sends events to multiple channels.
type MultiNotifier struct {
	channels []Channel
	mu       sync.RWMutex
	now      func() time.Time
}

// NewMultiNotifier creates a MultiNotifier over the given channels.
func NewMultiNotifier(channels ...Channel) *MultiNotifier {
	return &MultiNotifier{channels: channels, now: time.Now}
}

// AddChannel adds a channel.
func (mn *MultiNotifier) AddChannel(ch Channel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

// Publish sends the event to every enabled channel. Every channel is tried;
// failures are collected into one error wrapping ErrPublishFailed.
func (mn *MultiNotifier) Publish(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = mn.now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var errs []string
	for _, ch := range channels {
		if !ch.IsEnabled() {
			continue
		}
		if err := ch.Send(ctx, e); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
		}
	}

	if len(errs) > 0 {
		return apperrors.Wrap(apperrors.ErrPublishFailed, strings.Join(errs, "; "))
	}
	return nil
}

// LogChannel writes events to a zerolog logger.
type LogChannel struct {
	logger zerolog.Logger
}

// NewLogChannel creates a log channel.
func NewLogChannel(logger zerolog.Logger) *LogChannel {
	return &LogChannel{logger: logger.With().Str("component", "events").Logger()}
}

func (c *LogChannel) Name() string    { return "log" }
func (c *LogChannel) IsEnabled() bool { return true }

// Send logs the event at info level.
func (c *LogChannel) Send(_ context.Context, e Event) error {
	ev := c.logger.Info().
		Str("event", string(e.Type)).
		Int64("account_id", e.AccountID).
		Time("at", e.Timestamp)

	switch e.Type {
	case EventTradeClosed:
		ev = ev.Int64("trade_id", e.TradeID).Str("symbol", e.Symbol)
		if e.PnL != nil {
			ev = ev.Float64("pnl", *e.PnL)
		}
	case EventTradesImported:
		ev = ev.Str("batch_id", e.BatchID).
			Str("source", e.Source).
			Int("imported", e.Imported).
			Int("skipped", e.Skipped)
	}
	ev.Msg("Journal event")
	return nil
}

// NoOpNotifier discards every event.
type NoOpNotifier struct{}

// Publish does nothing.
func (NoOpNotifier) Publish(context.Context, Event) error { return nil }
