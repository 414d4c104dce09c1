package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/resilience"
)

type recordedMsg struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs []recordedMsg
	err  error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, recordedMsg{subject: subject, data: data})
	return nil
}

type stubChannel struct {
	name    string
	enabled bool
	err     error
	got     []Event
}

func (s *stubChannel) Name() string    { return s.name }
func (s *stubChannel) IsEnabled() bool { return s.enabled }
func (s *stubChannel) Send(_ context.Context, e Event) error {
	s.got = append(s.got, e)
	return s.err
}

func closedTrade() *models.TradeRecord {
	exit := time.Date(2024, 7, 1, 14, 0, 0, 0, time.UTC)
	return &models.TradeRecord{
		ID:        12,
		AccountID: 3,
		Symbol:    "RELIANCE",
		ExitAt:    &exit,
		PnL:       models.Float(-150.25),
	}
}

func TestNATSChannel_PublishesJSONOnPrefixedSubject(t *testing.T) {
	pub := &fakePublisher{}
	ch := newNATSChannel(pub, "desk")

	require.NoError(t, ch.Send(context.Background(), TradeClosed(closedTrade())))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "desk.trade.closed", pub.msgs[0].subject)

	var got Event
	require.NoError(t, json.Unmarshal(pub.msgs[0].data, &got))
	assert.Equal(t, EventTradeClosed, got.Type)
	assert.Equal(t, int64(12), got.TradeID)
	assert.Equal(t, "RELIANCE", got.Symbol)
	require.NotNil(t, got.PnL)
	assert.Equal(t, -150.25, *got.PnL)

	require.NoError(t, ch.Send(context.Background(), TradesImported(3, "01HX", "zerodha", 4, 1)))
	assert.Equal(t, "desk.trades.imported", pub.msgs[1].subject)
}

func TestNATSChannel_DefaultPrefixAndErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection closed")}
	ch := newNATSChannel(pub, "")

	assert.Equal(t, "journal.trade.closed", ch.Subject(EventTradeClosed))
	err := ch.Send(context.Background(), TradeClosed(closedTrade()))
	assert.ErrorContains(t, err, "connection closed")
	assert.NoError(t, ch.Close())
}

func TestMultiNotifier_FansOutAndCollectsErrors(t *testing.T) {
	ok := &stubChannel{name: "ok", enabled: true}
	failing := &stubChannel{name: "broken", enabled: true, err: errors.New("boom")}
	disabled := &stubChannel{name: "off", enabled: false}

	mn := NewMultiNotifier(ok, failing)
	mn.AddChannel(disabled)
	mn.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	err := mn.Publish(context.Background(), TradesImported(1, "b1", "csv", 2, 0))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPublishFailed))
	assert.Contains(t, err.Error(), "broken: boom")

	require.Len(t, ok.got, 1)
	require.Len(t, failing.got, 1, "a failing channel does not stop the others")
	assert.Empty(t, disabled.got)
	assert.False(t, ok.got[0].Timestamp.IsZero(), "missing timestamp is filled in")
}

func TestLogChannel_WritesStructuredEvent(t *testing.T) {
	var buf bytes.Buffer
	ch := NewLogChannel(zerolog.New(&buf))

	require.NoError(t, ch.Send(context.Background(), TradeClosed(closedTrade())))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "trade.closed", line["event"])
	assert.Equal(t, "RELIANCE", line["symbol"])
	assert.Equal(t, -150.25, line["pnl"])
	assert.Equal(t, "events", line["component"])
}

func TestNoOpNotifier(t *testing.T) {
	var n Notifier = NoOpNotifier{}
	assert.NoError(t, n.Publish(context.Background(), Event{Type: EventTradeClosed}))
}

func TestGuardedChannel_RetriesThenOpens(t *testing.T) {
	pub := &fakePublisher{err: errors.New("no responders")}
	g := Guard(newNATSChannel(pub, "journal"),
		resilience.BreakerConfig{FailureThreshold: 2, Cooldown: time.Hour},
		resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1})

	err := g.Send(context.Background(), TradeClosed(closedTrade()))
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, resilience.StateOpen, g.State())
	assert.Equal(t, "nats", g.Name())

	pub.err = nil
	err = g.Send(context.Background(), TradeClosed(closedTrade()))
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Empty(t, pub.msgs)
}

func TestGuardedChannel_RecoversWithinRetries(t *testing.T) {
	pub := &flakyPublisher{failures: 1}
	g := Guard(newNATSChannel(pub, "journal"), resilience.DefaultBreakerConfig(),
		resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 1})

	require.NoError(t, g.Send(context.Background(), TradeClosed(closedTrade())))
	assert.Equal(t, 2, pub.calls)
	assert.Equal(t, resilience.StateClosed, g.State())
}

type flakyPublisher struct {
	failures int
	calls    int
}

func (f *flakyPublisher) Publish(string, []byte) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("timeout")
	}
	return nil
}
