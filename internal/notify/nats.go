package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// publisher is the subset of *nats.Conn the channel needs.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSChannel publishes events as JSON to <prefix>.<event type>.
type NATSChannel struct {
	conn   *nats.Conn
	pub    publisher
	prefix string
}

// NewNATSChannel connects to the NATS server at url.
func NewNATSChannel(url, prefix string, logger zerolog.Logger) (*NATSChannel, error) {
	logger = logger.With().Str("component", "nats").Logger()

	conn, err := nats.Connect(url,
		nats.Name("trade-journal"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error().Err(err).Msg("NATS error")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ch := newNATSChannel(conn, prefix)
	ch.conn = conn
	return ch, nil
}

func newNATSChannel(pub publisher, prefix string) *NATSChannel {
	if prefix == "" {
		prefix = "journal"
	}
	return &NATSChannel{pub: pub, prefix: prefix}
}

func (c *NATSChannel) Name() string    { return "nats" }
func (c *NATSChannel) IsEnabled() bool { return c.pub != nil }

// Subject returns the subject an event type is published on.
func (c *NATSChannel) Subject(t EventType) string {
	return c.prefix + "." + string(t)
}

// Send publishes the event.
func (c *NATSChannel) Send(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := c.pub.Publish(c.Subject(e.Type), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

// Close drains and closes the connection, if this channel owns one.
func (c *NATSChannel) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Drain()
}
