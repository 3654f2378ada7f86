package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SscSPs/mining_ledger/internal/core/domain"
	"github.com/nats-io/nats.go"
)

// LogSender writes notifications to the structured log. It is the fallback
// when no broker is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, n domain.Notification) error {
	s.Logger.Info("Notification",
		slog.String("kind", string(n.Kind)),
		slog.String("user_id", n.UserID),
		slog.String("email", n.Email),
		slog.String("transaction_id", n.TransactionID),
		slog.String("subject", n.Subject))
	return nil
}

// NATSSender publishes notifications as JSON on <prefix>.<kind>.
type NATSSender struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSSender connects to url. The connection reconnects on its own; a
// publish while disconnected is buffered by the client.
func NewNATSSender(url, prefix string, logger *slog.Logger) (*NATSSender, error) {
	nc, err := nats.Connect(url,
		nats.Name("mining-ledger"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &NATSSender{conn: nc, prefix: prefix}, nil
}

// Subject returns the subject a notification of kind is published on.
func (s *NATSSender) Subject(kind domain.NotificationKind) string {
	return s.prefix + "." + string(kind)
}

func (s *NATSSender) Send(_ context.Context, n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := s.conn.Publish(s.Subject(n.Kind), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", n.Kind, err)
	}
	return nil
}

// Close flushes pending publishes and closes the connection.
func (s *NATSSender) Close() error {
	return s.conn.Drain()
}
