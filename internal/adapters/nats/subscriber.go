package natsadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/ports"
)

// Subscriber implements ports.EventSubscriber with core NATS.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber creates a subscriber on an existing connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

func (s *Subscriber) SubscribeSession(ctx context.Context, sessionID string, handler func(ctx context.Context, event *domain.SessionEvent) error) (ports.Subscription, error) {
	sub, err := s.conn.Subscribe(SessionSubject(sessionID), func(msg *nats.Msg) {
		var ev domain.SessionEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("dropping undecodable session event", "subject", msg.Subject, "error", err)
			return
		}
		if err := handler(ctx, &ev); err != nil {
			slog.Debug("session event handler", "session_id", sessionID, "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}
