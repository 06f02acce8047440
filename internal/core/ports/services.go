package ports

import (
	"context"

	"github.com/samirrijal/madspild/internal/core/domain"
)

// EventPublisher publishes session events to a message broker.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, event *domain.SessionEvent) error
}

// Subscription is an active broker subscription.
type Subscription interface {
	Unsubscribe() error
}

// EventSubscriber subscribes to the events of one session.
type EventSubscriber interface {
	SubscribeSession(ctx context.Context, sessionID string, handler func(ctx context.Context, event *domain.SessionEvent) error) (Subscription, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
