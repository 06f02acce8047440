package http

import (
	"time"

	"github.com/samirrijal/madspild/internal/adapters/salling"
	"github.com/samirrijal/madspild/internal/core/ports"
	"github.com/samirrijal/madspild/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions  *usecases.SessionRegistry
	Locations *usecases.LocationService
	// Proxy serves the raw food-waste endpoint. Nil answers as unconfigured.
	Proxy *salling.Client
	// Events relays session events to WebSocket clients. Nil disables /ws.
	Events ports.EventSubscriber
	// Checks are probed by /v1/ready, keyed by component name.
	Checks  map[string]ports.Pinger
	Version string
	// RequestTimeout bounds upstream-bound handlers. Zero uses defaultRequestTimeout.
	RequestTimeout time.Duration
}

func (d *Dependencies) requestTimeout() time.Duration {
	if d.RequestTimeout > 0 {
		return d.RequestTimeout
	}
	return defaultRequestTimeout
}
