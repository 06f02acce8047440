package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/ports"
	"github.com/samirrijal/madspild/internal/pkg/metrics"
)

const (
	DefaultSessionIdleTTL = 30 * time.Minute
	DefaultMaxSessions    = 10000
)

// SessionRegistry holds the live search sessions.
type SessionRegistry struct {
	offers    ports.OfferLookup
	locations *LocationService
	events    ports.EventPublisher
	idleTTL   time.Duration
	max       int

	mu       sync.Mutex
	sessions map[string]*SearchService
}

// NewSessionRegistry creates a new SessionRegistry. Sessions it creates share
// offers, locations and events.
func NewSessionRegistry(offers ports.OfferLookup, locations *LocationService, events ports.EventPublisher, idleTTL time.Duration, max int) *SessionRegistry {
	if idleTTL <= 0 {
		idleTTL = DefaultSessionIdleTTL
	}
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &SessionRegistry{
		offers:    offers,
		locations: locations,
		events:    events,
		idleTTL:   idleTTL,
		max:       max,
		sessions:  make(map[string]*SearchService),
	}
}

// Create starts a new idle session.
func (r *SessionRegistry) Create() (*SearchService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.max {
		return nil, domain.ErrTooManySessions
	}
	id := uuid.NewString()
	s := NewSearchService(id, r.offers, r.locations, r.events)
	r.sessions[id] = s
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return s, nil
}

// Get returns the session with the given id. Every lookup counts as activity, so a
// client that only reads its session keeps it alive.
func (r *SessionRegistry) Get(id string) (*SearchService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	s.Touch()
	return s, nil
}

// Delete ends a session.
func (r *SessionRegistry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	delete(r.sessions, id)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return nil
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle since before now minus the idle TTL and returns how many were removed.
func (r *SessionRegistry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		metrics.SessionsEvicted.Add(float64(removed))
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
	}
	return removed
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (r *SessionRegistry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				slog.Info("evicted idle sessions", "count", n, "remaining", r.Len())
			}
		}
	}
}
