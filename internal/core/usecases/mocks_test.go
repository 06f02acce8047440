package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/ports"
)

// --- Mock OfferLookup ---

type mockOfferLookup struct {
	fetchFn func(ctx context.Context, center domain.GeoPoint, radiusKm int) ([]byte, error)
}

func (m *mockOfferLookup) FetchOffers(ctx context.Context, center domain.GeoPoint, radiusKm int) ([]byte, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, center, radiusKm)
	}
	return []byte(`[]`), nil
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	geocodeFn func(ctx context.Context, q ports.GeocodeQuery) ([]domain.Location, error)
	calls     int
}

func (m *mockGeocoder) Geocode(ctx context.Context, q ports.GeocodeQuery) ([]domain.Location, error) {
	m.calls++
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, q)
	}
	return nil, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.SessionEvent
	err    error
}

func (m *mockPublisher) PublishSessionEvent(ctx context.Context, ev *domain.SessionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return m.err
}

func (m *mockPublisher) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.Kind
	}
	return out
}

// offersBody is an upstream response with one store per entry of stores, each
// holding offers with the given descriptions.
func offersBody(stores ...[]string) []byte {
	body := "["
	for i, descs := range stores {
		if i > 0 {
			body += ","
		}
		body += `{"store":{"id":"S` + string(rune('1'+i)) + `","name":"Store","brand":"netto","coordinates":[12.57,55.68]},"clearances":[`
		for j, d := range descs {
			if j > 0 {
				body += ","
			}
			body += `{"offer":{"newPrice":10,"originalPrice":20,"stock":1,"stockUnit":"each"},"product":{"description":"` + d + `"}}`
		}
		body += "]}"
	}
	return []byte(body + "]")
}

var copenhagen = domain.GeoPoint{Lat: 55.6761, Lon: 12.5683}
