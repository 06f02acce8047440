package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/ports"
	"github.com/samirrijal/madspild/internal/pkg/metrics"
)

// DefaultGeocodeTTL is how long geocoding results stay cached.
const DefaultGeocodeTTL = 24 * time.Hour

var postalCodePattern = regexp.MustCompile(`^\d{4}$`)

// LocationService turns an address or Danish postal code into a point.
type LocationService struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
	ttl      time.Duration
}

// NewLocationService creates a new LocationService. cache may be nil; ttl <= 0 uses DefaultGeocodeTTL.
func NewLocationService(geocoder ports.Geocoder, cache ports.CacheService, ttl time.Duration) *LocationService {
	if ttl <= 0 {
		ttl = DefaultGeocodeTTL
	}
	return &LocationService{geocoder: geocoder, cache: cache, ttl: ttl}
}

// ParseQuery classifies a trimmed query: exactly four digits is a postal code,
// anything else free text.
func ParseQuery(query string) (ports.GeocodeQuery, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return ports.GeocodeQuery{}, domain.Invalid("q", "enter an address or postal code")
	}
	if postalCodePattern.MatchString(q) {
		return ports.GeocodeQuery{Kind: ports.GeocodePostalCode, Value: q}, nil
	}
	return ports.GeocodeQuery{Kind: ports.GeocodeText, Value: q}, nil
}

// Locate resolves query to its first geocoding match.
func (s *LocationService) Locate(ctx context.Context, query string) (domain.Location, error) {
	q, err := ParseQuery(query)
	if err != nil {
		return domain.Location{}, err
	}

	// Try cache
	cacheKey := fmt.Sprintf("geocode:%s:%s", q.Kind, strings.ToLower(q.Value))
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var loc domain.Location
			if err := json.Unmarshal(data, &loc); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				return loc, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	results, err := s.geocoder.Geocode(ctx, q)
	if err != nil {
		return domain.Location{}, fmt.Errorf("geocode %q: %w", q.Value, err)
	}
	if len(results) == 0 || !results[0].Point.Valid() {
		return domain.Location{}, fmt.Errorf("%w: %s", domain.ErrGeocodeNotFound, q.Value)
	}
	loc := results[0]

	if s.cache != nil {
		if data, err := json.Marshal(loc); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, int(s.ttl.Seconds()))
		}
	}

	return loc, nil
}
