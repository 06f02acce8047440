// Package nominatim geocodes Danish addresses and postal codes with a Nominatim server.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/ports"
	"github.com/samirrijal/madspild/internal/pkg/metrics"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// Config configures the geocoder.
type Config struct {
	BaseURL string
	// UserAgent identifies the application, as the public server's usage policy requires.
	UserAgent string
	// Country restricts every query (default: Denmark).
	Country string
	Timeout time.Duration
	// RateLimit in requests per second (default: 1, the public server's limit).
	RateLimit float64
	Transport http.RoundTripper
}

// Geocoder implements ports.Geocoder.
type Geocoder struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	tracer  trace.Tracer
}

// New creates a new Geocoder, filling unset fields with defaults.
func New(cfg Config) *Geocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "madspild/1.0"
	}
	if cfg.Country == "" {
		cfg.Country = "Denmark"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}
	return &Geocoder{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		tracer:  otel.Tracer("github.com/samirrijal/madspild/internal/adapters/nominatim"),
	}
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns at most one location for q.
func (g *Geocoder) Geocode(ctx context.Context, q ports.GeocodeQuery) ([]domain.Location, error) {
	ctx, span := g.tracer.Start(ctx, "nominatim.search",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("geocode.kind", string(q.Kind))),
	)
	defer span.End()

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	switch q.Kind {
	case ports.GeocodePostalCode:
		params.Set("postalcode", q.Value)
		params.Set("country", g.cfg.Country)
	default:
		params.Set("q", q.Value+","+g.cfg.Country)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimSuffix(g.cfg.BaseURL, "/")+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.http.Do(req)
	if err != nil {
		metrics.ObserveUpstream("nominatim", 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream("nominatim", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		span.SetStatus(codes.Error, resp.Status)
		return nil, fmt.Errorf("%w: nominatim status %d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: decode nominatim response: %v", domain.ErrUpstream, err)
	}

	out := make([]domain.Location, 0, len(places))
	for _, p := range places {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lon, errLon := strconv.ParseFloat(p.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		out = append(out, domain.Location{Point: domain.GeoPoint{Lat: lat, Lon: lon}, DisplayName: p.DisplayName})
	}
	span.SetAttributes(attribute.Int("geocode.results", len(out)))
	return out, nil
}
