// Package salling talks to the Salling Group food-waste API.
package salling

import (
	"context"
	"errors"
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
	"github.com/samirrijal/madspild/internal/pkg/metrics"
)

const (
	DefaultBaseURL = "https://api.sallinggroup.com"
	foodWastePath  = "/v1/food-waste/"

	// maxBodyBytes bounds how much of an upstream answer is read.
	maxBodyBytes = 16 << 20
)

// Config configures the client.
type Config struct {
	BaseURL string
	// APIKey is sent as a bearer token. An empty key leaves the client unconfigured.
	APIKey string
	// Timeout for a single request (default: 15s).
	Timeout time.Duration
	// RateLimit in requests per second (default: 5).
	RateLimit float64
	// RateBurst is the limiter burst size (default: 5).
	RateBurst int
	UserAgent string
	// Transport allows injecting a custom HTTP transport in tests.
	Transport http.RoundTripper
}

// Client fetches offers with client-side rate limiting.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	tracer  trace.Tracer
}

// NewClient creates a new Client, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "madspild/1.0"
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		tracer:  otel.Tracer("github.com/samirrijal/madspild/internal/adapters/salling"),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

// Response is an upstream answer, whatever its status.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Forward performs the lookup with lat, lng and radius passed through as given and
// returns the answer without interpreting it.
func (c *Client) Forward(ctx context.Context, lat, lng, radius string) (*Response, error) {
	if !c.Configured() {
		return nil, domain.ErrNotConfigured
	}

	ctx, span := c.tracer.Start(ctx, "salling.food_waste",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("geo.lat", lat),
			attribute.String("geo.lng", lng),
			attribute.String("search.radius", radius),
		),
	)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limiter")
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	// geo is "<lat>,<lng>" with a literal comma.
	rawQuery := "geo=" + url.QueryEscape(lat) + "," + url.QueryEscape(lng) + "&radius=" + url.QueryEscape(radius)
	fullURL := strings.TrimSuffix(c.cfg.BaseURL, "/") + foodWastePath + "?" + rawQuery

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveUpstream("salling", 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("food-waste request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.ObserveUpstream("salling", resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, fmt.Errorf("read food-waste response: %w", err)
	}
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, resp.Status)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// FetchOffers implements ports.OfferLookup.
func (c *Client) FetchOffers(ctx context.Context, center domain.GeoPoint, radiusKm int) ([]byte, error) {
	resp, err := c.Forward(ctx,
		strconv.FormatFloat(center.Lat, 'f', -1, 64),
		strconv.FormatFloat(center.Lon, 'f', -1, 64),
		strconv.Itoa(radiusKm),
	)
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	if !resp.OK() {
		return nil, &domain.UpstreamError{Status: resp.StatusCode, Body: string(resp.Body), RadiusKm: float64(radiusKm)}
	}
	return resp.Body, nil
}
