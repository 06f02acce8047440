package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks invalid request parameters.
	ErrValidation = errors.New("validation failed")

	// ErrUpstreamRateLimited means the offer provider answered 429. Retry after a cooldown.
	ErrUpstreamRateLimited = errors.New("upstream rate limit exceeded")

	// ErrUpstreamRadiusTooLarge means the offer provider answered 500, which it does
	// when the search radius is too large.
	ErrUpstreamRadiusTooLarge = errors.New("search radius too large for upstream")

	// ErrUpstream is any other upstream failure.
	ErrUpstream = errors.New("upstream error")

	ErrGeocodeNotFound        = errors.New("location not found")
	ErrGeolocationUnavailable = errors.New("geolocation unavailable")

	// ErrMalformedRecord is counted while normalizing and never returned from a search.
	ErrMalformedRecord = errors.New("malformed offer record")

	// ErrSearchSuperseded is returned by a search that resolved after a newer one started.
	ErrSearchSuperseded = errors.New("search superseded by a newer search")

	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
	ErrStoreNotFound   = errors.New("store not found")

	// ErrNotConfigured means the offer lookup credential is missing.
	ErrNotConfigured = errors.New("offer lookup not configured")
)

// ValidationError describes a rejected request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// UpstreamError is a non-2xx answer from the offer provider.
type UpstreamError struct {
	Status   int
	Body     string
	RadiusKm float64
}

func (e *UpstreamError) Error() string {
	switch e.Status {
	case http.StatusTooManyRequests:
		return "rate limit exceeded, please wait a few minutes and try again"
	case http.StatusInternalServerError:
		return fmt.Sprintf("the search area is too large (%.1f km radius), try a smaller area", e.RadiusKm)
	}
	if e.Body == "" {
		return fmt.Sprintf("API error: %d", e.Status)
	}
	return fmt.Sprintf("API error: %d - %s", e.Status, e.Body)
}

// Unwrap maps the status to its sentinel so callers can use errors.Is.
func (e *UpstreamError) Unwrap() error {
	switch e.Status {
	case http.StatusTooManyRequests:
		return ErrUpstreamRateLimited
	case http.StatusInternalServerError:
		return ErrUpstreamRadiusTooLarge
	}
	return ErrUpstream
}
