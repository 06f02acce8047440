package http

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/madspild/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`              // bad_request, not_found, radius_too_large, rate_limited, ...
	Message   string `json:"message"`           // Human-readable message
	Details   string `json:"details,omitempty"` // Upstream body text, verbatim
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// newErrorWithDetails is newError plus the upstream body.
func newErrorWithDetails(c *fiber.Ctx, status int, code, message, details string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusConflict, "conflict", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}

// errFromDomain maps a core error to its HTTP response.
func errFromDomain(c *fiber.Ctx, err error) error {
	var ve *domain.ValidationError
	var ue *domain.UpstreamError

	switch {
	case errors.As(err, &ve):
		return errBadRequest(c, ve.Error())
	case errors.Is(err, domain.ErrValidation):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		return errNotFound(c, "session not found")
	case errors.Is(err, domain.ErrStoreNotFound):
		return errNotFound(c, "store not found")
	case errors.Is(err, domain.ErrGeocodeNotFound):
		return errNotFound(c, "location not found, please try a different search")
	case errors.Is(err, domain.ErrSearchSuperseded):
		return errConflict(c, "a newer search replaced this one")
	case errors.Is(err, domain.ErrGeolocationUnavailable):
		return newError(c, fiber.StatusUnprocessableEntity, "geolocation_unavailable",
			"unable to get your location, please enter it manually")
	case errors.As(err, &ue) && errors.Is(err, domain.ErrUpstreamRadiusTooLarge):
		return newError(c, fiber.StatusUnprocessableEntity, "radius_too_large", ue.Error())
	case errors.As(err, &ue) && errors.Is(err, domain.ErrUpstreamRateLimited):
		return newError(c, fiber.StatusTooManyRequests, "rate_limited", ue.Error())
	case errors.As(err, &ue):
		return newErrorWithDetails(c, fiber.StatusBadGateway, "upstream_error",
			fmt.Sprintf("API error: %d", ue.Status), ue.Body)
	case errors.Is(err, domain.ErrUpstream):
		return newError(c, fiber.StatusBadGateway, "upstream_error", "the offer service is unavailable, please try again")
	case errors.Is(err, domain.ErrTooManySessions):
		return errUnavailable(c, "too many active sessions, please try again later")
	case errors.Is(err, domain.ErrNotConfigured):
		return errUnavailable(c, "this feature is not configured")
	}

	LoggerFromCtx(c.UserContext()).Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
	return errInternal(c, "internal server error")
}
