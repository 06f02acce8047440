package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute describes an endpoint kept only for older clients.
type DeprecatedRoute struct {
	SunsetDate  time.Time // Date when endpoint will be removed
	Alternative string    // Recommended alternative endpoint (optional)
}

// DeprecationMiddleware adds Deprecation, Sunset, Link and Warning headers to the
// routes it is mounted on.
func DeprecationMiddleware(d DeprecatedRoute) fiber.Handler {
	sunset := d.SunsetDate.UTC().Format(time.RFC1123)
	return func(c *fiber.Ctx) error {
		// RFC 8594
		c.Set("Deprecation", "true")
		c.Set("Sunset", sunset)

		// RFC 8288
		if d.Alternative != "" {
			c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
		}

		days := time.Until(d.SunsetDate).Hours() / 24
		if days < 0 {
			days = 0
		}
		c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))

		return c.Next()
	}
}
