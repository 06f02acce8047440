package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/madspild/internal/pkg/metrics"
)

const (
	// defaultRequestTimeout exceeds the upstream client timeout.
	defaultRequestTimeout = 20 * time.Second

	openAPIPath = "api/openapi.yaml"
)

// legacyFoodWaste is the path the browser proxy used before /v1 existed.
var legacyFoodWaste = DeprecatedRoute{
	SunsetDate:  time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC),
	Alternative: "/v1/food-waste",
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	requestTimeout := deps.requestTimeout()

	// Health & readiness (no timeout; fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/quick-filters", QuickFiltersHandler())
	v1.Get("/geocode", timeout.NewWithContext(GeocodeHandler(deps), requestTimeout))
	v1.Get("/food-waste", timeout.NewWithContext(FoodWasteProxyHandler(deps), requestTimeout))

	// Search sessions
	v1.Post("/sessions", CreateSessionHandler(deps))
	v1.Get("/sessions/:id", GetSessionHandler(deps))
	v1.Delete("/sessions/:id", DeleteSessionHandler(deps))
	v1.Post("/sessions/:id/search", timeout.NewWithContext(SearchHandler(deps), requestTimeout))
	v1.Get("/sessions/:id/stores", ListStoresHandler(deps))
	v1.Get("/sessions/:id/stores/:storeID", GetStoreHandler(deps))
	v1.Post("/sessions/:id/filters", AddFilterHandler(deps))
	v1.Post("/sessions/:id/filters/quick/:name", AddQuickFilterHandler(deps))
	v1.Delete("/sessions/:id/filters", ClearFiltersHandler(deps))
	v1.Delete("/sessions/:id/filters/:term", RemoveFilterHandler(deps))

	// Legacy proxy path
	app.Get("/api/food-waste", DeprecationMiddleware(legacyFoodWaste),
		timeout.NewWithContext(FoodWasteProxyHandler(deps), requestTimeout))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, openAPIPath)

	// WebSocket session events
	if deps.Events != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/sessions/:id", websocket.New(SessionWebSocketHandler(deps)))
	}
}
