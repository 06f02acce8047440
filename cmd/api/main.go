package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/madspild/internal/adapters/http"
	natsadapter "github.com/samirrijal/madspild/internal/adapters/nats"
	"github.com/samirrijal/madspild/internal/adapters/nominatim"
	"github.com/samirrijal/madspild/internal/adapters/salling"
	"github.com/samirrijal/madspild/internal/adapters/valkey"
	"github.com/samirrijal/madspild/internal/core/ports"
	"github.com/samirrijal/madspild/internal/core/usecases"
	"github.com/samirrijal/madspild/internal/pkg/config"
	"github.com/samirrijal/madspild/internal/pkg/logging"
	"github.com/samirrijal/madspild/internal/pkg/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("madspild")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, version, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() {
				sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer scancel()
				if err := shutdown(sctx); err != nil {
					slog.Warn("telemetry shutdown", "error", err)
				}
			}()
		}
	}

	// Offer lookup
	offers := salling.NewClient(salling.Config{
		BaseURL:   cfg.Upstream.BaseURL,
		APIKey:    cfg.Upstream.APIKey,
		Timeout:   cfg.Upstream.TimeoutDuration(),
		RateLimit: cfg.Upstream.RateLimit,
		RateBurst: cfg.Upstream.RateBurst,
		UserAgent: "madspild/" + version,
	})
	if !offers.Configured() {
		slog.Warn("offer lookup API key not set; searches and the food-waste proxy will fail")
	}

	geocoder := nominatim.New(nominatim.Config{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Country:   cfg.Geocoder.Country,
		Timeout:   cfg.Geocoder.TimeoutDuration(),
		RateLimit: cfg.Geocoder.RateLimit,
	})

	checks := make(map[string]ports.Pinger)

	// Cache (optional)
	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			slog.Warn("valkey unavailable, geocoding uncached", "error", err)
		} else {
			defer vc.Close()
			cache = vc
			checks["valkey"] = vc
		}
	}

	// NATS (optional)
	var (
		events     ports.EventPublisher
		subscriber ports.EventSubscriber
	)
	if cfg.NATS.URL != "" {
		nc, err := natsadapter.Connect(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, session events disabled", "error", err)
		} else {
			pub := natsadapter.NewPublisher(nc)
			defer pub.Close()
			events = pub
			subscriber = natsadapter.NewSubscriber(nc)
			checks["nats"] = pub
		}
	}

	// Use cases
	locations := usecases.NewLocationService(geocoder, cache, cfg.Geocoder.CacheTTLDuration())
	sessions := usecases.NewSessionRegistry(offers, locations, events,
		cfg.Sessions.IdleTTLDuration(), cfg.Sessions.Max)
	go sessions.RunJanitor(ctx, cfg.Sessions.SweepIntervalDuration())

	deps := &http.Dependencies{
		Sessions:       sessions,
		Locations:      locations,
		Proxy:          offers,
		Events:         subscriber,
		Checks:         checks,
		Version:        version,
		RequestTimeout: cfg.Search.TimeoutDuration(),
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Madspild API",
	})
	app.Use(recover.New())
	if strings.EqualFold(cfg.Log.Format, "text") {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.CORSOrigins, ","),
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped", "sessions", sessions.Len())
}
