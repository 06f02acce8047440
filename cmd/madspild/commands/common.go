// Package commands implements the madspild command-line actions.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/samirrijal/madspild/internal/adapters/nominatim"
	"github.com/samirrijal/madspild/internal/adapters/salling"
	"github.com/samirrijal/madspild/internal/adapters/valkey"
	"github.com/samirrijal/madspild/internal/core/ports"
	"github.com/samirrijal/madspild/internal/core/usecases"
	"github.com/samirrijal/madspild/internal/pkg/config"
	"github.com/samirrijal/madspild/internal/pkg/logging"
)

// AppContext holds what a command needs to run a search.
type AppContext struct {
	Config    *config.Config
	Offers    *salling.Client
	Locations *usecases.LocationService

	closers []func()
}

// NewAppContext loads envFile (if present) and the configuration, then builds the
// offer lookup and the location service. Logs go to stderr so stdout stays clean.
func NewAppContext(ctx context.Context, envFile string) (*AppContext, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load("madspild")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.Log.Level, "text"))

	offers := salling.NewClient(salling.Config{
		BaseURL:   cfg.Upstream.BaseURL,
		APIKey:    cfg.Upstream.APIKey,
		Timeout:   cfg.Upstream.TimeoutDuration(),
		RateLimit: cfg.Upstream.RateLimit,
		RateBurst: cfg.Upstream.RateBurst,
	})
	if !offers.Configured() {
		return nil, fmt.Errorf("no API key: set SALLING_API_KEY or MADSPILD_UPSTREAM_API_KEY")
	}

	ac := &AppContext{Config: cfg, Offers: offers}

	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			slog.Warn("valkey unavailable, geocoding uncached", "error", err)
		} else {
			cache = vc
			ac.closers = append(ac.closers, vc.Close)
		}
	}

	geocoder := nominatim.New(nominatim.Config{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Country:   cfg.Geocoder.Country,
		Timeout:   cfg.Geocoder.TimeoutDuration(),
		RateLimit: cfg.Geocoder.RateLimit,
	})
	ac.Locations = usecases.NewLocationService(geocoder, cache, cfg.Geocoder.CacheTTLDuration())

	return ac, nil
}

// Close releases the resources held by the context.
func (ac *AppContext) Close() {
	for _, c := range ac.closers {
		c()
	}
}

// loadEnvFile loads variables from path without overriding ones already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
