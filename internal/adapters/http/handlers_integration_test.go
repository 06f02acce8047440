//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/madspild/internal/adapters/http"
	"github.com/samirrijal/madspild/internal/adapters/nominatim"
	"github.com/samirrijal/madspild/internal/adapters/salling"
	"github.com/samirrijal/madspild/internal/core/usecases"
	"github.com/samirrijal/madspild/internal/pkg/config"
)

// liveDeps wires the handlers to the real offer API and geocoder. It skips when no
// API key is configured.
func liveDeps(t *testing.T) *http.Dependencies {
	cfg, err := config.Load("madspild-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Upstream.APIKey == "" {
		t.Skip("SALLING_API_KEY not set")
	}

	offers := salling.NewClient(salling.Config{
		BaseURL: cfg.Upstream.BaseURL,
		APIKey:  cfg.Upstream.APIKey,
		Timeout: cfg.Upstream.TimeoutDuration(),
	})
	locations := usecases.NewLocationService(nominatim.New(nominatim.Config{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
	}), nil, time.Hour)

	return &http.Dependencies{
		Sessions:  usecases.NewSessionRegistry(offers, locations, nil, time.Minute, 10),
		Locations: locations,
		Proxy:     offers,
	}
}

func TestIntegration_SearchCopenhagen(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	http.SetupRoutes(app, liveDeps(t))

	resp, err := app.Test(httptest.NewRequest("POST", "/v1/sessions", nil), -1)
	if err != nil || resp.StatusCode != 201 {
		t.Fatalf("create session: %v %v", err, resp)
	}
	var created struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&created)

	req := httptest.NewRequest("POST", "/v1/sessions/"+created.ID+"/search",
		jsonBody(t, map[string]interface{}{"mode": "location", "query": "1000", "radius_km": 2}))
	req.Header.Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	resp, err = app.Test(req.WithContext(ctx), -1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var snap usecases.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	t.Logf("%s: %d stores", snap.Request.Label, len(snap.View.Stores))
	for _, b := range snap.View.Stores {
		if !b.Store.Coordinates.Valid() {
			t.Errorf("store %s has invalid coordinates %+v", b.Store.ID, b.Store.Coordinates)
		}
	}
}

func TestIntegration_Proxy(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	http.SetupRoutes(app, liveDeps(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/food-waste?lat=55.6761&lng=12.5683&radius=2", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("expected a JSON array: %v", err)
	}
}
