package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	handler "github.com/samirrijal/madspild/internal/adapters/http"
	"github.com/samirrijal/madspild/internal/adapters/salling"
)

func withUpstream(t *testing.T, key string, fn http.HandlerFunc) func(*handler.Dependencies) {
	t.Helper()
	srv := httptest.NewServer(fn)
	t.Cleanup(srv.Close)
	return func(d *handler.Dependencies) {
		d.Proxy = salling.NewClient(salling.Config{BaseURL: srv.URL, APIKey: key, RateLimit: 1000, RateBurst: 100})
	}
}

func decodeMap(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestFoodWasteProxy_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	for _, path := range []string{
		"/v1/food-waste",
		"/v1/food-waste?lat=55.6&lng=12.5",
		"/v1/food-waste?lat=55.6&radius=5",
	} {
		resp := doJSON(t, app, "GET", path, nil)
		if resp.StatusCode != 400 {
			t.Fatalf("%s: expected 400, got %d", path, resp.StatusCode)
		}
		if got := decodeMap(t, resp)["error"]; got != "Missing required parameters: lat, lng, radius" {
			t.Errorf("%s: unexpected error %v", path, got)
		}
	}
}

func TestFoodWasteProxy_NoKey(t *testing.T) {
	app := setupApp(makeDeps(withUpstream(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called without a key")
	})))

	resp := doJSON(t, app, "GET", "/v1/food-waste?lat=55.6&lng=12.5&radius=5", nil)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if got := decodeMap(t, resp)["error"]; got != "Server configuration error" {
		t.Errorf("unexpected error %v", got)
	}
}

func TestFoodWasteProxy_Success(t *testing.T) {
	var gotQuery, gotAuth string
	app := setupApp(makeDeps(withUpstream(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleOffers))
	})))

	resp := doJSON(t, app, "GET", "/v1/food-waste?lat=55.6761&lng=12.5683&radius=5", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotQuery != "geo=55.6761,12.5683&radius=5" {
		t.Errorf("unexpected upstream query %q", gotQuery)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}

	var body []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body) != 3 {
		t.Errorf("expected the upstream body verbatim, got %d entries", len(body))
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected no-store, got %q", cc)
	}
}

func TestFoodWasteProxy_UpstreamStatus(t *testing.T) {
	app := setupApp(makeDeps(withUpstream(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	})))

	resp := doJSON(t, app, "GET", "/v1/food-waste?lat=55.6&lng=12.5&radius=5", nil)
	if resp.StatusCode != 429 {
		t.Fatalf("expected 429 passthrough, got %d", resp.StatusCode)
	}
	m := decodeMap(t, resp)
	if m["error"] != "API error: 429" || m["details"] != "slow down" {
		t.Errorf("unexpected body %v", m)
	}
}

func TestFoodWasteProxy_InvalidJSON(t *testing.T) {
	app := setupApp(makeDeps(withUpstream(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	})))

	resp := doJSON(t, app, "GET", "/v1/food-waste?lat=55.6&lng=12.5&radius=5", nil)
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if got := decodeMap(t, resp)["error"]; got != "Internal server error" {
		t.Errorf("unexpected error %v", got)
	}
}

func TestFoodWasteProxy_LegacyPathDeprecated(t *testing.T) {
	app := setupApp(makeDeps(withUpstream(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})))

	resp := doJSON(t, app, "GET", "/api/food-waste?lat=55.6&lng=12.5&radius=5", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if !strings.Contains(resp.Header.Get("Sunset"), "2027") {
		t.Errorf("unexpected Sunset %q", resp.Header.Get("Sunset"))
	}
	if !strings.Contains(resp.Header.Get("Link"), `</v1/food-waste>; rel="successor-version"`) {
		t.Errorf("unexpected Link %q", resp.Header.Get("Link"))
	}
}
