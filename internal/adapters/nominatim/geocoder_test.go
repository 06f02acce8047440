package nominatim_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/madspild/internal/adapters/nominatim"
	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/ports"
)

func TestGeocode_PostalCode(t *testing.T) {
	var got url.Values
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		got = r.URL.Query()
		ua = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[{"lat":"55.6950","lon":"12.5500","display_name":"2200 København N"}]`))
	}))
	defer srv.Close()

	g := nominatim.New(nominatim.Config{BaseURL: srv.URL, UserAgent: "madspild-test"})
	locs, err := g.Geocode(context.Background(), ports.GeocodeQuery{Kind: ports.GeocodePostalCode, Value: "2200"})
	require.NoError(t, err)
	require.Len(t, locs, 1)

	assert.Equal(t, domain.GeoPoint{Lat: 55.695, Lon: 12.55}, locs[0].Point)
	assert.Equal(t, "2200 København N", locs[0].DisplayName)
	assert.Equal(t, "2200", got.Get("postalcode"))
	assert.Equal(t, "Denmark", got.Get("country"))
	assert.Equal(t, "json", got.Get("format"))
	assert.Equal(t, "1", got.Get("limit"))
	assert.Empty(t, got.Get("q"))
	assert.Equal(t, "madspild-test", ua)
}

func TestGeocode_FreeText(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := nominatim.New(nominatim.Config{BaseURL: srv.URL})
	locs, err := g.Geocode(context.Background(), ports.GeocodeQuery{Kind: ports.GeocodeText, Value: "Nørrebrogade 1"})
	require.NoError(t, err)

	assert.Empty(t, locs)
	assert.Equal(t, "Nørrebrogade 1,Denmark", got.Get("q"))
	assert.Empty(t, got.Get("postalcode"))
}

func TestGeocode_SkipsUnparseablePlaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"north","lon":"12","display_name":"x"}]`))
	}))
	defer srv.Close()

	g := nominatim.New(nominatim.Config{BaseURL: srv.URL})
	locs, err := g.Geocode(context.Background(), ports.GeocodeQuery{Kind: ports.GeocodeText, Value: "x"})
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestGeocode_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	g := nominatim.New(nominatim.Config{BaseURL: srv.URL})
	_, err := g.Geocode(context.Background(), ports.GeocodeQuery{Kind: ports.GeocodeText, Value: "x"})
	assert.ErrorIs(t, err, domain.ErrUpstream)
}
