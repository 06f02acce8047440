package geomath_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/geomath"
	"github.com/samirrijal/madspild/internal/pkg/geospatial"
)

var copenhagen = domain.GeoPoint{Lat: 55.6761, Lon: 12.5683}

// north returns the point km kilometres due north of p.
func north(p domain.GeoPoint, km float64) domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Lat + km/geospatial.KmPerDegreeLat, Lon: p.Lon}
}

func viewportWithFarCorner(km float64) domain.ViewportBounds {
	return domain.ViewportBounds{
		Center:    copenhagen,
		NorthEast: north(copenhagen, km),
		NorthWest: north(copenhagen, km/2),
		SouthEast: north(copenhagen, -km/3),
		SouthWest: north(copenhagen, -km/4),
	}
}

func TestResolveViewportRadius_ThreeKm(t *testing.T) {
	r := geomath.ResolveViewportRadius(viewportWithFarCorner(3))
	assert.InDelta(t, 3.6, r.RadiusKm, 1e-9)
	assert.InDelta(t, 3.6, r.RequestedKm, 1e-9)
	assert.False(t, r.WasCapped)
}

func TestResolveViewportRadius_Capped(t *testing.T) {
	r := geomath.ResolveViewportRadius(viewportWithFarCorner(30))
	assert.Equal(t, 25.0, r.RadiusKm)
	assert.InDelta(t, 36.0, r.RequestedKm, 1e-9)
	assert.True(t, r.WasCapped)
}

func TestResolveViewportRadius_JustBelowCap(t *testing.T) {
	r := geomath.ResolveViewportRadius(viewportWithFarCorner(20))
	assert.InDelta(t, 24.0, r.RadiusKm, 1e-9)
	assert.False(t, r.WasCapped)
}

func TestResolveViewportRadius_Degenerate(t *testing.T) {
	r := geomath.ResolveViewportRadius(domain.ViewportBounds{
		Center: copenhagen, NorthEast: copenhagen, NorthWest: copenhagen,
		SouthEast: copenhagen, SouthWest: copenhagen,
	})
	assert.Greater(t, r.RadiusKm, 0.0)
	assert.False(t, r.WasCapped)
}

func TestResolveViewportRadius_RangeProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		center := domain.GeoPoint{Lat: rng.Float64()*140 - 70, Lon: rng.Float64()*340 - 170}
		span := rng.Float64() * 0.8
		b := domain.Bounds{
			MinLat: center.Lat - span*rng.Float64(),
			MaxLat: center.Lat + span*rng.Float64(),
			MinLon: center.Lon - span*rng.Float64(),
			MaxLon: center.Lon + span*rng.Float64(),
		}
		v := b.Viewport(center)
		r := geomath.ResolveViewportRadius(v)

		require.Greater(t, r.RadiusKm, 0.0)
		require.LessOrEqual(t, r.RadiusKm, geomath.MaxRadiusKm)
		assert.Equal(t, r.RequestedKm > geomath.MaxRadiusKm, r.WasCapped)
	}
}

func TestResolveSearchRadius(t *testing.T) {
	cases := map[float64]float64{
		0:    1,
		0.2:  1,
		1:    1,
		3.6:  4,
		10:   10,
		24.1: 25,
		25:   25,
	}
	for in, want := range cases {
		assert.Equal(t, want, geomath.ResolveSearchRadius(in), "input %v", in)
	}
}

func TestClampRadius(t *testing.T) {
	r, capped := geomath.ClampRadius(30)
	assert.Equal(t, 25.0, r)
	assert.True(t, capped)

	r, capped = geomath.ClampRadius(10)
	assert.Equal(t, 10.0, r)
	assert.False(t, capped)
}

func TestSearchArea(t *testing.T) {
	area := geomath.SearchArea(copenhagen, 10)
	assert.Less(t, area.MinLat, copenhagen.Lat)
	assert.Greater(t, area.MaxLat, copenhagen.Lat)
	assert.InDelta(t, 10, geospatial.HaversineKm(copenhagen.Lat, copenhagen.Lon, area.MaxLat, copenhagen.Lon), 1e-6)
}
