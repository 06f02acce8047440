// Package geomath turns map geometry into lookup radii.
package geomath

import (
	"math"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/pkg/geospatial"
)

const (
	// MaxRadiusKm is the largest radius the offer lookup handles reliably.
	MaxRadiusKm = 25.0
	// MinRadiusKm is the smallest radius sent to the lookup.
	MinRadiusKm = 1.0
	// ViewportBuffer widens the viewport radius so the edges are covered despite projection distortion.
	ViewportBuffer = 1.2
	// DefaultRadiusKm is used when a search does not specify a radius.
	DefaultRadiusKm = 5.0
)

// ViewportRadius is the covering radius of a viewport.
type ViewportRadius struct {
	RadiusKm float64 `json:"radius_km"`
	// RequestedKm is the buffered radius before clamping.
	RequestedKm float64 `json:"requested_km"`
	WasCapped   bool    `json:"was_capped"`
}

// ResolveViewportRadius returns the radius around bounds.Center that covers all four
// corners, buffered by ViewportBuffer and clamped to MaxRadiusKm.
func ResolveViewportRadius(bounds domain.ViewportBounds) ViewportRadius {
	maxKm := 0.0
	for _, corner := range bounds.Corners() {
		d := geospatial.HaversineKm(bounds.Center.Lat, bounds.Center.Lon, corner.Lat, corner.Lon)
		if d > maxKm {
			maxKm = d
		}
	}

	requested := maxKm * ViewportBuffer
	r := ViewportRadius{RadiusKm: requested, RequestedKm: requested}
	if requested > MaxRadiusKm {
		r.RadiusKm = MaxRadiusKm
		r.WasCapped = true
	}
	// A degenerate viewport still searches something.
	if r.RadiusKm <= 0 {
		r.RadiusKm = MinRadiusKm
	}
	return r
}

// ResolveSearchRadius rounds up to a whole kilometre, the only unit the lookup accepts,
// with a minimum of MinRadiusKm.
func ResolveSearchRadius(requestedKm float64) float64 {
	r := math.Ceil(requestedKm)
	if r < MinRadiusKm {
		return MinRadiusKm
	}
	return r
}

// ClampRadius limits a requested radius to MaxRadiusKm and reports whether it was reduced.
func ClampRadius(requestedKm float64) (float64, bool) {
	if requestedKm > MaxRadiusKm {
		return MaxRadiusKm, true
	}
	return requestedKm, false
}

// SearchArea returns the bounding box of the circle searched around center.
func SearchArea(center domain.GeoPoint, radiusKm float64) domain.Bounds {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(center.Lat, center.Lon, radiusKm)
	return domain.Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
}
