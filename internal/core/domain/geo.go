package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point is finite and inside the WGS 84 ranges.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Center returns the midpoint of the box.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

// Viewport returns the box corners around the given center.
func (b Bounds) Viewport(center GeoPoint) ViewportBounds {
	return ViewportBounds{
		Center:    center,
		NorthEast: GeoPoint{Lat: b.MaxLat, Lon: b.MaxLon},
		NorthWest: GeoPoint{Lat: b.MaxLat, Lon: b.MinLon},
		SouthEast: GeoPoint{Lat: b.MinLat, Lon: b.MaxLon},
		SouthWest: GeoPoint{Lat: b.MinLat, Lon: b.MinLon},
	}
}

// ViewportBounds is the visible region of a map: its center and four corners.
type ViewportBounds struct {
	Center    GeoPoint `json:"center"`
	NorthEast GeoPoint `json:"north_east"`
	NorthWest GeoPoint `json:"north_west"`
	SouthEast GeoPoint `json:"south_east"`
	SouthWest GeoPoint `json:"south_west"`
}

// Corners returns the four corners in NE, NW, SE, SW order.
func (v ViewportBounds) Corners() [4]GeoPoint {
	return [4]GeoPoint{v.NorthEast, v.NorthWest, v.SouthEast, v.SouthWest}
}

// SearchSource tells how the center of a search was obtained.
type SearchSource string

const (
	SourceExplicitLocation SearchSource = "explicit_location"
	SourceGeolocation      SearchSource = "geolocation"
	SourceViewport         SearchSource = "viewport"
)

// Valid reports whether s is a known source.
func (s SearchSource) Valid() bool {
	switch s {
	case SourceExplicitLocation, SourceGeolocation, SourceViewport:
		return true
	}
	return false
}

// SearchRequest is a radius lookup around a center point.
type SearchRequest struct {
	Center   GeoPoint     `json:"center"`
	RadiusKm float64      `json:"radius_km"`
	Source   SearchSource `json:"source"`
	// Capped is set when the requested radius was reduced to the maximum.
	Capped      bool    `json:"capped,omitempty"`
	RequestedKm float64 `json:"requested_km,omitempty"`
	Label       string  `json:"label,omitempty"`
}
