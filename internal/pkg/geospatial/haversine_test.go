package geospatial

import (
	"math"
	"testing"
)

func TestHaversineKm_ZeroDistance(t *testing.T) {
	if d := HaversineKm(55.6761, 12.5683, 55.6761, 12.5683); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestHaversineKm_MeridianArc(t *testing.T) {
	// Along a meridian the distance is exactly R * dLat.
	d := HaversineKm(55.0, 12.0, 56.0, 12.0)
	if math.Abs(d-KmPerDegreeLat) > 1e-9 {
		t.Errorf("expected %f, got %f", KmPerDegreeLat, d)
	}
}

func TestHaversineKm_CopenhagenAarhus(t *testing.T) {
	// Copenhagen -> Aarhus is roughly 157 km as the crow flies.
	d := HaversineKm(55.6761, 12.5683, 56.1629, 10.2039)
	if d < 150 || d > 165 {
		t.Errorf("unexpected distance %f km", d)
	}
}

func TestHaversine_Meters(t *testing.T) {
	km := HaversineKm(43.263, -2.935, 43.264, -2.934)
	m := Haversine(43.263, -2.935, 43.264, -2.934)
	if math.Abs(m-km*1000) > 1e-6 {
		t.Errorf("meters %f != km*1000 %f", m, km*1000)
	}
}

func TestBoundingBox_ContainsCircle(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(55.6761, 12.5683, 5)
	if d := HaversineKm(55.6761, 12.5683, maxLat, 12.5683); math.Abs(d-5) > 1e-6 {
		t.Errorf("north edge at %f km, want 5", d)
	}
	if d := HaversineKm(55.6761, 12.5683, minLat, 12.5683); math.Abs(d-5) > 1e-6 {
		t.Errorf("south edge at %f km, want 5", d)
	}
	if minLon >= 12.5683 || maxLon <= 12.5683 {
		t.Errorf("longitude span [%f, %f] does not contain center", minLon, maxLon)
	}
}
