package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/ports"
	"github.com/samirrijal/madspild/internal/core/usecases"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		in   string
		kind ports.GeocodeKind
		val  string
	}{
		{"2200", ports.GeocodePostalCode, "2200"},
		{"  8000 ", ports.GeocodePostalCode, "8000"},
		{"22000", ports.GeocodeText, "22000"},
		{"220", ports.GeocodeText, "220"},
		{"Nørrebrogade 1", ports.GeocodeText, "Nørrebrogade 1"},
		{"2200 København", ports.GeocodeText, "2200 København"},
	}
	for _, tc := range tests {
		q, err := usecases.ParseQuery(tc.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if q.Kind != tc.kind || q.Value != tc.val {
			t.Errorf("%q: expected %s/%q, got %s/%q", tc.in, tc.kind, tc.val, q.Kind, q.Value)
		}
	}

	if _, err := usecases.ParseQuery("   "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for blank query, got %v", err)
	}
}

func TestLocationService_Locate(t *testing.T) {
	var got ports.GeocodeQuery
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, q ports.GeocodeQuery) ([]domain.Location, error) {
			got = q
			return []domain.Location{
				{Point: domain.GeoPoint{Lat: 56.15, Lon: 10.2}, DisplayName: "Aarhus"},
				{Point: domain.GeoPoint{Lat: 1, Lon: 1}, DisplayName: "second"},
			}, nil
		},
	}
	svc := usecases.NewLocationService(geo, nil, 0)

	loc, err := svc.Locate(context.Background(), "8000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != ports.GeocodePostalCode {
		t.Errorf("expected postal code query, got %s", got.Kind)
	}
	if loc.DisplayName != "Aarhus" {
		t.Errorf("expected first result, got %s", loc.DisplayName)
	}
}

func TestLocationService_NotFound(t *testing.T) {
	svc := usecases.NewLocationService(&mockGeocoder{}, nil, 0)
	_, err := svc.Locate(context.Background(), "Atlantis")
	if !errors.Is(err, domain.ErrGeocodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLocationService_GeocoderError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := usecases.NewLocationService(&mockGeocoder{
		geocodeFn: func(ctx context.Context, q ports.GeocodeQuery) ([]domain.Location, error) {
			return nil, boom
		},
	}, nil, 0)
	if _, err := svc.Locate(context.Background(), "Vesterbro"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped geocoder error, got %v", err)
	}
}

func TestLocationService_Cache(t *testing.T) {
	geo := &mockGeocoder{
		geocodeFn: func(ctx context.Context, q ports.GeocodeQuery) ([]domain.Location, error) {
			return []domain.Location{{Point: domain.GeoPoint{Lat: 55.69, Lon: 12.55}, DisplayName: "Nørrebro"}}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewLocationService(geo, cache, 0)
	ctx := context.Background()

	first, err := svc.Locate(ctx, "Nørrebro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Locate(ctx, " nørrebro ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if geo.calls != 1 {
		t.Errorf("expected 1 geocoder call, got %d", geo.calls)
	}
	if first != second {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
	if ttl := cache.ttls["geocode:text:nørrebro"]; ttl != int(usecases.DefaultGeocodeTTL.Seconds()) {
		t.Errorf("expected default ttl, got %d", ttl)
	}
}

func TestLocationService_NotFoundIsNotCached(t *testing.T) {
	geo := &mockGeocoder{}
	cache := newMockCache()
	svc := usecases.NewLocationService(geo, cache, 0)

	_, _ = svc.Locate(context.Background(), "Atlantis")
	_, _ = svc.Locate(context.Background(), "Atlantis")
	if geo.calls != 2 {
		t.Errorf("expected misses to reach the geocoder each time, got %d calls", geo.calls)
	}
}
