package ports

import (
	"context"

	"github.com/samirrijal/madspild/internal/core/domain"
)

// OfferLookup fetches the raw offer list around a point. The body is returned
// undecoded; non-2xx answers come back as *domain.UpstreamError.
type OfferLookup interface {
	FetchOffers(ctx context.Context, center domain.GeoPoint, radiusKm int) ([]byte, error)
}

// GeocodeKind selects how a geocoding query is interpreted.
type GeocodeKind string

const (
	GeocodePostalCode GeocodeKind = "postalcode"
	GeocodeText       GeocodeKind = "text"
)

// GeocodeQuery is a single geocoding request.
type GeocodeQuery struct {
	Kind  GeocodeKind
	Value string
}

// Geocoder resolves a query to candidate locations, best match first.
type Geocoder interface {
	Geocode(ctx context.Context, q GeocodeQuery) ([]domain.Location, error)
}

// Locator reports the device position.
type Locator interface {
	CurrentPosition(ctx context.Context) (domain.GeoPoint, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (domain.GeoPoint, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context) (domain.GeoPoint, error) { return f(ctx) }
