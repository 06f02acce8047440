package catalog

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/samirrijal/madspild/internal/core/domain"
)

// Normalize turns raw lookup records into a catalog. Records without a store, or whose
// store coordinates are not a pair of finite numbers, are left out. Order is preserved
// and nothing is deduplicated.
func Normalize(raw []RawOfferRecord) domain.Catalog {
	cat := make(domain.Catalog, 0, len(raw))
	for _, rec := range raw {
		if rec.Store == nil {
			continue
		}
		point, ok := parseCoordinates(rec.Store.Coordinates)
		if !ok {
			continue
		}

		offers := make([]domain.Offer, 0, len(rec.Clearances))
		for _, c := range rec.Clearances {
			offers = append(offers, toOffer(c))
		}

		cat = append(cat, domain.StoreOfferBundle{
			Store:  toStore(rec.Store, point),
			Offers: offers,
		})
	}
	return cat
}

// parseCoordinates reads the upstream [lon, lat] pair. The lookup API delivers
// longitude first; GeoPoint is latitude first. This is the only place the axes are swapped.
func parseCoordinates(raw json.RawMessage) (domain.GeoPoint, bool) {
	if len(raw) == 0 {
		return domain.GeoPoint{}, false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var vals []any
	if err := dec.Decode(&vals); err != nil || len(vals) != 2 {
		return domain.GeoPoint{}, false
	}

	var pair [2]float64
	for i, v := range vals {
		n, ok := v.(json.Number)
		if !ok {
			return domain.GeoPoint{}, false
		}
		f, err := n.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return domain.GeoPoint{}, false
		}
		pair[i] = f
	}

	return domain.GeoPoint{Lat: pair[1], Lon: pair[0]}, true
}

func toStore(s *RawStore, point domain.GeoPoint) domain.Store {
	store := domain.Store{
		ID:    s.ID,
		Name:  s.Name,
		Brand: s.Brand,
		Type:  s.Type,
		Address: domain.Address{
			Street:  s.Address.Street,
			Zip:     s.Address.Zip,
			City:    s.Address.City,
			Country: s.Address.Country,
		},
		Coordinates: point,
	}
	if s.DistanceKm != nil {
		d := *s.DistanceKm
		store.DistanceKm = &d
	}
	return store
}

func toOffer(c RawClearance) domain.Offer {
	return domain.Offer{
		ProductDescription: c.Product.Description,
		CategoryEn:         c.Product.Categories.En,
		CategoryDa:         c.Product.Categories.Da,
		ImageURL:           c.Product.Image,
		EAN:                firstNonEmpty(c.Product.EAN, c.Offer.EAN),
		Currency:           c.Offer.Currency,
		NewPrice:           c.Offer.NewPrice,
		OriginalPrice:      c.Offer.OriginalPrice,
		Discount:           c.Offer.Discount,
		PercentDiscount:    c.Offer.PercentDiscount,
		Stock:              c.Offer.Stock,
		StockUnit:          c.Offer.StockUnit,
		StartTime:          parseTime(c.Offer.StartTime),
		EndTime:            parseTime(c.Offer.EndTime),
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseTime returns the zero time for anything it cannot read.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
