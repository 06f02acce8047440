package domain

import (
	"time"
)

// Address is a store's postal address.
type Address struct {
	Street  string `json:"street"`
	Zip     string `json:"zip"`
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
}

// Store is a retail store that publishes clearance offers.
type Store struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Type        string   `json:"type,omitempty"`
	Address     Address  `json:"address"`
	Coordinates GeoPoint `json:"coordinates"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
}

// Offer is a discounted near-expiry product listed by a store.
type Offer struct {
	ProductDescription string    `json:"product_description"`
	CategoryEn         string    `json:"category_en,omitempty"`
	CategoryDa         string    `json:"category_da,omitempty"`
	ImageURL           string    `json:"image_url,omitempty"`
	EAN                string    `json:"ean,omitempty"`
	Currency           string    `json:"currency,omitempty"`
	NewPrice           float64   `json:"new_price"`
	OriginalPrice      float64   `json:"original_price"`
	Discount           float64   `json:"discount"`
	PercentDiscount    float64   `json:"percent_discount"`
	Stock              float64   `json:"stock"`
	StockUnit          string    `json:"stock_unit"`
	StartTime          time.Time `json:"start_time,omitempty"`
	EndTime            time.Time `json:"end_time"`
}

// StoreOfferBundle is a store with its offers in the order the upstream returned them.
type StoreOfferBundle struct {
	Store  Store   `json:"store"`
	Offers []Offer `json:"offers"`
}

// Catalog is the normalized result of the latest successful search.
type Catalog []StoreOfferBundle

// OfferCount returns the total number of offers across all stores.
func (c Catalog) OfferCount() int {
	n := 0
	for _, b := range c {
		n += len(b.Offers)
	}
	return n
}

// EmptyReason explains why a view has no stores.
type EmptyReason string

const (
	EmptyNone        EmptyReason = ""
	EmptyNoOffers    EmptyReason = "no_offers_in_area"
	EmptyNoMatches   EmptyReason = "no_matching_offers"
	EmptyNotSearched EmptyReason = "not_searched"
)

// View is a catalog seen through the active filter terms.
type View struct {
	Stores      []StoreOfferBundle `json:"stores"`
	Matched     map[string][]Offer `json:"matched"` // keyed by store id
	Terms       []string           `json:"terms"`
	Filtered    bool               `json:"filtered"`
	EmptyReason EmptyReason        `json:"empty_reason,omitempty"`
}

// MatchedOffers returns the offers of the given store that are visible in this view.
func (v View) MatchedOffers(storeID string) []Offer {
	return v.Matched[storeID]
}

// SearchState is the lifecycle position of a search session.
type SearchState string

const (
	StateIdle      SearchState = "idle"
	StateSearching SearchState = "searching"
	StateReady     SearchState = "ready"
	StateFailed    SearchState = "failed"
)

// SessionEvent is published whenever a search session changes.
type SessionEvent struct {
	SessionID  string         `json:"session_id"`
	Kind       string         `json:"kind"`
	Generation uint64         `json:"generation"`
	State      SearchState    `json:"state"`
	Request    *SearchRequest `json:"request,omitempty"`
	Stores     int            `json:"stores"`
	Offers     int            `json:"offers"`
	Terms      []string       `json:"terms,omitempty"`
	Error      string         `json:"error,omitempty"`
	Time       time.Time      `json:"time"`
}

// Session event kinds.
const (
	EventSearchStarted   = "search.started"
	EventSearchCompleted = "search.completed"
	EventSearchFailed    = "search.failed"
	EventFiltersChanged  = "filters.changed"
)

// Location is a geocoded place.
type Location struct {
	Point       GeoPoint `json:"point"`
	DisplayName string   `json:"display_name"`
}
