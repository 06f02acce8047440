// Package catalog validates offer-lookup responses into a clean store catalog.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/madspild/internal/core/domain"
)

// RawOfferRecord is one untrusted entry of the lookup response.
type RawOfferRecord struct {
	Store      *RawStore      `json:"store"`
	Clearances []RawClearance `json:"clearances"`
}

// RawStore is the store descriptor as delivered by the lookup.
type RawStore struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Type        string          `json:"type"`
	Address     RawAddress      `json:"address"`
	Coordinates json.RawMessage `json:"coordinates"` // [lon, lat]
	DistanceKm  *float64        `json:"distance_km"`
}

type RawAddress struct {
	Street  string `json:"street"`
	Zip     string `json:"zip"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// RawClearance is a single clearance entry of a store.
type RawClearance struct {
	Offer   RawOffer   `json:"offer"`
	Product RawProduct `json:"product"`
}

type RawOffer struct {
	Currency        string  `json:"currency"`
	Discount        float64 `json:"discount"`
	EAN             string  `json:"ean"`
	NewPrice        float64 `json:"newPrice"`
	OriginalPrice   float64 `json:"originalPrice"`
	PercentDiscount float64 `json:"percentDiscount"`
	Stock           float64 `json:"stock"`
	StockUnit       string  `json:"stockUnit"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
}

type RawProduct struct {
	Description string        `json:"description"`
	EAN         string        `json:"ean"`
	Image       string        `json:"image"`
	Categories  RawCategories `json:"categories"`
}

type RawCategories struct {
	En string `json:"en"`
	Da string `json:"da"`
}

// rawEntry defers decoding of the nested parts so one bad field does not sink the whole response.
type rawEntry struct {
	Store      json.RawMessage `json:"store"`
	Clearances json.RawMessage `json:"clearances"`
}

// DecodeStats counts what Decode had to throw away.
type DecodeStats struct {
	Entries                 int `json:"entries"`
	DroppedEntries          int `json:"dropped_entries"`
	DroppedClearances       int `json:"dropped_clearances"`
	MalformedClearanceLists int `json:"malformed_clearance_lists"`
}

// Decode parses a lookup response body. A body that is not a JSON array is an upstream
// error. Entries that are not objects and clearances that fail to decode are dropped and
// counted. Store fields other than coordinates are read leniently, so a store is only
// lost when Normalize rejects its coordinates.
func Decode(body []byte) ([]RawOfferRecord, DecodeStats, error) {
	var stats DecodeStats

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, stats, fmt.Errorf("%w: response is not a JSON array", domain.ErrUpstream)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, stats, fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	stats.Entries = len(entries)

	records := make([]RawOfferRecord, 0, len(entries))
	for _, data := range entries {
		var e rawEntry
		if err := json.Unmarshal(data, &e); err != nil {
			stats.DroppedEntries++
			continue
		}

		rec := RawOfferRecord{Store: decodeStore(e.Store)}

		items, ok := clearanceItems(e.Clearances)
		if !ok {
			stats.MalformedClearanceLists++
		}
		for _, c := range items {
			var cl RawClearance
			if err := json.Unmarshal(c, &cl); err != nil {
				stats.DroppedClearances++
				continue
			}
			rec.Clearances = append(rec.Clearances, cl)
		}
		records = append(records, rec)
	}

	return records, stats, nil
}

// clearanceItems splits the clearances value. Absent or null is an empty list;
// anything that is not an array is reported as malformed and treated as empty.
func clearanceItems(raw json.RawMessage) ([]json.RawMessage, bool) {
	if isNull(raw) {
		return nil, true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// decodeStore reads a store object field by field. Only a non-object store yields nil;
// mistyped descriptive fields come back empty.
func decodeStore(raw json.RawMessage) *RawStore {
	if isNull(raw) {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil
	}

	s := &RawStore{
		ID:          lenientString(fields["id"]),
		Name:        lenientString(fields["name"]),
		Brand:       lenientString(fields["brand"]),
		Type:        lenientString(fields["type"]),
		Coordinates: fields["coordinates"],
		DistanceKm:  lenientFloat(fields["distance_km"]),
	}

	var addr map[string]json.RawMessage
	if json.Unmarshal(fields["address"], &addr) == nil {
		s.Address = RawAddress{
			Street:  lenientString(addr["street"]),
			Zip:     lenientString(addr["zip"]),
			City:    lenientString(addr["city"]),
			Country: lenientString(addr["country"]),
		}
	}
	return s
}

// lenientString accepts a JSON string or number. Anything else is empty.
func lenientString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// lenientFloat accepts a JSON number or a numeric string. Non-finite values are dropped.
func lenientFloat(raw json.RawMessage) *float64 {
	if isNull(raw) {
		return nil
	}
	var f float64
	if json.Unmarshal(raw, &f) != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		f = v
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
