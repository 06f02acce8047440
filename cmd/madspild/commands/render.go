package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/olekukonko/tablewriter"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/filter"
	"github.com/samirrijal/madspild/internal/core/usecases"
	"github.com/samirrijal/madspild/internal/pkg/geospatial"
)

var copenhagen = mustLoadLocation("Europe/Copenhagen")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// renderSearch prints a summary line and one table row per visible offer.
func renderSearch(w io.Writer, snap usecases.Snapshot) {
	req := snap.Request
	if req != nil {
		where := req.Label
		if where == "" {
			where = fmt.Sprintf("%.4f, %.4f", req.Center.Lat, req.Center.Lon)
		}
		fmt.Fprintf(w, "\n=== %s, %.0f km ===\n", where, req.RadiusKm)
		if req.Capped {
			fmt.Fprintf(w, "Requested %.1f km, searched the maximum of %.0f km instead.\n", req.RequestedKm, req.RadiusKm)
		}
	}
	view := snap.View
	if len(view.Terms) > 0 {
		fmt.Fprintf(w, "Filters: %s\n", strings.Join(view.Terms, ", "))
	}

	if msg := emptyMessage(view.EmptyReason); msg != "" {
		fmt.Fprintln(w, msg)
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Store", "Distance", "Product", "Category", "Price", "Before", "Discount", "Stock", "Valid until")

	offers := 0
	for _, b := range view.Stores {
		dist := "-"
		if d, ok := storeDistance(b.Store, req); ok {
			dist = fmt.Sprintf("%.2f km", d)
		}
		for _, o := range view.MatchedOffers(b.Store.ID) {
			table.Append(
				b.Store.Name,
				dist,
				o.ProductDescription,
				categoryLeaf(o.CategoryEn),
				formatPrice(o.NewPrice),
				formatPrice(o.OriginalPrice),
				fmt.Sprintf("-%.0f%%", o.PercentDiscount),
				formatStock(o.Stock, o.StockUnit),
				formatEndTime(o.EndTime),
			)
			offers++
		}
	}
	table.Render()

	fmt.Fprintf(w, "%d offers in %d stores\n", offers, len(view.Stores))
}

func renderQuickFilters(w io.Writer, list []filter.QuickFilter) {
	table := tablewriter.NewWriter(w)
	table.Header("English", "Danish", "Featured")
	for _, q := range list {
		featured := ""
		if q.Featured {
			featured = "yes"
		}
		table.Append(q.EN, q.DA, featured)
	}
	table.Render()
}

func writeEvent(w io.Writer, ev *domain.SessionEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func emptyMessage(reason domain.EmptyReason) string {
	switch reason {
	case domain.EmptyNoOffers:
		return "No stores with offers found in this area."
	case domain.EmptyNoMatches:
		return "No offers match your filters. Try other terms or clear the filters."
	case domain.EmptyNotSearched:
		return "No search has been made."
	}
	return ""
}

// storeDistance prefers the upstream distance and falls back to the great-circle
// distance from the search center.
func storeDistance(s domain.Store, req *domain.SearchRequest) (float64, bool) {
	if s.DistanceKm != nil {
		return *s.DistanceKm, true
	}
	if req == nil {
		return 0, false
	}
	return geospatial.HaversineKm(req.Center.Lat, req.Center.Lon, s.Coordinates.Lat, s.Coordinates.Lon), true
}

func formatPrice(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f kr", v)
	}
	return fmt.Sprintf("%.2f kr", v)
}

// formatStock shows fractions below one unit in grams.
func formatStock(stock float64, unit string) string {
	switch {
	case stock > 0 && stock < 1:
		return fmt.Sprintf("%.0f g", stock*1000)
	case stock == math.Trunc(stock):
		return strings.TrimSpace(fmt.Sprintf("%.0f %s", stock, unit))
	}
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", stock, unit))
}

// categoryLeaf returns the last segment of a ">"-separated category path.
func categoryLeaf(path string) string {
	if i := strings.LastIndex(path, ">"); i >= 0 {
		return strings.TrimSpace(path[i+1:])
	}
	return path
}

func formatEndTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(copenhagen).Format("02 Jan 15:04")
}
