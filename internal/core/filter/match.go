package filter

import (
	"strings"

	"github.com/samirrijal/madspild/internal/core/domain"
)

// MatchesAnyTerm reports whether at least one term is a case-insensitive substring of
// the offer's description, English category or Danish category. Lowercasing is
// locale-naive: "brød" matches "BRØD" but not "brod".
func MatchesAnyTerm(offer domain.Offer, terms Set) bool {
	if len(terms) == 0 {
		return false
	}
	fields := [3]string{
		strings.ToLower(offer.ProductDescription),
		strings.ToLower(offer.CategoryEn),
		strings.ToLower(offer.CategoryDa),
	}
	for _, t := range terms {
		for _, needle := range t.needles() {
			if needle == "" {
				continue
			}
			for _, f := range fields {
				if strings.Contains(f, needle) {
					return true
				}
			}
		}
	}
	return false
}

// FilterCatalog filters the catalog by terms.
//
// With no terms the whole catalog is visible and every store maps to all of its offers;
// that is not the same as a filter that matched nothing. With terms, a store is visible
// when at least one of its offers matches, and only matching offers are kept, in order.
// Stores that share an id share one entry in Matched.
func FilterCatalog(cat domain.Catalog, terms Set) domain.View {
	if cat == nil {
		cat = domain.Catalog{}
	}

	view := domain.View{
		Matched: make(map[string][]domain.Offer, len(cat)),
		Terms:   terms.Texts(),
	}

	if len(terms) == 0 {
		view.Stores = cat
		for _, b := range cat {
			view.Matched[b.Store.ID] = append(view.Matched[b.Store.ID], b.Offers...)
		}
		if len(cat) == 0 {
			view.EmptyReason = domain.EmptyNoOffers
		}
		return view
	}

	view.Filtered = true
	view.Stores = make([]domain.StoreOfferBundle, 0, len(cat))
	for _, b := range cat {
		var matched []domain.Offer
		for _, o := range b.Offers {
			if MatchesAnyTerm(o, terms) {
				matched = append(matched, o)
			}
		}
		if len(matched) == 0 {
			continue
		}
		view.Stores = append(view.Stores, b)
		view.Matched[b.Store.ID] = append(view.Matched[b.Store.ID], matched...)
	}

	switch {
	case len(cat) == 0:
		view.EmptyReason = domain.EmptyNoOffers
	case len(view.Stores) == 0:
		view.EmptyReason = domain.EmptyNoMatches
	}
	return view
}
