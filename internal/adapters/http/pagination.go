package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/madspild/internal/core/domain"
)

const (
	defaultStorePageSize = 50
	maxStorePageSize     = 200
)

// StorePage is one page of the stores visible in a session, each with its matched offers.
type StorePage struct {
	Data       []domain.StoreOfferBundle `json:"data"`
	Pagination Pagination                `json:"pagination"`
	// Offers counts matched offers across all visible stores, not just this page.
	Offers int `json:"matched_offers"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// parseStorePage reads offset and limit. Out-of-range values fall back to defaults.
func parseStorePage(c *fiber.Ctx) (offset, limit int) {
	offset = c.QueryInt("offset", 0)
	limit = c.QueryInt("limit", defaultStorePageSize)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxStorePageSize {
		limit = defaultStorePageSize
	}
	return offset, limit
}

// pageStores slices the view in its display order.
func pageStores(view domain.View, offset, limit int) StorePage {
	total := len(view.Stores)
	page := StorePage{
		Data:       make([]domain.StoreOfferBundle, 0, min(limit, max(total-offset, 0))),
		Pagination: Pagination{Offset: offset, Limit: limit, Total: total},
	}
	for _, offers := range view.Matched {
		page.Offers += len(offers)
	}
	for i := offset; i < total && i < offset+limit; i++ {
		st := view.Stores[i].Store
		page.Data = append(page.Data, domain.StoreOfferBundle{Store: st, Offers: view.MatchedOffers(st.ID)})
	}
	return page
}

// SetLinkHeaders adds RFC 8288 Link headers for a session's store list.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()
	link := func(offset int, rel string) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, base, offset, p.Limit, rel)
	}

	links := []string{link(0, "first")}
	if p.Offset > 0 {
		links = append(links, link(max(p.Offset-p.Limit, 0), "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}
	links = append(links, link(max(p.Total-p.Limit, 0), "last"))

	c.Set("Link", strings.Join(links, ", "))
}
