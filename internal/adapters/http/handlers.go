package http

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/filter"
	"github.com/samirrijal/madspild/internal/core/ports"
	"github.com/samirrijal/madspild/internal/core/usecases"
)

// Search modes accepted by SearchHandler.
const (
	modeCoordinates = "coordinates"
	modeLocation    = "location"
	modeGeolocation = "geolocation"
	modeViewport    = "viewport"
)

// searchRequest is the body of POST /v1/sessions/:id/search.
type searchRequest struct {
	Mode     string  `json:"mode"`
	RadiusKm float64 `json:"radius_km"`

	// coordinates
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`

	// location
	Query string `json:"query"`

	// viewport; center defaults to the middle of bounds
	Bounds *domain.Bounds   `json:"bounds"`
	Center *domain.GeoPoint `json:"center"`

	// geolocation
	Geolocation *geolocationReport `json:"geolocation"`
}

// geolocationReport is the device position as the client obtained it, or the reason it could not.
type geolocationReport struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Error string   `json:"error"`
}

// locator turns the report into a ports.Locator.
func (g *geolocationReport) locator() ports.Locator {
	return ports.LocatorFunc(func(context.Context) (domain.GeoPoint, error) {
		if g == nil {
			return domain.GeoPoint{}, domain.ErrGeolocationUnavailable
		}
		if g.Error != "" {
			return domain.GeoPoint{}, errors.New(g.Error)
		}
		if g.Lat == nil || g.Lon == nil {
			return domain.GeoPoint{}, errors.New("no position reported")
		}
		return domain.GeoPoint{Lat: *g.Lat, Lon: *g.Lon}, nil
	})
}

// session resolves the :id parameter.
func session(c *fiber.Ctx, deps *Dependencies) (*usecases.SearchService, error) {
	return deps.Sessions.Get(c.Params("id"))
}

// CreateSessionHandler starts a new search session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := deps.Sessions.Create()
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/sessions/" + s.ID())
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": s.ID()})
	}
}

// GetSessionHandler returns the session snapshot.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := session(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(s.Snapshot())
	}
}

// DeleteSessionHandler ends a session.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Delete(c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SearchHandler runs a search in one of four modes and returns the new snapshot.
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := session(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}

		var req searchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		ctx := c.UserContext()
		var snap usecases.Snapshot
		switch req.Mode {
		case modeCoordinates, "":
			if req.Lat == nil || req.Lon == nil {
				return errBadRequest(c, "lat and lon are required")
			}
			snap, err = s.Search(ctx, domain.SearchRequest{
				Center:   domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon},
				RadiusKm: req.RadiusKm,
				Source:   domain.SourceExplicitLocation,
			})
		case modeLocation:
			if strings.TrimSpace(req.Query) == "" {
				return errBadRequest(c, "query is required")
			}
			if len(req.Query) > 200 {
				return errBadRequest(c, "query too long (max 200 characters)")
			}
			snap, err = s.SearchLocation(ctx, req.Query, req.RadiusKm)
		case modeGeolocation:
			snap, err = s.SearchGeolocation(ctx, req.Geolocation.locator(), req.RadiusKm)
		case modeViewport:
			if req.Bounds == nil {
				return errBadRequest(c, "bounds are required")
			}
			center := req.Bounds.Center()
			if req.Center != nil {
				center = *req.Center
			}
			snap, err = s.SearchViewport(ctx, req.Bounds.Viewport(center))
		default:
			return errBadRequest(c, "mode must be one of coordinates, location, geolocation, viewport")
		}
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(snap)
	}
}

// ListStoresHandler returns the visible stores with their matched offers, paginated.
func ListStoresHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := session(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		offset, limit := parseStorePage(c)
		page := pageStores(s.View(), offset, limit)
		SetLinkHeaders(c, page.Pagination)
		return c.JSON(page)
	}
}

// GetStoreHandler returns one visible store with all of its matched offers.
func GetStoreHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := session(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		b, err := s.Store(c.Params("storeID"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(b)
	}
}

// AddFilterHandler adds a free-text filter term.
func AddFilterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := session(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		var body struct {
			Term string `json:"term"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if len(body.Term) > 100 {
			return errBadRequest(c, "term too long (max 100 characters)")
		}
		return c.JSON(s.AddTerm(c.UserContext(), body.Term))
	}
}

// AddQuickFilterHandler adds a quick filter by its English or Danish name.
func AddQuickFilterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := session(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		view, err := s.AddQuickFilter(c.UserContext(), pathParam(c, "name"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(view)
	}
}

// RemoveFilterHandler removes one term.
func RemoveFilterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := session(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(s.RemoveTerm(c.UserContext(), pathParam(c, "term")))
	}
}

// ClearFiltersHandler removes every term.
func ClearFiltersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := session(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(s.ClearAll(c.UserContext()))
	}
}

// QuickFiltersHandler lists the quick filters.
func QuickFiltersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(filter.QuickFilters())
	}
}

// GeocodeHandler resolves an address or Danish postal code.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Locations == nil {
			return errFromDomain(c, domain.ErrNotConfigured)
		}
		q := c.Query("q")
		if strings.TrimSpace(q) == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(q) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		loc, err := deps.Locations.Locate(c.UserContext(), q)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(loc)
	}
}

// pathParam returns a decoded path parameter; filter terms may carry non-ASCII letters.
func pathParam(c *fiber.Ctx, key string) string {
	raw := c.Params(key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
