package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/samirrijal/madspild/internal/core/catalog"
	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/filter"
	"github.com/samirrijal/madspild/internal/core/geomath"
	"github.com/samirrijal/madspild/internal/core/ports"
	"github.com/samirrijal/madspild/internal/pkg/metrics"
)

// Snapshot is a consistent copy of a session's search state.
type Snapshot struct {
	SessionID  string                `json:"session_id"`
	Generation uint64                `json:"generation"`
	State      domain.SearchState    `json:"state"`
	Request    *domain.SearchRequest `json:"request,omitempty"`
	// Area is the bounding box of the searched circle, for fitting a map to it.
	Area        *domain.Bounds `json:"area,omitempty"`
	Error       string         `json:"error,omitempty"`
	ActiveTerms filter.Set     `json:"active_terms"`
	View        domain.View    `json:"view"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// SearchService owns one search session: the catalog of the latest successful
// search, the active filter terms and the view derived from both.
//
// A search may overlap with newer searches. Only the most recent one is applied;
// older ones resolve with domain.ErrSearchSuperseded. Failed searches leave the
// catalog and view as they were.
type SearchService struct {
	id        string
	offers    ports.OfferLookup
	locations *LocationService
	events    ports.EventPublisher
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	generation uint64
	state      domain.SearchState
	request    *domain.SearchRequest
	catalog    domain.Catalog
	terms      filter.Set
	view       domain.View
	lastErr    error
	updatedAt  time.Time
	// lastSeen is bumped by reads that do not change state.
	lastSeen time.Time
}

// NewSearchService creates a new SearchService. locations and events may be nil.
func NewSearchService(id string, offers ports.OfferLookup, locations *LocationService, events ports.EventPublisher) *SearchService {
	s := &SearchService{
		id:        id,
		offers:    offers,
		locations: locations,
		events:    events,
		logger:    slog.Default().With("session_id", id),
		now:       time.Now,
		state:     domain.StateIdle,
	}
	s.updatedAt = s.now()
	s.refreshLocked()
	return s
}

// ID returns the session id.
func (s *SearchService) ID() string { return s.id }

// Search looks up offers around req.Center.
//
// A zero radius means geomath.DefaultRadiusKm; radii above geomath.MaxRadiusKm are
// reduced and flagged as capped. The radius is rounded up to whole kilometres before
// the lookup. On success the catalog is replaced and the filter terms are cleared.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) (Snapshot, error) {
	if err := prepareRequest(&req); err != nil {
		metrics.SearchesTotal.WithLabelValues(string(req.Source), "invalid").Inc()
		return Snapshot{}, err
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = domain.StateSearching
	s.request = &req
	s.updatedAt = s.now()
	started := s.eventLocked(domain.EventSearchStarted, gen, nil)
	s.mu.Unlock()

	s.emit(ctx, started)
	metrics.SearchRadiusKm.Observe(req.RadiusKm)
	if req.Capped {
		metrics.RadiusCapped.Inc()
	}

	cat, err := s.lookup(ctx, req)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		metrics.SearchesTotal.WithLabelValues(string(req.Source), "superseded").Inc()
		s.logger.DebugContext(ctx, "discarding stale search", "generation", gen)
		return Snapshot{}, domain.ErrSearchSuperseded
	}
	s.updatedAt = s.now()
	if err != nil {
		s.state = domain.StateFailed
		s.lastErr = err
		failed := s.eventLocked(domain.EventSearchFailed, gen, err)
		s.mu.Unlock()

		metrics.SearchesTotal.WithLabelValues(string(req.Source), "failed").Inc()
		s.logger.WarnContext(ctx, "search failed", "generation", gen, "radius_km", req.RadiusKm, "error", err)
		s.emit(ctx, failed)
		return Snapshot{}, err
	}
	s.catalog = cat
	s.terms = filter.Clear()
	s.state = domain.StateReady
	s.lastErr = nil
	s.refreshLocked()
	snap := s.snapshotLocked()
	completed := s.eventLocked(domain.EventSearchCompleted, gen, nil)
	s.mu.Unlock()

	metrics.SearchesTotal.WithLabelValues(string(req.Source), "ok").Inc()
	metrics.CatalogStores.Observe(float64(len(cat)))
	s.logger.InfoContext(ctx, "search completed",
		"generation", gen,
		"lat", req.Center.Lat,
		"lon", req.Center.Lon,
		"radius_km", req.RadiusKm,
		"stores", len(cat),
		"offers", cat.OfferCount(),
	)
	s.emit(ctx, completed)
	return snap, nil
}

// SearchViewport searches the circle that covers the visible map region.
func (s *SearchService) SearchViewport(ctx context.Context, bounds domain.ViewportBounds) (Snapshot, error) {
	if !bounds.Center.Valid() {
		return Snapshot{}, domain.Invalid("center", "coordinates out of range")
	}
	for _, c := range bounds.Corners() {
		if !c.Valid() {
			return Snapshot{}, domain.Invalid("bounds", "corner coordinates out of range")
		}
	}

	r := geomath.ResolveViewportRadius(bounds)
	if r.WasCapped {
		s.logger.InfoContext(ctx, "viewport radius capped", "requested_km", r.RequestedKm, "radius_km", r.RadiusKm)
	}
	return s.Search(ctx, domain.SearchRequest{
		Center:      bounds.Center,
		RadiusKm:    r.RadiusKm,
		Source:      domain.SourceViewport,
		Capped:      r.WasCapped,
		RequestedKm: r.RequestedKm,
	})
}

// SearchGeolocation searches around the device position reported by locator.
func (s *SearchService) SearchGeolocation(ctx context.Context, locator ports.Locator, radiusKm float64) (Snapshot, error) {
	if locator == nil {
		return Snapshot{}, domain.ErrGeolocationUnavailable
	}
	pos, err := locator.CurrentPosition(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrGeolocationUnavailable) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("%w: %v", domain.ErrGeolocationUnavailable, err)
	}
	if !pos.Valid() {
		return Snapshot{}, fmt.Errorf("%w: position out of range", domain.ErrGeolocationUnavailable)
	}
	return s.Search(ctx, domain.SearchRequest{
		Center:   pos,
		RadiusKm: radiusKm,
		Source:   domain.SourceGeolocation,
	})
}

// SearchLocation geocodes query and searches around the match.
func (s *SearchService) SearchLocation(ctx context.Context, query string, radiusKm float64) (Snapshot, error) {
	if s.locations == nil {
		return Snapshot{}, fmt.Errorf("geocoding: %w", domain.ErrNotConfigured)
	}
	loc, err := s.locations.Locate(ctx, query)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Search(ctx, domain.SearchRequest{
		Center:   loc.Point,
		RadiusKm: radiusKm,
		Source:   domain.SourceExplicitLocation,
		Label:    loc.DisplayName,
	})
}

// AddTerm adds a free-text filter term and returns the new view.
func (s *SearchService) AddTerm(ctx context.Context, term string) domain.View {
	return s.mutateTerms(ctx, "add", func(t filter.Set) filter.Set { return t.Add(term) })
}

// AddQuickFilter adds the named quick filter, matching both its English and Danish name.
func (s *SearchService) AddQuickFilter(ctx context.Context, name string) (domain.View, error) {
	q, ok := filter.LookupQuickFilter(name)
	if !ok {
		return domain.View{}, domain.Invalid("name", fmt.Sprintf("unknown quick filter %q", name))
	}
	return s.mutateTerms(ctx, "add_quick", func(t filter.Set) filter.Set { return t.AddTerm(q.Term()) }), nil
}

// RemoveTerm removes the term with exactly this text.
func (s *SearchService) RemoveTerm(ctx context.Context, term string) domain.View {
	return s.mutateTerms(ctx, "remove", func(t filter.Set) filter.Set { return t.Remove(term) })
}

// ClearAll removes every filter term.
func (s *SearchService) ClearAll(ctx context.Context) domain.View {
	return s.mutateTerms(ctx, "clear", func(filter.Set) filter.Set { return filter.Clear() })
}

// Snapshot returns the current state.
func (s *SearchService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// View returns the current view.
func (s *SearchService) View() domain.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Store returns a visible store and its matched offers.
func (s *SearchService) Store(storeID string) (domain.StoreOfferBundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.view.Stores {
		if b.Store.ID == storeID {
			return domain.StoreOfferBundle{Store: b.Store, Offers: s.view.MatchedOffers(storeID)}, nil
		}
	}
	return domain.StoreOfferBundle{}, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, storeID)
}

// Touch marks the session as used without changing its state.
func (s *SearchService) Touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// LastActive returns when the session last changed or was last read.
func (s *SearchService) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSeen.After(s.updatedAt) {
		return s.lastSeen
	}
	return s.updatedAt
}

func (s *SearchService) lookup(ctx context.Context, req domain.SearchRequest) (domain.Catalog, error) {
	body, err := s.offers.FetchOffers(ctx, req.Center, int(req.RadiusKm))
	if err != nil {
		var ue *domain.UpstreamError
		if errors.As(err, &ue) {
			ue.RadiusKm = req.RadiusKm
		}
		return nil, fmt.Errorf("fetch offers: %w", err)
	}

	raw, stats, err := catalog.Decode(body)
	if err != nil {
		return nil, err
	}
	cat := catalog.Normalize(raw)

	droppedStores := len(raw) - len(cat)
	metrics.RecordsDropped.WithLabelValues("entry").Add(float64(stats.DroppedEntries))
	metrics.RecordsDropped.WithLabelValues("clearance").Add(float64(stats.DroppedClearances))
	metrics.RecordsDropped.WithLabelValues("clearance_list").Add(float64(stats.MalformedClearanceLists))
	metrics.RecordsDropped.WithLabelValues("store").Add(float64(droppedStores))
	if stats.DroppedEntries+stats.DroppedClearances+stats.MalformedClearanceLists+droppedStores > 0 {
		s.logger.DebugContext(ctx, "dropped malformed records",
			"entries", stats.DroppedEntries,
			"clearances", stats.DroppedClearances,
			"clearance_lists", stats.MalformedClearanceLists,
			"stores", droppedStores,
		)
	}
	return cat, nil
}

func (s *SearchService) mutateTerms(ctx context.Context, op string, fn func(filter.Set) filter.Set) domain.View {
	s.mu.Lock()
	s.terms = fn(s.terms)
	s.refreshLocked()
	s.updatedAt = s.now()
	view := s.view
	ev := s.eventLocked(domain.EventFiltersChanged, s.generation, nil)
	s.mu.Unlock()

	metrics.FilterOps.WithLabelValues(op).Inc()
	s.emit(ctx, ev)
	return view
}

// refreshLocked recomputes the view from the current catalog and terms.
func (s *SearchService) refreshLocked() {
	s.view = filter.FilterCatalog(s.catalog, s.terms)
	if s.catalog == nil {
		s.view.EmptyReason = domain.EmptyNotSearched
	}
}

func (s *SearchService) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:   s.id,
		Generation:  s.generation,
		State:       s.state,
		ActiveTerms: s.terms,
		View:        s.view,
		UpdatedAt:   s.updatedAt,
	}
	if snap.ActiveTerms == nil {
		snap.ActiveTerms = filter.Set{}
	}
	if s.request != nil {
		req := *s.request
		snap.Request = &req
		area := geomath.SearchArea(req.Center, req.RadiusKm)
		snap.Area = &area
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	return snap
}

// eventLocked captures the session state for an event. It returns nil when
// nothing is listening.
func (s *SearchService) eventLocked(kind string, gen uint64, cause error) *domain.SessionEvent {
	if s.events == nil {
		return nil
	}
	ev := &domain.SessionEvent{
		SessionID:  s.id,
		Kind:       kind,
		Generation: gen,
		State:      s.state,
		Stores:     len(s.view.Stores),
		Offers:     countOffers(s.view),
		Terms:      s.terms.Texts(),
		Time:       s.now().UTC(),
	}
	if s.request != nil {
		req := *s.request
		ev.Request = &req
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	return ev
}

func (s *SearchService) emit(ctx context.Context, ev *domain.SessionEvent) {
	if ev == nil {
		return
	}
	if err := s.events.PublishSessionEvent(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "publish session event", "kind", ev.Kind, "error", err)
	}
}

// prepareRequest validates req and settles its radius.
func prepareRequest(req *domain.SearchRequest) error {
	if req.Source == "" {
		req.Source = domain.SourceExplicitLocation
	}
	if !req.Source.Valid() {
		return domain.Invalid("source", fmt.Sprintf("unknown search source %q", req.Source))
	}
	if !req.Center.Valid() {
		return domain.Invalid("center", "coordinates out of range")
	}

	km := req.RadiusKm
	switch {
	case math.IsNaN(km) || math.IsInf(km, 0) || km < 0:
		return domain.Invalid("radius_km", "must be a positive number")
	case km == 0:
		km = geomath.DefaultRadiusKm
	}
	if clamped, capped := geomath.ClampRadius(km); capped {
		req.Capped = true
		if req.RequestedKm == 0 {
			req.RequestedKm = km
		}
		km = clamped
	}
	req.RadiusKm = geomath.ResolveSearchRadius(km)
	return nil
}

func countOffers(v domain.View) int {
	n := 0
	for _, offers := range v.Matched {
		n += len(offers)
	}
	return n
}
