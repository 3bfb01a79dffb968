package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kpetrou/villago/internal/core/domain"
	"github.com/kpetrou/villago/internal/core/ports"
	"github.com/kpetrou/villago/internal/pkg/metrics"
)

// fetchTimeout bounds one round-trip pair against the routing engine. The
// planner has its own per-request timeout; this is the outer guard for the
// detached fetch goroutine.
const fetchTimeout = 2 * time.Minute

// JourneySession owns the journey state for one user session. All reads go
// through Snapshot and all writes through the action methods; there is no
// other way to touch the state.
//
// Route fetches run detached. Every fetch is tagged with the generation
// current when it was issued, and a result is applied only if that
// generation is still current on arrival — a newer selection or origin
// change supersedes in-flight work, whose results are then discarded.
type JourneySession struct {
	planner ports.RoutePlanner

	mu           sync.Mutex
	gen          uint64
	origin       *domain.GeoPoint
	originSource domain.OriginSource
	originCity   string
	village      *domain.Village
	forward      []domain.Itinerary
	retRoutes    []domain.Itinerary
	loading      bool
	errMsg       string
	selected     *domain.RouteRef
	lastActive   time.Time

	inflight sync.WaitGroup
	now      func() time.Time
}

// NewJourneySession creates an empty session.
func NewJourneySession(planner ports.RoutePlanner) *JourneySession {
	s := &JourneySession{planner: planner, now: time.Now}
	s.lastActive = s.now()
	return s
}

// SetLocatedOrigin records a device-derived origin. A located origin is
// authoritative and triggers a refetch when a village is already selected.
func (s *JourneySession) SetLocatedOrigin(pt domain.GeoPoint) error {
	if !pt.Valid() {
		return fmt.Errorf("invalid origin coordinate (%v,%v)", pt.Lat, pt.Lon)
	}

	s.mu.Lock()
	s.touch()
	s.origin = &pt
	s.originSource = domain.OriginLocated
	s.originCity = ""
	s.refetchLocked()
	s.mu.Unlock()
	return nil
}

// SetCityOrigin records a reference-city origin. It never overrides an
// already-located origin: device location stays authoritative.
func (s *JourneySession) SetCityOrigin(city domain.City) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.originSource == domain.OriginLocated {
		return
	}
	pt := city.Location
	s.origin = &pt
	s.originSource = domain.OriginCity
	s.originCity = city.Name
	s.refetchLocked()
}

// HasLocatedOrigin reports whether a device-derived origin is already set,
// so callers can skip redundant geolocation attempts.
func (s *JourneySession) HasLocatedOrigin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.originSource == domain.OriginLocated
}

// SelectVillage makes the village the current destination. With a known
// origin this starts a fresh round-trip fetch; without one the session sits
// in the no-origin state and no fetch is issued.
func (s *JourneySession) SelectVillage(village domain.Village) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	v := village
	s.village = &v
	s.invalidateRoutesLocked()

	if s.origin == nil {
		return
	}
	s.startFetchLocked()
}

// ClearSelection drops the destination, the route lists, and any route
// selection.
func (s *JourneySession) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.village = nil
	s.invalidateRoutesLocked()
}

// ToggleRoute selects the itinerary at (direction, index), or deselects it
// if it is already the selection.
func (s *JourneySession) ToggleRoute(direction domain.Direction, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if !direction.Valid() {
		return fmt.Errorf("unknown direction %q", direction)
	}
	list := s.forward
	if direction == domain.DirectionReturn {
		list = s.retRoutes
	}
	if index < 0 || index >= len(list) {
		return fmt.Errorf("route index %d out of range for %s (%d routes)", index, direction, len(list))
	}

	if s.selected != nil && s.selected.Direction == direction && s.selected.Index == index {
		s.selected = nil
		return nil
	}
	s.selected = &domain.RouteRef{Direction: direction, Index: index}
	return nil
}

// Snapshot returns a copy of the current journey state.
func (s *JourneySession) Snapshot() domain.JourneyState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.JourneyState{
		OriginSource: s.originSource,
		OriginCity:   s.originCity,
		Forward:      append([]domain.Itinerary(nil), s.forward...),
		Return:       append([]domain.Itinerary(nil), s.retRoutes...),
		Loading:      s.loading,
		Error:        s.errMsg,
	}
	if s.origin != nil {
		pt := *s.origin
		state.Origin = &pt
	}
	if s.village != nil {
		v := *s.village
		state.Village = &v
	}
	if s.selected != nil {
		ref := *s.selected
		state.SelectedRoute = &ref
	}
	return state
}

// LastActive reports when the session last handled an action, for idle
// eviction.
func (s *JourneySession) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Wait blocks until every in-flight fetch has settled. Used on shutdown
// and by tests; superseded fetches still settle, they just apply nothing.
func (s *JourneySession) Wait() {
	s.inflight.Wait()
}

// invalidateRoutesLocked clears route data and bumps the generation so any
// in-flight fetch result is discarded on arrival.
func (s *JourneySession) invalidateRoutesLocked() {
	s.gen++
	s.forward = nil
	s.retRoutes = nil
	s.selected = nil
	s.loading = false
	s.errMsg = ""
}

// refetchLocked restarts the round-trip fetch if a village is selected.
func (s *JourneySession) refetchLocked() {
	if s.village == nil {
		return
	}
	s.invalidateRoutesLocked()
	s.startFetchLocked()
}

func (s *JourneySession) startFetchLocked() {
	gen := s.gen
	origin := *s.origin
	dest := s.village.Location
	s.loading = true

	s.inflight.Add(1)
	go s.fetch(gen, origin, dest)
}

// fetch runs the two directional plans concurrently and applies the joint
// result. It deliberately does not use a request context: the fetch
// outlives the HTTP request that triggered it.
func (s *JourneySession) fetch(gen uint64, origin, dest domain.GeoPoint) {
	defer s.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	departAt := s.now()
	var forward, ret []domain.Itinerary
	var panicFwd, panicRet any

	// The planner contract is error-free returns, so a panic here is a
	// programming error; it surfaces as the session's Error state rather
	// than killing the process.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				panicFwd = r
			}
		}()
		forward = s.planner.Plan(ctx, origin, dest, departAt)
	}()
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				panicRet = r
			}
		}()
		ret = s.planner.Plan(ctx, dest, origin, departAt)
	}()
	wg.Wait()

	if panicFwd == nil {
		panicFwd = panicRet
	}
	if panicFwd != nil {
		s.applyError(gen, fmt.Sprintf("route fetch failed: %v", panicFwd))
		return
	}
	s.apply(gen, forward, ret)
}

func (s *JourneySession) applyError(gen uint64, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		metrics.StaleFetchesDiscarded.Inc()
		return
	}
	s.loading = false
	s.errMsg = msg
}

func (s *JourneySession) apply(gen uint64, forward, ret []domain.Itinerary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		metrics.StaleFetchesDiscarded.Inc()
		return
	}

	s.forward = forward
	s.retRoutes = ret
	s.loading = false
	s.errMsg = ""
}

func (s *JourneySession) touch() {
	s.lastActive = s.now()
}
