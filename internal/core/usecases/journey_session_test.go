package usecases

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kpetrou/villago/internal/core/domain"
)

// plannerFunc adapts a function to ports.RoutePlanner.
type plannerFunc func(ctx context.Context, from, to domain.GeoPoint, departAt time.Time) []domain.Itinerary

func (f plannerFunc) Plan(ctx context.Context, from, to domain.GeoPoint, departAt time.Time) []domain.Itinerary {
	return f(ctx, from, to, departAt)
}

var (
	testOrigin   = domain.GeoPoint{Lat: 35.1856, Lon: 33.3823}
	testVillageA = domain.Village{ID: "lefkara", Name: "Lefkara", Location: domain.GeoPoint{Lat: 34.8700, Lon: 33.3067}}
	testVillageB = domain.Village{ID: "omodos", Name: "Omodos", Location: domain.GeoPoint{Lat: 34.8478, Lon: 32.8081}}
)

func itineraries(durations ...int) []domain.Itinerary {
	out := make([]domain.Itinerary, len(durations))
	for i, d := range durations {
		out[i] = domain.Itinerary{Duration: d}
	}
	return out
}

func constPlanner(routes []domain.Itinerary) plannerFunc {
	return func(ctx context.Context, from, to domain.GeoPoint, departAt time.Time) []domain.Itinerary {
		return routes
	}
}

func TestSession_NoOriginMeansNoFetch(t *testing.T) {
	var calls atomic.Int64
	s := NewJourneySession(plannerFunc(func(ctx context.Context, from, to domain.GeoPoint, departAt time.Time) []domain.Itinerary {
		calls.Add(1)
		return itineraries(100)
	}))

	s.SelectVillage(testVillageA)
	s.Wait()

	if n := calls.Load(); n != 0 {
		t.Errorf("selecting a village without an origin must not plan, got %d calls", n)
	}
	st := s.Snapshot()
	if st.Loading {
		t.Error("session must not report loading")
	}
	if got := st.Phase(); got != domain.PhaseNoOrigin {
		t.Errorf("expected phase %s, got %s", domain.PhaseNoOrigin, got)
	}
}

func TestSession_SelectVillageFetchesBothDirections(t *testing.T) {
	var toVillage, fromVillage atomic.Int64
	s := NewJourneySession(plannerFunc(func(ctx context.Context, from, to domain.GeoPoint, departAt time.Time) []domain.Itinerary {
		if to == testVillageA.Location {
			toVillage.Add(1)
			return itineraries(100, 200)
		}
		fromVillage.Add(1)
		return itineraries(300)
	}))

	if err := s.SetLocatedOrigin(testOrigin); err != nil {
		t.Fatalf("set origin: %v", err)
	}
	s.SelectVillage(testVillageA)
	s.Wait()

	if toVillage.Load() != 1 || fromVillage.Load() != 1 {
		t.Fatalf("expected one plan per direction, got forward=%d return=%d", toVillage.Load(), fromVillage.Load())
	}
	st := s.Snapshot()
	if len(st.Forward) != 2 || len(st.Return) != 1 {
		t.Errorf("expected 2 forward / 1 return routes, got %d / %d", len(st.Forward), len(st.Return))
	}
	if got := st.Phase(); got != domain.PhaseReady {
		t.Errorf("expected phase %s, got %s", domain.PhaseReady, got)
	}
}

// A fetch for an earlier selection that resolves late must not clobber the
// routes of the current selection.
func TestSession_StaleFetchDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	s := NewJourneySession(plannerFunc(func(ctx context.Context, from, to domain.GeoPoint, departAt time.Time) []domain.Itinerary {
		if from == testVillageA.Location || to == testVillageA.Location {
			<-releaseA
			return itineraries(111)
		}
		return itineraries(222)
	}))

	if err := s.SetLocatedOrigin(testOrigin); err != nil {
		t.Fatalf("set origin: %v", err)
	}
	s.SelectVillage(testVillageA)
	s.SelectVillage(testVillageB)

	close(releaseA)
	s.Wait()

	st := s.Snapshot()
	if st.Village == nil || st.Village.ID != testVillageB.ID {
		t.Fatalf("expected village %s, got %+v", testVillageB.ID, st.Village)
	}
	for _, it := range append(st.Forward, st.Return...) {
		if it.Duration == 111 {
			t.Fatal("superseded fetch result leaked into the current state")
		}
	}
	if len(st.Forward) != 1 || st.Forward[0].Duration != 222 {
		t.Errorf("expected the second selection's routes, got %+v", st.Forward)
	}
	if st.Loading {
		t.Error("session must have settled")
	}
}

func TestSession_OriginChangeRefetches(t *testing.T) {
	nicosia := domain.ReferenceCities[0]
	s := NewJourneySession(plannerFunc(func(ctx context.Context, from, to domain.GeoPoint, departAt time.Time) []domain.Itinerary {
		if from == nicosia.Location || to == nicosia.Location {
			return itineraries(100)
		}
		return itineraries(999)
	}))

	s.SetCityOrigin(nicosia)
	s.SelectVillage(testVillageA)
	s.Wait()

	if st := s.Snapshot(); len(st.Forward) != 1 || st.Forward[0].Duration != 100 {
		t.Fatalf("expected city-origin routes, got %+v", st.Forward)
	}
	if err := s.ToggleRoute(domain.DirectionForward, 0); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	located := domain.GeoPoint{Lat: 34.9167, Lon: 33.6333}
	if err := s.SetLocatedOrigin(located); err != nil {
		t.Fatalf("set located origin: %v", err)
	}
	s.Wait()

	st := s.Snapshot()
	if len(st.Forward) != 1 || st.Forward[0].Duration != 999 {
		t.Errorf("origin change must refetch, got %+v", st.Forward)
	}
	if st.SelectedRoute != nil {
		t.Error("route selection must not survive a refetch")
	}
	if st.OriginSource != domain.OriginLocated {
		t.Errorf("expected origin source %s, got %s", domain.OriginLocated, st.OriginSource)
	}
}

func TestSession_CityOriginNeverOverridesLocated(t *testing.T) {
	var calls atomic.Int64
	s := NewJourneySession(plannerFunc(func(ctx context.Context, from, to domain.GeoPoint, departAt time.Time) []domain.Itinerary {
		calls.Add(1)
		return itineraries(100)
	}))

	if err := s.SetLocatedOrigin(testOrigin); err != nil {
		t.Fatalf("set origin: %v", err)
	}
	s.SelectVillage(testVillageA)
	s.Wait()
	before := calls.Load()

	s.SetCityOrigin(domain.ReferenceCities[1])
	s.Wait()

	st := s.Snapshot()
	if st.Origin == nil || *st.Origin != testOrigin {
		t.Errorf("located origin must win, got %+v", st.Origin)
	}
	if st.OriginSource != domain.OriginLocated {
		t.Errorf("expected origin source %s, got %s", domain.OriginLocated, st.OriginSource)
	}
	if calls.Load() != before {
		t.Error("ignored city origin must not trigger a refetch")
	}
}

func TestSession_SetLocatedOriginRejectsInvalid(t *testing.T) {
	s := NewJourneySession(constPlanner(nil))
	if err := s.SetLocatedOrigin(domain.GeoPoint{Lat: 91, Lon: 0}); err == nil {
		t.Error("expected error for out-of-range latitude")
	}
	if st := s.Snapshot(); st.Origin != nil {
		t.Error("rejected origin must not be recorded")
	}
}

func TestSession_ToggleRoute(t *testing.T) {
	s := NewJourneySession(constPlanner(itineraries(100, 200)))
	if err := s.SetLocatedOrigin(testOrigin); err != nil {
		t.Fatalf("set origin: %v", err)
	}
	s.SelectVillage(testVillageA)
	s.Wait()

	if err := s.ToggleRoute(domain.DirectionForward, 1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	st := s.Snapshot()
	if st.SelectedRoute == nil || st.SelectedRoute.Direction != domain.DirectionForward || st.SelectedRoute.Index != 1 {
		t.Fatalf("expected forward/1 selected, got %+v", st.SelectedRoute)
	}

	// Same target again deselects.
	if err := s.ToggleRoute(domain.DirectionForward, 1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if st := s.Snapshot(); st.SelectedRoute != nil {
		t.Errorf("second toggle must deselect, got %+v", st.SelectedRoute)
	}

	// A different target replaces rather than toggles off.
	if err := s.ToggleRoute(domain.DirectionForward, 0); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := s.ToggleRoute(domain.DirectionReturn, 0); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	st = s.Snapshot()
	if st.SelectedRoute == nil || st.SelectedRoute.Direction != domain.DirectionReturn {
		t.Errorf("expected return/0 selected, got %+v", st.SelectedRoute)
	}

	if err := s.ToggleRoute(domain.DirectionForward, 5); err == nil {
		t.Error("expected error for out-of-range index")
	}
	if err := s.ToggleRoute(domain.Direction("sideways"), 0); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestSession_ClearSelection(t *testing.T) {
	s := NewJourneySession(constPlanner(itineraries(100)))
	if err := s.SetLocatedOrigin(testOrigin); err != nil {
		t.Fatalf("set origin: %v", err)
	}
	s.SelectVillage(testVillageA)
	s.Wait()
	if err := s.ToggleRoute(domain.DirectionForward, 0); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	s.ClearSelection()
	s.Wait()

	st := s.Snapshot()
	if st.Village != nil || len(st.Forward) != 0 || len(st.Return) != 0 || st.SelectedRoute != nil {
		t.Errorf("clear must drop village, routes and selection: %+v", st)
	}
	if st.Origin == nil {
		t.Error("clear must keep the origin")
	}
	if got := st.Phase(); got != domain.PhaseNoSelection {
		t.Errorf("expected phase %s, got %s", domain.PhaseNoSelection, got)
	}
}

func TestSession_PlannerPanicBecomesErrorState(t *testing.T) {
	s := NewJourneySession(plannerFunc(func(ctx context.Context, from, to domain.GeoPoint, departAt time.Time) []domain.Itinerary {
		panic("boom")
	}))
	if err := s.SetLocatedOrigin(testOrigin); err != nil {
		t.Fatalf("set origin: %v", err)
	}
	s.SelectVillage(testVillageA)
	s.Wait()

	st := s.Snapshot()
	if st.Error == "" {
		t.Fatal("planner panic must surface as session error")
	}
	if got := st.Phase(); got != domain.PhaseError {
		t.Errorf("expected phase %s, got %s", domain.PhaseError, got)
	}
	if st.Loading {
		t.Error("session must have settled")
	}
}

func TestSession_LastActiveAdvances(t *testing.T) {
	s := NewJourneySession(constPlanner(nil))
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.ClearSelection()
	if got := s.LastActive(); !got.Equal(base) {
		t.Errorf("expected last active %v, got %v", base, got)
	}

	later := base.Add(10 * time.Minute)
	s.now = func() time.Time { return later }
	s.SetCityOrigin(domain.ReferenceCities[0])
	if got := s.LastActive(); !got.Equal(later) {
		t.Errorf("expected last active %v, got %v", later, got)
	}
}
