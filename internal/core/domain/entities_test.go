package domain

import "testing"

func TestDeriveTransfers(t *testing.T) {
	cases := []struct {
		name string
		legs []Leg
		want int
	}{
		{"no legs", nil, 0},
		{"walk only", []Leg{{Mode: ModeWalk}}, 0},
		{"single transit", []Leg{{Mode: ModeWalk}, {Mode: ModeTransit}, {Mode: ModeWalk}}, 0},
		{"two transit", []Leg{{Mode: ModeTransit}, {Mode: ModeWalk}, {Mode: ModeTransit}}, 1},
		{"three transit", []Leg{{Mode: ModeTransit}, {Mode: ModeTransit}, {Mode: ModeTransit}}, 2},
	}
	for _, tc := range cases {
		if got := DeriveTransfers(tc.legs); got != tc.want {
			t.Errorf("%s: expected %d transfers, got %d", tc.name, tc.want, got)
		}
	}
}

func TestCityByName(t *testing.T) {
	if _, ok := CityByName("LARNACA"); !ok {
		t.Error("lookup must be case-insensitive")
	}
	if _, ok := CityByName("Atlantis"); ok {
		t.Error("unknown city must not resolve")
	}
}

func TestGeoPointValid(t *testing.T) {
	valid := []GeoPoint{{0, 0}, {-90, 180}, {35.1856, 33.3823}}
	for _, p := range valid {
		if !p.Valid() {
			t.Errorf("%+v should be valid", p)
		}
	}
	invalid := []GeoPoint{{91, 0}, {-91, 0}, {0, 181}, {0, -181}}
	for _, p := range invalid {
		if p.Valid() {
			t.Errorf("%+v should be invalid", p)
		}
	}
}

func TestJourneyPhaseDerivation(t *testing.T) {
	origin := &GeoPoint{Lat: 35.18, Lon: 33.38}
	village := &Village{ID: "lefkara"}

	cases := []struct {
		name  string
		state JourneyState
		want  JourneyPhase
	}{
		{"empty", JourneyState{}, PhaseNoSelection},
		{"village without origin", JourneyState{Village: village}, PhaseNoOrigin},
		{"loading wins over ready", JourneyState{Origin: origin, Village: village, Loading: true}, PhaseLoading},
		{"error wins over everything", JourneyState{Origin: origin, Village: village, Loading: true, Error: "boom"}, PhaseError},
		{"ready", JourneyState{Origin: origin, Village: village}, PhaseReady},
	}
	for _, tc := range cases {
		if got := tc.state.Phase(); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
