package geospatial

import (
	"math"
	"testing"

	"github.com/kpetrou/villago/internal/core/domain"
)

func TestHaversineKnownDistance(t *testing.T) {
	// Nicosia to Limassol city centers, roughly 64 km.
	got := Haversine(35.1856, 33.3823, 34.7071, 33.0226)
	if math.Abs(got-64000) > 3000 {
		t.Errorf("Nicosia-Limassol: expected ~64km, got %.0fm", got)
	}
}

func TestHaversineZero(t *testing.T) {
	if got := Haversine(34.9, 33.3, 34.9, 33.3); got != 0 {
		t.Errorf("identical points: expected 0, got %f", got)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := domain.GeoPoint{Lat: 35.1856, Lon: 33.3823}
	b := domain.GeoPoint{Lat: 34.7754, Lon: 32.4218}
	if d1, d2 := Distance(a, b), Distance(b, a); math.Abs(d1-d2) > 1e-6 {
		t.Errorf("distance must be symmetric: %f vs %f", d1, d2)
	}
}

func TestBoundingBoxContainsCenter(t *testing.T) {
	box := BoundingBox(34.87, 33.30, 5000)
	if !box.Contains(domain.GeoPoint{Lat: 34.87, Lon: 33.30}) {
		t.Error("box must contain its center")
	}
	if box.Contains(domain.GeoPoint{Lat: 35.5, Lon: 33.30}) {
		t.Error("box must not contain a point far outside the radius")
	}
}
