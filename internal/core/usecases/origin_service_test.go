package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kpetrou/villago/internal/core/domain"
	"github.com/kpetrou/villago/internal/core/usecases"
)

type mockLocator struct {
	point *domain.GeoPoint
	err   error
}

func (m *mockLocator) Locate(ctx context.Context, ip string) (*domain.GeoPoint, error) {
	return m.point, m.err
}

func TestOriginLocate(t *testing.T) {
	want := domain.GeoPoint{Lat: 35.17, Lon: 33.36}
	svc := usecases.NewOriginService(&mockLocator{point: &want})

	got, err := svc.Locate(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if *got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestOriginLocateFailurePropagates(t *testing.T) {
	svc := usecases.NewOriginService(&mockLocator{err: errors.New("provider said no")})
	if _, err := svc.Locate(context.Background(), "203.0.113.7"); err == nil {
		t.Error("locator failure must propagate, not degrade to a coordinate")
	}
}

func TestOriginLocateDisabled(t *testing.T) {
	svc := usecases.NewOriginService(nil)
	if _, err := svc.Locate(context.Background(), "203.0.113.7"); err == nil {
		t.Error("expected error when geolocation is disabled")
	}
}

func TestOriginCityLookup(t *testing.T) {
	svc := usecases.NewOriginService(nil)

	city, err := svc.CityOrigin("limassol")
	if err != nil {
		t.Fatalf("city origin: %v", err)
	}
	if city.Name != "Limassol" {
		t.Errorf("lookup must be case-insensitive, got %q", city.Name)
	}

	if _, err := svc.CityOrigin("Atlantis"); err == nil {
		t.Error("expected error for unknown city")
	}
}

func TestOriginNearestCity(t *testing.T) {
	svc := usecases.NewOriginService(nil)

	// A point in central Nicosia.
	got := svc.NearestCity(domain.GeoPoint{Lat: 35.17, Lon: 33.36})
	if got.Name != "Nicosia" {
		t.Errorf("expected Nicosia, got %s", got.Name)
	}

	// Near the west coast.
	got = svc.NearestCity(domain.GeoPoint{Lat: 34.77, Lon: 32.43})
	if got.Name != "Paphos" {
		t.Errorf("expected Paphos, got %s", got.Name)
	}
}
