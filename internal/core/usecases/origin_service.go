package usecases

import (
	"context"
	"fmt"

	"github.com/kpetrou/villago/internal/core/domain"
	"github.com/kpetrou/villago/internal/core/ports"
	"github.com/kpetrou/villago/internal/pkg/geospatial"
)

// OriginService resolves a journey origin: an approximate located
// coordinate when the locator can supply one, otherwise a reference city
// the user picks explicitly.
type OriginService struct {
	locator ports.Locator // nil when geolocation is disabled
}

// NewOriginService creates a new OriginService.
func NewOriginService(locator ports.Locator) *OriginService {
	return &OriginService{locator: locator}
}

// Locate resolves an approximate coordinate for the client IP. Failure is
// an error, not a coordinate; the caller falls back to a reference city.
func (s *OriginService) Locate(ctx context.Context, ip string) (*domain.GeoPoint, error) {
	if s.locator == nil {
		return nil, fmt.Errorf("geolocation disabled")
	}
	return s.locator.Locate(ctx, ip)
}

// CityOrigin resolves a reference-city origin from the fixed table.
func (s *OriginService) CityOrigin(name string) (*domain.City, error) {
	city, ok := domain.CityByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown reference city %q", name)
	}
	return &city, nil
}

// NearestCity labels a located coordinate with its closest reference city.
func (s *OriginService) NearestCity(pt domain.GeoPoint) domain.City {
	best := domain.ReferenceCities[0]
	bestDist := geospatial.Distance(pt, best.Location)
	for _, c := range domain.ReferenceCities[1:] {
		if d := geospatial.Distance(pt, c.Location); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
