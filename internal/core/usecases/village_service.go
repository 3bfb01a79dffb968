package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kpetrou/villago/internal/core/domain"
	"github.com/kpetrou/villago/internal/core/ports"
)

// VillageService handles village-related business logic.
type VillageService struct {
	villages ports.VillageRepository
	cache    ports.CacheStore
}

// NewVillageService creates a new VillageService.
func NewVillageService(villages ports.VillageRepository, cache ports.CacheStore) *VillageService {
	return &VillageService{villages: villages, cache: cache}
}

// List returns all villages.
func (s *VillageService) List(ctx context.Context) ([]domain.Village, error) {
	return s.villages.List(ctx)
}

// GetByID returns a single village.
func (s *VillageService) GetByID(ctx context.Context, id string) (*domain.Village, error) {
	return s.villages.GetByID(ctx, id)
}

// Nearby returns villages within radiusMeters of the given point.
func (s *VillageService) Nearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Village, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	if !(domain.GeoPoint{Lat: lat, Lon: lon}).Valid() {
		return nil, fmt.Errorf("invalid coordinate (%v,%v)", lat, lon)
	}

	// Try cache
	cacheKey := fmt.Sprintf("villages:nearby:%.4f:%.4f:%.0f:%d", lat, lon, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var villages []domain.Village
			if err := json.Unmarshal(data, &villages); err == nil {
				return villages, nil
			}
		}
	}

	villages, err := s.villages.Nearby(ctx, lat, lon, radiusMeters, limit)
	if err != nil {
		return nil, err
	}

	// The set is static, so a generous TTL is safe.
	if s.cache != nil {
		if data, err := json.Marshal(villages); err == nil {
			_ = s.cache.SetTTL(ctx, cacheKey, data, 3600)
		}
	}

	return villages, nil
}
