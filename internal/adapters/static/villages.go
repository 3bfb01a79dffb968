// Package static serves the embedded village reference set. The set is
// fixed at build time; there is no ingest path.
package static

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kpetrou/villago/internal/core/domain"
	"github.com/kpetrou/villago/internal/pkg/geospatial"
)

//go:embed villages.json
var villagesJSON []byte

// VillageRepo implements ports.VillageRepository over the embedded data.
type VillageRepo struct {
	villages []domain.Village
	byID     map[string]int
}

// NewVillageRepo parses the embedded village set.
func NewVillageRepo() (*VillageRepo, error) {
	var villages []domain.Village
	if err := json.Unmarshal(villagesJSON, &villages); err != nil {
		return nil, fmt.Errorf("parse embedded villages: %w", err)
	}

	byID := make(map[string]int, len(villages))
	for i, v := range villages {
		byID[v.ID] = i
	}
	return &VillageRepo{villages: villages, byID: byID}, nil
}

// List returns all villages.
func (r *VillageRepo) List(ctx context.Context) ([]domain.Village, error) {
	out := make([]domain.Village, len(r.villages))
	copy(out, r.villages)
	return out, nil
}

// GetByID returns a single village, or nil without error when the ID is
// unknown. Errors are reserved for infrastructure failures, which the
// embedded set cannot have.
func (r *VillageRepo) GetByID(ctx context.Context, id string) (*domain.Village, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	v := r.villages[i]
	return &v, nil
}

// Nearby returns villages within radiusMeters of the given point, closest
// first, with the computed distance filled in.
func (r *VillageRepo) Nearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Village, error) {
	var out []domain.Village
	for _, v := range r.villages {
		d := geospatial.Haversine(lat, lon, v.Location.Lat, v.Location.Lon)
		if d <= radiusMeters {
			v.Distance = &d
			out = append(out, v)
		}
	}

	sort.Slice(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
