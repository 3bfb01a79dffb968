package usecases_test

import (
	"context"
	"testing"

	"github.com/kpetrou/villago/internal/core/domain"
	"github.com/kpetrou/villago/internal/core/ports"
	"github.com/kpetrou/villago/internal/core/usecases"
)

type mockVillageRepo struct {
	villages    []domain.Village
	nearbyCalls int
}

func (m *mockVillageRepo) List(ctx context.Context) ([]domain.Village, error) {
	return m.villages, nil
}

func (m *mockVillageRepo) GetByID(ctx context.Context, id string) (*domain.Village, error) {
	for _, v := range m.villages {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, nil
}

func (m *mockVillageRepo) Nearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Village, error) {
	m.nearbyCalls++
	if limit > len(m.villages) {
		limit = len(m.villages)
	}
	return m.villages[:limit], nil
}

type mockCache struct {
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, ports.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockCache) SetTTL(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func testVillages() []domain.Village {
	return []domain.Village{
		{ID: "lefkara", Name: "Lefkara", Location: domain.GeoPoint{Lat: 34.8700, Lon: 33.3067}},
		{ID: "tochni", Name: "Tochni", Location: domain.GeoPoint{Lat: 34.7583, Lon: 33.3439}},
	}
}

func TestVillageNearbyCachesResult(t *testing.T) {
	repo := &mockVillageRepo{villages: testVillages()}
	cache := newMockCache()
	svc := usecases.NewVillageService(repo, cache)
	ctx := context.Background()

	first, err := svc.Nearby(ctx, 34.9, 33.3, 30000, 10)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	second, err := svc.Nearby(ctx, 34.9, 33.3, 30000, 10)
	if err != nil {
		t.Fatalf("nearby (cached): %v", err)
	}

	if repo.nearbyCalls != 1 {
		t.Errorf("second identical query must hit the cache, repo saw %d calls", repo.nearbyCalls)
	}
	if len(first) != len(second) {
		t.Errorf("cached result differs: %d vs %d villages", len(first), len(second))
	}
}

func TestVillageNearbyRejectsBadCoordinates(t *testing.T) {
	svc := usecases.NewVillageService(&mockVillageRepo{villages: testVillages()}, nil)
	if _, err := svc.Nearby(context.Background(), 95, 33.3, 1000, 10); err == nil {
		t.Error("expected error for out-of-range latitude")
	}
	if _, err := svc.Nearby(context.Background(), 34.9, 185, 1000, 10); err == nil {
		t.Error("expected error for out-of-range longitude")
	}
}

func TestVillageNearbyWorksWithoutCache(t *testing.T) {
	repo := &mockVillageRepo{villages: testVillages()}
	svc := usecases.NewVillageService(repo, nil)

	got, err := svc.Nearby(context.Background(), 34.9, 33.3, 30000, 1)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("limit must apply, got %d villages", len(got))
	}
}
