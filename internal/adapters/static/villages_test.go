package static

import (
	"context"
	"testing"
)

func TestVillageRepo_List(t *testing.T) {
	repo, err := NewVillageRepo()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	villages, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(villages) == 0 {
		t.Fatal("embedded village set must not be empty")
	}
	for _, v := range villages {
		if v.ID == "" || v.Name == "" {
			t.Errorf("village missing id or name: %+v", v)
		}
		if !v.Location.Valid() {
			t.Errorf("village %s has invalid coordinates: %+v", v.ID, v.Location)
		}
	}
}

func TestVillageRepo_GetByID(t *testing.T) {
	repo, err := NewVillageRepo()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := repo.GetByID(context.Background(), "lefkara")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.Name != "Pano Lefkara" {
		t.Errorf("expected Pano Lefkara, got %s", v.Name)
	}

	missing, err := repo.GetByID(context.Background(), "atlantis")
	if err != nil {
		t.Fatalf("unknown village must not be an error: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown village, got %+v", missing)
	}
}

func TestVillageRepo_Nearby(t *testing.T) {
	repo, err := NewVillageRepo()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 30km around Pano Lefkara should include Lefkara itself and Tochni.
	villages, err := repo.Nearby(context.Background(), 34.8700, 33.3067, 30000, 10)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(villages) < 2 {
		t.Fatalf("expected at least 2 villages within 30km, got %d", len(villages))
	}
	if villages[0].ID != "lefkara" {
		t.Errorf("expected lefkara closest, got %s", villages[0].ID)
	}
	for _, v := range villages {
		if v.Distance == nil {
			t.Errorf("village %s missing computed distance", v.ID)
		}
	}
}
