package usecases

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/kpetrou/villago/internal/core/domain"
)

// Seed bulk-inserts synthetic demand so aggregate views have something to
// show before real submissions exist. It is demo tooling, reachable only
// through cmd/seed, and a no-op on a non-empty ledger unless force is set,
// in which case the existing collection is discarded first.
func (s *DemandService) Seed(ctx context.Context, villageIDs []string, force bool) (int, error) {
	existing := s.List(ctx)
	if len(existing) > 0 {
		if !force {
			return 0, nil
		}
		if err := s.Clear(ctx); err != nil {
			return 0, fmt.Errorf("clear existing ledger: %w", err)
		}
	}

	now := s.now()
	var records []domain.DemandRecord
	for _, villageID := range villageIDs {
		n := 2 + rand.Intn(6)
		for i := 0; i < n; i++ {
			createdAt := now.Add(-time.Duration(rand.Intn(DefaultDemandWindowDays*24)) * time.Hour)
			desired := createdAt.AddDate(0, 0, 7+rand.Intn(21))
			records = append(records, domain.DemandRecord{
				ID:          uuid.NewString(),
				VillageID:   villageID,
				OriginCity:  domain.ReferenceCities[rand.Intn(len(domain.ReferenceCities))].Name,
				DesiredDate: desired.Format("2006-01-02"),
				PartySize:   1 + rand.Intn(8),
				CreatedAt:   createdAt,
			})
		}
	}

	if err := s.persist(ctx, records); err != nil {
		return 0, fmt.Errorf("persist seed records: %w", err)
	}
	return len(records), nil
}
