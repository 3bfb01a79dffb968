package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kpetrou/villago/internal/core/domain"
	"github.com/kpetrou/villago/internal/core/ports"
	"github.com/kpetrou/villago/internal/pkg/metrics"
)

// DefaultDemandWindowDays is the trailing window for demand aggregates.
const DefaultDemandWindowDays = 30

// DemandService is the append-only demand ledger. The whole collection
// lives as one JSON document under a fixed store key; every mutation is a
// full read-modify-replace. Aggregates are always computed, never stored.
type DemandService struct {
	store    ports.KVStore
	key      string
	events   ports.EventPublisher // optional
	validate *validator.Validate
	now      func() time.Time
}

// NewDemandService creates the ledger over the given store. events may be nil.
func NewDemandService(store ports.KVStore, key string, events ports.EventPublisher) *DemandService {
	return &DemandService{
		store:    store,
		key:      key,
		events:   events,
		validate: validator.New(),
		now:      time.Now,
	}
}

// IsValidationError reports whether err came from submission validation,
// as opposed to a persistence failure.
func IsValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

// List returns every demand record. Reads fail soft: an unreadable or
// corrupt store yields an empty ledger, never an error.
func (s *DemandService) List(ctx context.Context) []domain.DemandRecord {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ports.ErrKeyNotFound) {
			slog.Warn("demand ledger unreadable, treating as empty", "error", err)
		}
		return nil
	}

	var records []domain.DemandRecord
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("demand ledger corrupt, treating as empty", "error", err)
		return nil
	}
	return records
}

// Add validates and appends one submission. The record is only considered
// recorded once the full collection has been persisted; on a storage
// failure the ledger is left untouched and the error is returned.
func (s *DemandService) Add(ctx context.Context, sub domain.DemandSubmission) (*domain.DemandRecord, error) {
	if err := s.validate.Struct(sub); err != nil {
		return nil, fmt.Errorf("invalid demand submission: %w", err)
	}

	record := domain.DemandRecord{
		ID:          uuid.NewString(),
		VillageID:   sub.VillageID,
		OriginCity:  sub.OriginCity,
		DesiredDate: sub.DesiredDate,
		PartySize:   sub.PartySize,
		Email:       sub.Email,
		CreatedAt:   s.now(),
	}

	records := append(s.List(ctx), record)
	if err := s.persist(ctx, records); err != nil {
		metrics.DemandStoreFailures.Inc()
		return nil, fmt.Errorf("persist demand record: %w", err)
	}

	metrics.DemandRecords.WithLabelValues(record.VillageID).Inc()

	// Eventing is best-effort: the ledger write is the source of truth.
	if s.events != nil {
		if err := s.events.PublishDemandRecorded(ctx, &record); err != nil {
			slog.Warn("demand event publish failed", "village", record.VillageID, "error", err)
		}
		s.broadcastCount(ctx, record.VillageID, records)
	}

	return &record, nil
}

// broadcastCount fans the village's fresh windowed count out to live
// listeners, so tickers update without re-polling the aggregate endpoint.
func (s *DemandService) broadcastCount(ctx context.Context, villageID string, records []domain.DemandRecord) {
	cutoff := s.windowCutoff(0)
	count := 0
	for _, r := range records {
		if r.VillageID == villageID && !r.CreatedAt.Before(cutoff) {
			count++
		}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"village_id":  villageID,
		"count":       count,
		"window_days": DefaultDemandWindowDays,
	})
	if err != nil {
		return
	}
	if err := s.events.PublishBroadcast(ctx, payload); err != nil {
		slog.Warn("demand broadcast failed", "village", villageID, "error", err)
	}
}

// CountFor returns the number of records for a village with CreatedAt
// inside the trailing window.
func (s *DemandService) CountFor(ctx context.Context, villageID string, windowDays int) int {
	cutoff := s.windowCutoff(windowDays)
	count := 0
	for _, r := range s.List(ctx) {
		if r.VillageID == villageID && r.CreatedAt.After(cutoff) {
			count++
		}
	}
	return count
}

// CountsByVillage returns windowed counts grouped by village.
func (s *DemandService) CountsByVillage(ctx context.Context, windowDays int) map[string]int {
	cutoff := s.windowCutoff(windowDays)
	counts := make(map[string]int)
	for _, r := range s.List(ctx) {
		if r.CreatedAt.After(cutoff) {
			counts[r.VillageID]++
		}
	}
	return counts
}

// Clear erases the whole collection. Maintenance and testing only.
func (s *DemandService) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.key)
}

func (s *DemandService) persist(ctx context.Context, records []domain.DemandRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, s.key, data)
}

func (s *DemandService) windowCutoff(windowDays int) time.Time {
	if windowDays <= 0 {
		windowDays = DefaultDemandWindowDays
	}
	return s.now().AddDate(0, 0, -windowDays)
}
