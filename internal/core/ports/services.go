package ports

import (
	"context"
	"time"

	"github.com/kpetrou/villago/internal/core/domain"
)

// RoutePlanner queries an external routing engine for itineraries.
//
// Plan is total at this boundary: an empty slice covers both "no route
// exists" and "the fetch failed", so callers can treat the two identically.
type RoutePlanner interface {
	Plan(ctx context.Context, from, to domain.GeoPoint, departAt time.Time) []domain.Itinerary
}

// Locator resolves an approximate coordinate for a client, typically from
// its IP address. A denial or lookup failure is an error; there is no
// partial result.
type Locator interface {
	Locate(ctx context.Context, ip string) (*domain.GeoPoint, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishDemandRecorded(ctx context.Context, record *domain.DemandRecord) error
	PublishBroadcast(ctx context.Context, data []byte) error
}
