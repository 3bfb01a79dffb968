package ports

import (
	"context"
	"errors"

	"github.com/kpetrou/villago/internal/core/domain"
)

// ErrKeyNotFound is returned by KVStore.Get for a key that was never written.
var ErrKeyNotFound = errors.New("key not found")

// KVStore is the persistent key-value boundary. Values are whole serialized
// documents; Set replaces the previous document atomically.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// CacheStore is a KVStore variant with expiring entries, used for
// read-through caching of expensive queries.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetTTL(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// VillageRepository serves the static village reference set.
type VillageRepository interface {
	List(ctx context.Context) ([]domain.Village, error)
	GetByID(ctx context.Context, id string) (*domain.Village, error)
	Nearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Village, error)
}
