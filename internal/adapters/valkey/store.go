package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/kpetrou/villago/internal/core/ports"
)

// Store implements ports.KVStore and ports.CacheStore against Valkey
// (Redis-compatible).
type Store struct {
	client valkey.Client
}

// New creates a new Valkey client.
func New(addr string) (*Store, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Store{client: client}, nil
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.client.Do(ctx, s.client.B().Get().Key(key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ports.ErrKeyNotFound
		}
		return nil, err
	}
	return cmd.AsBytes()
}

// Set stores a value without expiry. The demand ledger relies on this being
// a whole-document replace.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(value)).Build())
	return cmd.Error()
}

// SetTTL stores a value with a TTL in seconds.
func (s *Store) SetTTL(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	cmd := s.client.Do(ctx,
		s.client.B().Set().Key(key).Value(string(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
	)
	return cmd.Error()
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	cmd := s.client.Do(ctx, s.client.B().Del().Key(key).Build())
	return cmd.Error()
}

// Close releases the client.
func (s *Store) Close() {
	s.client.Close()
}
