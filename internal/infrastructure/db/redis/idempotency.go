package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pavingco/driveway-api/internal/core/ports"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which quote a submission key produced.
// Key format: idem:quote:<client_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
// If ttl <= 0, keys expire after 24 hours.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = idempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// Lookup reports the quote previously created under key, if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, clientID int64, key string) (int64, bool, error) {
	raw, err := s.client.Get(ctx, s.key(clientID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	return id, true, nil
}

// Remember records quoteID under key. An existing entry is kept.
func (s *IdempotencyStore) Remember(ctx context.Context, clientID int64, key string, quoteID int64) error {
	if err := s.client.SetNX(ctx, s.key(clientID, key), quoteID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(clientID int64, key string) string {
	return fmt.Sprintf("idem:quote:%d:%s", clientID, key)
}
