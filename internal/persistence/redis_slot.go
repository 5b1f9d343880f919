package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"skillswap/internal/observability"
)

// RedisSlot stores snapshots as plain string values without expiry.
type RedisSlot struct {
	client *redis.Client
}

// NewRedisSlot returns a slot backed by client.
func NewRedisSlot(client *redis.Client) *RedisSlot {
	return &RedisSlot{client: client}
}

// Backend implements Slot.
func (s *RedisSlot) Backend() string { return "redis" }

// Read implements Slot.
func (s *RedisSlot) Read(ctx context.Context, key string) ([]byte, error) {
	ctx, span := observability.TraceSlotOperation(ctx, s.Backend(), "get")
	defer span.End()
	defer observability.TrackPersistence(s.Backend(), "read")()

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Write implements Slot.
func (s *RedisSlot) Write(ctx context.Context, key string, data []byte) error {
	ctx, span := observability.TraceSlotOperation(ctx, s.Backend(), "set")
	defer span.End()
	defer observability.TrackPersistence(s.Backend(), "write")()

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
