// Package redisslot persists the cart snapshot in a single Redis key so
// the cart survives process restarts when the server runs behind a shared
// Redis instance.
package redisslot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/psvit/storefront/internal/domain"
	"github.com/psvit/storefront/internal/repository"
)

type Slot struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// New creates a Redis backed slot under the given key. A zero ttl keeps
// the slot forever.
func New(client *redis.Client, key string, ttl time.Duration) *Slot {
	return &Slot{client: client, key: key, ttl: ttl}
}

func (s *Slot) Load(ctx context.Context) (domain.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cart slot %s: %w", s.key, err)
	}
	return repository.DecodeSlot(data)
}

func (s *Slot) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := repository.EncodeSlot(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing cart slot %s: %w", s.key, err)
	}
	return nil
}

func (s *Slot) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clearing cart slot %s: %w", s.key, err)
	}
	return nil
}
