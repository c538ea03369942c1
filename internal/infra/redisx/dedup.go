package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper records processed event ids with SETNX so retries of the same event are skipped.
type Deduper struct {
	client *redis.Client
	scope  string
	ttl    time.Duration
}

func NewDeduper(client *redis.Client, scope string, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = TTLDedup
	}
	return &Deduper{client: client, scope: scope, ttl: ttl}
}

func (d *Deduper) key(id string) string {
	return fmt.Sprintf(KeyDedup, d.scope, id)
}

// Claim returns true for the first caller of an id within the TTL.
func (d *Deduper) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(id), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

// Release forgets a claim so the event can be processed again.
func (d *Deduper) Release(ctx context.Context, id string) error {
	if err := d.client.Del(ctx, d.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
