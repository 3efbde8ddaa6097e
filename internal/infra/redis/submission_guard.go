package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmissionGuard claims idempotency keys with SET NX so replays are rejected across instances.
type SubmissionGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSubmissionGuard(client *redis.Client, ttl time.Duration) *SubmissionGuard {
	return &SubmissionGuard{client: client, ttl: ttl}
}

func (g *SubmissionGuard) Claim(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, g.key(key), "1", g.ttl).Result()
}

func (g *SubmissionGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.key(key)).Err()
}

func (g *SubmissionGuard) key(key string) string {
	return "quiz:submission:" + key
}
