// Package cache holds Redis-backed adapters.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/pollsite/internal/core/ports"
)

const voteKeyPrefix = "vote:"

type VoteGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVoteGuard remembers claimed idempotency keys for ttl.
func NewVoteGuard(client *redis.Client, ttl time.Duration) ports.VoteGuard {
	return &VoteGuard{client: client, ttl: ttl}
}

// Claim returns true the first time key is seen for the question.
func (g *VoteGuard) Claim(ctx context.Context, questionID uuid.UUID, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(questionID, key), 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim vote key: %w", err)
	}
	return ok, nil
}

// Release forgets a claimed key so a failed vote can be retried.
func (g *VoteGuard) Release(ctx context.Context, questionID uuid.UUID, key string) error {
	if err := g.client.Del(ctx, g.key(questionID, key)).Err(); err != nil {
		return fmt.Errorf("failed to release vote key: %w", err)
	}
	return nil
}

func (g *VoteGuard) key(questionID uuid.UUID, key string) string {
	return voteKeyPrefix + questionID.String() + ":" + key
}
