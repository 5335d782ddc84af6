package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Revixit-Net/discord-bot/internal/core/port"
)

// CooldownRepository tracks per-user command cooldowns in Redis keys.
type CooldownRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewCooldownRepository constructs a repository using the provided Redis
// client and key prefix.
func NewCooldownRepository(client *redis.Client, keyPrefix string) *CooldownRepository {
	if keyPrefix == "" {
		keyPrefix = "bot:cooldown"
	}
	return &CooldownRepository{client: client, keyPrefix: keyPrefix}
}

// Acquire claims the cooldown key for ttl if it is not already held.
// SETNX gives the claim-and-check a single atomic round trip.
func (r *CooldownRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}

	acquired, err := r.client.SetNX(ctx, r.key(key), time.Now().UTC().UnixNano(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}

	return acquired, nil
}

func (r *CooldownRepository) key(identifier string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, identifier)
}

var _ port.CooldownStore = (*CooldownRepository)(nil)
