package alerting

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cooldownKeyPrefix = "fund-monitor:alert-cooldown:"

// Cooldown suppresses repeat alerts within a window using Redis SETNX keys,
// so a rerun of the daily job does not duplicate emails. Redis being down
// fails open: alerting matters more than deduplication.
type Cooldown struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCooldown creates a new cooldown store
func NewCooldown(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Cooldown {
	return &Cooldown{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "cooldown").Logger(),
	}
}

// Allow reports whether an alert with this key may fire, and claims the
// cooldown window when it may
func (c *Cooldown) Allow(ctx context.Context, key string) bool {
	ok, err := c.client.SetNX(ctx, cooldownKeyPrefix+key, time.Now().Format(time.RFC3339), c.ttl).Result()
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cooldown check failed, allowing alert")
		return true
	}
	if !ok {
		c.log.Info().Str("key", key).Msg("Alert suppressed by cooldown")
	}
	return ok
}
