// Package cache holds the opportunistic SLA display cache. The cached value
// is never read for decisions; the engine recomputes SLA status on every
// path that matters and only publishes the result here for dashboards.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mdfarid01/RapidTrack/internal/domain"
)

// SLACache records the last computed SLA status per issue.
type SLACache interface {
	Put(ctx context.Context, issueID string, status domain.SLAStatus)
}

type redisSLACache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSLACache builds a redis-backed display cache.
func NewRedisSLACache(client *redis.Client, ttl time.Duration, logger *zap.Logger) SLACache {
	return &redisSLACache{client: client, ttl: ttl, logger: logger}
}

// Put stores the status best-effort. Cache failures are logged, never
// surfaced.
func (c *redisSLACache) Put(ctx context.Context, issueID string, status domain.SLAStatus) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, "sla:"+issueID, string(status), c.ttl).Err(); err != nil {
		c.logger.Debug("sla cache write failed", zap.String("issue_id", issueID), zap.Error(err))
	}
}
