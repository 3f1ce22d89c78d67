// internal/snapshot/cache.go
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"matching-engine/internal/common/logger"
	"matching-engine/internal/common/metrics"
	"matching-engine/internal/models"
)

const (
	poolKeyPrefix   = "engine:pool:"
	resultKeyPrefix = "engine:results:"
)

// Cache is the Redis layer in front of the snapshot source. Key design
// point: a cache failure degrades to a source read, it never fails a run.
type Cache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

func NewCache(client *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{
		redis:  client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "snapshot-cache"}),
	}
}

// HitRate reports the fraction of lookups served from Redis since start.
func (c *Cache) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func (c *Cache) lookup(ctx context.Context, key string, out interface{}) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache lookup failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		c.misses.Add(1)
		metrics.SnapshotCacheMisses.Inc()
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("cache entry unreadable", map[string]interface{}{"key": key, "error": err.Error()})
		c.misses.Add(1)
		metrics.SnapshotCacheMisses.Inc()
		return false
	}
	c.hits.Add(1)
	metrics.SnapshotCacheHits.Inc()
	return true
}

func (c *Cache) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache store failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// ==========================================================================
// Cached source
// ==========================================================================

// CachedSource is a read-through wrapper: candidate pools are served from
// Redis when fresh, everything else passes through to the inner source.
type CachedSource struct {
	Source
	cache *Cache
}

func NewCachedSource(inner Source, cache *Cache) *CachedSource {
	return &CachedSource{Source: inner, cache: cache}
}

func (s *CachedSource) Candidates(ctx context.Context, category string) ([]models.CandidateProfile, error) {
	key := poolKeyPrefix + category

	var pool []models.CandidateProfile
	if s.cache.lookup(ctx, key, &pool) {
		return pool, nil
	}

	pool, err := s.Source.Candidates(ctx, category)
	if err != nil {
		return nil, err
	}
	s.cache.store(ctx, key, pool)
	return pool, nil
}

// ==========================================================================
// Ranked result cache
// ==========================================================================

// ResultCache keeps recent ranked result sets keyed by request id. Entries
// expire by TTL only; a rerun before expiry is served the cached ranking.
type ResultCache struct {
	cache *Cache
}

func NewResultCache(cache *Cache) *ResultCache {
	return &ResultCache{cache: cache}
}

func (r *ResultCache) Get(ctx context.Context, requestID string, limit int) (*models.MatchSet, bool) {
	var set models.MatchSet
	if !r.cache.lookup(ctx, resultKey(requestID, limit), &set) {
		return nil, false
	}
	set.FromCache = true
	return &set, true
}

func (r *ResultCache) Put(ctx context.Context, set *models.MatchSet, limit int) {
	if set == nil || set.Partial {
		// Partial rankings are not worth replaying.
		return
	}
	r.cache.store(ctx, resultKey(set.RequestID, limit), set)
}

func resultKey(requestID string, limit int) string {
	return fmt.Sprintf("%s%s:%d", resultKeyPrefix, requestID, limit)
}
