// Package searchcache stores finalized response envelopes keyed by a digest
// of the query and its resolved service set. A cache failure always degrades
// to a normal dispatch.
package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/polyseek/polyseek/internal/db"
	"github.com/polyseek/polyseek/internal/domain/query"
	"github.com/polyseek/polyseek/internal/domain/result"
	"github.com/polyseek/polyseek/internal/logger"
	"github.com/polyseek/polyseek/internal/metrics"
)

// DefaultTTL applies when the configuration sets none.
const DefaultTTL = 5 * time.Minute

// Cache is the envelope cache.
type Cache struct {
	store  db.Store
	prefix string
	ttl    time.Duration
}

// New creates a cache. ttl <= 0 selects DefaultTTL.
func New(store db.Store, prefix string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, prefix: prefix, ttl: ttl}
}

// Key digests the query parameters that determine the response, plus the
// resolved service names so registry changes invalidate naturally.
func (c *Cache) Key(q query.Query, services []string) string {
	sorted := append([]string(nil), services...)
	sort.Strings(sorted)

	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%s\x00%d\x00%d\x00%s",
		q.Term(), q.Language(), q.SafeSearch(), q.TimeRange(),
		q.Page(), q.PageSize(), strings.Join(sorted, ","))

	return c.prefix + "q:" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached envelope if present. Backend errors and decode
// failures count as misses.
func (c *Cache) Get(ctx context.Context, key string) (*result.Envelope, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			logger.FromContext(ctx).Warn("result cache read failed", zap.Error(err))
		}
		metrics.CacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	var env result.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		logger.FromContext(ctx).Warn("result cache entry corrupt", zap.Error(err))
		metrics.CacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.CacheTotal.WithLabelValues("hit").Inc()
	env.Cached = true
	return &env, true
}

// Put stores an envelope. Failures are logged, never propagated.
func (c *Cache) Put(ctx context.Context, key string, env *result.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		logger.FromContext(ctx).Warn("result cache encode failed", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		logger.FromContext(ctx).Warn("result cache write failed", zap.Error(err))
	}
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }
