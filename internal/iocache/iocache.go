// Package iocache caches the results of expensive catalog computations.
package iocache

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/schema"
)

// entry is one stored result. Expiry is judged against the injected clock.
type entry struct {
	value     any
	expiresAt time.Time
}

// Observer receives cache events, e.g. for instrumentation.
type Observer interface {
	Hit(key string)
	Miss(key string)
	Computed(key string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) Hit(string) {}

func (nopObserver) Miss(string) {}

func (nopObserver) Computed(string, time.Duration, error) {}

// ResultCache maps string keys to computed values with a per-entry TTL.
// Failed computations are never stored. It is safe for concurrent use.
type ResultCache struct {
	items        *gocache.Cache
	clock        clock.Clock
	defaultTTL   time.Duration
	singleFlight bool
	flight       singleflight.Group
	onRecompute  func(key string, value any)
	observer     Observer
	logger       *zap.Logger

	// generation is bumped by Flush. A compute that started in an older
	// generation returns its value but never stores it.
	genMu      sync.RWMutex
	generation uint64

	hits     atomic.Uint64
	misses   atomic.Uint64
	computes atomic.Uint64
	failures atomic.Uint64
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithClock sets the clock that decides expiry.
func WithClock(c clock.Clock) Option {
	return func(rc *ResultCache) {
		if c != nil {
			rc.clock = c
		}
	}
}

// WithDefaultTTL sets the TTL used when a caller passes none.
func WithDefaultTTL(d time.Duration) Option {
	return func(rc *ResultCache) {
		if d > 0 {
			rc.defaultTTL = d
		}
	}
}

// WithSingleFlight collapses concurrent misses on one key into a single compute.
func WithSingleFlight(enabled bool) Option {
	return func(rc *ResultCache) { rc.singleFlight = enabled }
}

// WithRecomputeHook is called after every successful compute with the stored value.
func WithRecomputeHook(fn func(key string, value any)) Option {
	return func(rc *ResultCache) { rc.onRecompute = fn }
}

// WithObserver sets the receiver of hit, miss and compute events.
func WithObserver(o Observer) Option {
	return func(rc *ResultCache) {
		if o != nil {
			rc.observer = o
		}
	}
}

// WithLogger sets the cache logger.
func WithLogger(l *zap.Logger) Option {
	return func(rc *ResultCache) {
		if l != nil {
			rc.logger = l
		}
	}
}

// NewResultCache returns an empty cache.
func NewResultCache(opts ...Option) *ResultCache {
	rc := &ResultCache{
		clock:      clock.New(),
		defaultTTL: contract.DefaultCacheTTL,
		observer:   nopObserver{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(rc)
	}
	// The janitor reclaims memory on wall time; Get decides freshness on the injected clock.
	rc.items = gocache.New(gocache.NoExpiration, 10*rc.defaultTTL)
	return rc
}

// DefaultTTL returns the TTL used for callers that pass none.
func (rc *ResultCache) DefaultTTL() time.Duration {
	return rc.defaultTTL
}

// Get returns the value under key if it has not expired.
func (rc *ResultCache) Get(key string) (any, bool) {
	raw, ok := rc.items.Get(key)
	if !ok {
		return nil, false
	}
	e := raw.(entry)
	if !rc.clock.Now().Before(e.expiresAt) {
		rc.items.Delete(key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl, or the default TTL when ttl is not positive.
func (rc *ResultCache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = rc.defaultTTL
	}
	rc.items.Set(key, entry{value: value, expiresAt: rc.clock.Now().Add(ttl)}, ttl)
}

// Delete removes key.
func (rc *ResultCache) Delete(key string) {
	rc.items.Delete(key)
}

// DeletePrefix removes every key starting with prefix and returns how many were removed.
func (rc *ResultCache) DeletePrefix(prefix string) int {
	n := 0
	for key := range rc.items.Items() {
		if strings.HasPrefix(key, prefix) {
			rc.items.Delete(key)
			n++
		}
	}
	return n
}

// Flush removes every entry. Computes still in flight will not store their results.
func (rc *ResultCache) Flush() {
	rc.genMu.Lock()
	rc.generation++
	rc.items.Flush()
	rc.genMu.Unlock()
	rc.logger.Debug("result cache flushed")
}

// Generation counts the flushes so far.
func (rc *ResultCache) Generation() uint64 {
	rc.genMu.RLock()
	defer rc.genMu.RUnlock()
	return rc.generation
}

// setIfCurrent stores value unless the cache was flushed since gen.
func (rc *ResultCache) setIfCurrent(gen uint64, key string, value any, ttl time.Duration) bool {
	rc.genMu.RLock()
	defer rc.genMu.RUnlock()
	if rc.generation != gen {
		return false
	}
	rc.Set(key, value, ttl)
	return true
}

// Status reports counters and the keys that are still fresh.
func (rc *ResultCache) Status() schema.CacheStatus {
	now := rc.clock.Now()
	var keys []string
	for key, item := range rc.items.Items() {
		if e, ok := item.Object.(entry); ok && now.Before(e.expiresAt) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return schema.CacheStatus{
		Entries:      len(keys),
		Hits:         rc.hits.Load(),
		Misses:       rc.misses.Load(),
		Computes:     rc.computes.Load(),
		Failures:     rc.failures.Load(),
		DefaultTTL:   rc.defaultTTL,
		SingleFlight: rc.singleFlight,
		Keys:         keys,
	}
}

// compute runs fn, stores a successful result and fires the recompute hook.
func (rc *ResultCache) compute(ctx context.Context, gen uint64, key string, ttl time.Duration, fn func(context.Context) (any, error)) (any, error) {
	start := rc.clock.Now()
	value, err := fn(ctx)
	rc.observer.Computed(key, rc.clock.Since(start), err)
	if err != nil {
		rc.failures.Add(1)
		rc.logger.Debug("compute failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	rc.computes.Add(1)
	if !rc.setIfCurrent(gen, key, value, ttl) {
		rc.logger.Debug("discarding result computed before a flush", zap.String("key", key))
		return value, nil
	}
	if rc.onRecompute != nil {
		rc.onRecompute(key, value)
	}
	return value, nil
}

// GetOrCompute returns the fresh value under key, or computes, stores and returns it.
// Errors from compute are returned as is and leave the cache untouched.
// A stored value of another type counts as a miss.
func GetOrCompute[T any](ctx context.Context, rc *ResultCache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	if raw, ok := rc.Get(key); ok {
		if v, ok := raw.(T); ok {
			rc.hits.Add(1)
			rc.observer.Hit(key)
			return v, nil
		}
	}
	rc.misses.Add(1)
	rc.observer.Miss(key)

	fn := func(ctx context.Context) (any, error) { return compute(ctx) }
	gen := rc.Generation()

	var raw any
	var err error
	if rc.singleFlight {
		// Misses after a flush never join a flight started before it.
		raw, err, _ = rc.flight.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
			// A caller that lost the race may find the winner's value.
			if v, ok := rc.Get(key); ok {
				if _, ok := v.(T); ok {
					return v, nil
				}
			}
			return rc.compute(ctx, gen, key, ttl, fn)
		})
	} else {
		raw, err = rc.compute(ctx, gen, key, ttl, fn)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := raw.(T)
	return v, nil
}
