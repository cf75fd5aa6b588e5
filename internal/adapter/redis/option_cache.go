package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/pscheid92/instaplanner/internal/domain"
)

const (
	LayerMemory = "memory"
	LayerRedis  = "redis"
	LayerStore  = "store"

	defaultRedisTTL = time.Hour
)

// LookupObserver is told which layer answered each option lookup.
type LookupObserver func(layer string)

// OptionCache fronts option repositories with an in-process L1 map and an
// optional shared Redis L2. Missing options are cached too. Concurrent misses
// for the same key share one store query.
type OptionCache struct {
	rdb      *goredis.Client
	mem      *memoryCache
	group    singleflight.Group
	redisTTL time.Duration
	observe  LookupObserver
}

type OptionCacheOption func(*OptionCache)

func WithLookupObserver(fn LookupObserver) OptionCacheOption {
	return func(c *OptionCache) { c.observe = fn }
}

func WithRedisTTL(ttl time.Duration) OptionCacheOption {
	return func(c *OptionCache) { c.redisTTL = ttl }
}

// NewOptionCache creates the cache. rdb may be nil, in which case only the
// in-process layer is used.
func NewOptionCache(rdb *goredis.Client, clock clockwork.Clock, memTTL time.Duration, opts ...OptionCacheOption) *OptionCache {
	c := &OptionCache{
		rdb:      rdb,
		mem:      newMemoryCache(clock, memTTL),
		redisTTL: defaultRedisTTL,
		observe:  func(string) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decorate has the shape of postgres.OptionDecorator.
func (c *OptionCache) Decorate(namespace string, repo domain.OptionRepository) domain.OptionRepository {
	return &CachedOptionRepo{cache: c, namespace: namespace, repo: repo}
}

// StartEvictionTimer drops expired L1 entries every interval. Call the
// returned function to stop it.
func (c *OptionCache) StartEvictionTimer(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if evicted := c.mem.evictExpired(); evicted > 0 {
					slog.Debug("Evicted expired option cache entries", "count", evicted, "remaining", c.mem.size())
				}
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}

type cachedOption struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// CachedOptionRepo is the cached view of one database's options.
type CachedOptionRepo struct {
	cache     *OptionCache
	namespace string
	repo      domain.OptionRepository
}

func (r *CachedOptionRepo) Get(ctx context.Context, name string) (string, error) {
	opt, err := r.cache.lookup(ctx, r.namespace, name, r.repo)
	if err != nil {
		return "", err
	}
	if !opt.Found {
		return "", domain.ErrOptionNotFound
	}
	return opt.Value, nil
}

// Set writes through to the store, then drops the key from both cache layers
// and tells other processes to drop it too.
func (r *CachedOptionRepo) Set(ctx context.Context, name, value string) error {
	if err := r.repo.Set(ctx, name, value); err != nil {
		return err
	}
	r.cache.invalidate(ctx, r.namespace, name)
	if err := r.cache.publishInvalidation(ctx, r.namespace, name); err != nil {
		slog.WarnContext(ctx, "Failed to publish option invalidation", "option", name, "error", err)
	}
	return nil
}

func (c *OptionCache) lookup(ctx context.Context, namespace, name string, repo domain.OptionRepository) (cachedOption, error) {
	key := optionCacheKey(namespace, name)

	if opt, ok := c.mem.get(key); ok {
		c.observe(LayerMemory)
		return opt, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if opt, ok := c.getCached(ctx, key); ok {
			c.observe(LayerRedis)
			c.mem.set(key, opt)
			return opt, nil
		}

		value, err := repo.Get(ctx, name)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrOptionNotFound):
		default:
			return cachedOption{}, fmt.Errorf("option lookup %s failed: %w", name, err)
		}

		c.observe(LayerStore)
		opt := cachedOption{Value: value, Found: err == nil}
		c.mem.set(key, opt)
		c.writeCache(ctx, key, opt)
		return opt, nil
	})
	if err != nil {
		return cachedOption{}, err
	}
	return v.(cachedOption), nil
}

func (c *OptionCache) invalidate(ctx context.Context, namespace, name string) {
	key := optionCacheKey(namespace, name)
	c.mem.invalidate(key)
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to invalidate Redis option cache", "key", key, "error", err)
	}
}

func (c *OptionCache) getCached(ctx context.Context, key string) (cachedOption, bool) {
	if c.rdb == nil {
		return cachedOption{}, false
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.WarnContext(ctx, "Redis option cache GET failed", "key", key, "error", err)
		}
		return cachedOption{}, false
	}

	var opt cachedOption
	if err := json.Unmarshal(data, &opt); err != nil {
		slog.WarnContext(ctx, "Failed to unmarshal cached option", "key", key, "error", err)
		return cachedOption{}, false
	}
	return opt, true
}

func (c *OptionCache) writeCache(ctx context.Context, key string, opt cachedOption) {
	if c.rdb == nil {
		return
	}
	encoded, err := json.Marshal(opt)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, encoded, c.redisTTL).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to populate Redis option cache", "key", key, "error", err)
	}
}

func optionCacheKey(namespace, name string) string {
	return "option:" + namespace + ":" + name
}

type memoryEntry struct {
	opt       cachedOption
	expiresAt time.Time
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   clockwork.Clock
	ttl     time.Duration
}

func newMemoryCache(clock clockwork.Clock, ttl time.Duration) *memoryCache {
	return &memoryCache{
		entries: make(map[string]memoryEntry),
		clock:   clock,
		ttl:     ttl,
	}
}

func (c *memoryCache) get(key string) (cachedOption, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || !c.clock.Now().Before(entry.expiresAt) {
		return cachedOption{}, false
	}
	return entry.opt, true
}

func (c *memoryCache) set(key string, opt cachedOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{opt: opt, expiresAt: c.clock.Now().Add(c.ttl)}
}

func (c *memoryCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *memoryCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}
