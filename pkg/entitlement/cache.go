package entitlement

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

const (
	// DefaultCacheTTL is the lifespan of a cached decision.
	DefaultCacheTTL = 5 * time.Minute

	defaultCacheShards = 32
)

// Entry is a cached decision. Entries are replaced, never mutated.
type Entry struct {
	Result    Result
	ExpiresAt time.Time
}

// CacheStats is a point-in-time view of the cache for observability.
type CacheStats struct {
	Size           int `json:"cacheSize"`
	ValidEntries   int `json:"validEntries"`
	ExpiredEntries int `json:"expiredEntries"`
}

type cacheShard struct {
	mu         sync.RWMutex
	workspaces map[uuid.UUID]map[tier.Feature]*Entry
}

// Cache is a process-local, TTL-bound store of resolved decisions keyed by
// (workspace, feature). It is sharded by workspace so that bursts of checks
// for one workspace don't contend with other workspaces.
//
// The cache is never a source of truth: dropping it at any time is safe.
type Cache struct {
	shards []*cacheShard
	now    func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithShards sets the number of shards. Values below 1 are ignored.
func WithShards(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.shards = make([]*cacheShard, n)
		}
	}
}

// WithCacheClock overrides the time source used for expiry checks.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		shards: make([]*cacheShard, defaultCacheShards),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	for i := range c.shards {
		c.shards[i] = &cacheShard{workspaces: make(map[uuid.UUID]map[tier.Feature]*Entry)}
	}
	return c
}

// Get returns the live entry for the key. Expired entries count as a miss and
// are evicted on the way out.
func (c *Cache) Get(workspaceID uuid.UUID, feature tier.Feature) (Entry, bool) {
	s := c.shard(workspaceID)

	s.mu.RLock()
	e := s.workspaces[workspaceID][feature]
	s.mu.RUnlock()

	if e == nil {
		return Entry{}, false
	}
	if !c.now().Before(e.ExpiresAt) {
		c.evict(s, workspaceID, feature, e)
		return Entry{}, false
	}
	return *e, true
}

// Put stores the result for ttl. A non-positive ttl stores nothing.
func (c *Cache) Put(workspaceID uuid.UUID, feature tier.Feature, result Result, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	e := &Entry{Result: result, ExpiresAt: c.now().Add(ttl)}

	s := c.shard(workspaceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	features, ok := s.workspaces[workspaceID]
	if !ok {
		features = make(map[tier.Feature]*Entry)
		s.workspaces[workspaceID] = features
	}
	features[feature] = e
}

// InvalidateWorkspace drops every entry of the workspace and returns how many were removed.
// Other workspaces are untouched.
func (c *Cache) InvalidateWorkspace(workspaceID uuid.UUID) int {
	s := c.shard(workspaceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.workspaces[workspaceID])
	delete(s.workspaces, workspaceID)
	return n
}

// Clear drops all entries.
func (c *Cache) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		clear(s.workspaces)
		s.mu.Unlock()
	}
}

func (c *Cache) Stats() CacheStats {
	now := c.now()
	var stats CacheStats
	for _, s := range c.shards {
		s.mu.RLock()
		for _, features := range s.workspaces {
			for _, e := range features {
				stats.Size++
				if now.Before(e.ExpiresAt) {
					stats.ValidEntries++
				} else {
					stats.ExpiredEntries++
				}
			}
		}
		s.mu.RUnlock()
	}
	return stats
}

// evict removes e unless it was replaced after it was read.
func (c *Cache) evict(s *cacheShard, workspaceID uuid.UUID, feature tier.Feature, e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	features := s.workspaces[workspaceID]
	if features[feature] != e {
		return
	}
	delete(features, feature)
	if len(features) == 0 {
		delete(s.workspaces, workspaceID)
	}
}

// shard picks a shard with FNV-1a over the workspace id bytes.
func (c *Cache) shard(workspaceID uuid.UUID) *cacheShard {
	h := uint32(2166136261)
	for _, b := range workspaceID {
		h ^= uint32(b)
		h *= 16777619
	}
	return c.shards[h%uint32(len(c.shards))]
}
