package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/adalundhe/reverie/core/classify"
	"github.com/adalundhe/reverie/core/search"
	"github.com/dgraph-io/ristretto"
)

// =============================================================================
// Query Cache
// =============================================================================
//
// Short-TTL cache over retrieval dispatches. Companions tend to circle the
// same subject across adjacent turns; re-dispatching the identical query and
// strategy within the TTL window is wasted backend work.

const (
	defaultNumCounters = 1e5
	defaultMaxCost     = 1 << 24 // 16MB of cached result sets
	defaultBufferItems = 64
	defaultCacheTTL    = time.Minute
)

// CacheConfig configures the query cache. Zero values select defaults.
type CacheConfig struct {
	NumCounters int64
	MaxCost     int64
	TTL         time.Duration
}

// QueryCache caches retrieval results keyed by conversation, query, and
// strategy.
type QueryCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewQueryCache creates a QueryCache.
func NewQueryCache(cfg CacheConfig) (*QueryCache, error) {
	numCounters := cfg.NumCounters
	if numCounters <= 0 {
		numCounters = defaultNumCounters
	}
	maxCost := cfg.MaxCost
	if maxCost <= 0 {
		maxCost = defaultMaxCost
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: defaultBufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &QueryCache{cache: cache, ttl: ttl}, nil
}

// Get returns the cached result set for the key, if present.
func (c *QueryCache) Get(conversationID, query string, strategy classify.Strategy) ([]search.ScoredItem, bool) {
	value, found := c.cache.Get(cacheKey(conversationID, query, strategy))
	if !found {
		return nil, false
	}
	items, ok := value.([]search.ScoredItem)
	return items, ok
}

// Set stores a result set under the key.
func (c *QueryCache) Set(conversationID, query string, strategy classify.Strategy, items []search.ScoredItem) {
	cost := int64(1)
	for _, item := range items {
		cost += int64(len(item.Item.Content))
	}
	c.cache.SetWithTTL(cacheKey(conversationID, query, strategy), items, cost, c.ttl)
}

// Wait blocks until pending writes are visible. Tests use this; ristretto
// applies sets asynchronously.
func (c *QueryCache) Wait() {
	c.cache.Wait()
}

// Close releases the cache.
func (c *QueryCache) Close() {
	c.cache.Close()
}

func cacheKey(conversationID, query string, strategy classify.Strategy) string {
	h := sha256.New()
	h.Write([]byte(conversationID))
	h.Write([]byte{0})
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(strategy))
	return hex.EncodeToString(h.Sum(nil))
}
