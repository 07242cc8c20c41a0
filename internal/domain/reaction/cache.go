package reaction

import (
	"context"
	"hash/fnv"
	"sync"
)

// BalanceCache de-duplicates balancing work across entries that share the
// same normalized equation text.  Keys can collide across enzyme groups, so
// implementations must be safe for concurrent use by parallel group workers.
type BalanceCache interface {
	// Get returns the cached balanced list for key.  The boolean reports a
	// hit; a hit with an empty list is a valid cached "unbalanced" outcome.
	Get(ctx context.Context, key string) ([]Reaction, bool)

	// Set stores the balanced list for key.
	Set(ctx context.Context, key string, balanced []Reaction)
}

// shardCount is a power of two so the hash can be masked.
const shardCount = 32

type cacheShard struct {
	mu      sync.RWMutex
	entries map[string][]Reaction
}

// MemoryBalanceCache is a sharded in-process BalanceCache scoped to one
// batch run.
type MemoryBalanceCache struct {
	shards [shardCount]*cacheShard
}

// NewMemoryBalanceCache constructs an empty MemoryBalanceCache.
func NewMemoryBalanceCache() *MemoryBalanceCache {
	c := &MemoryBalanceCache{}
	for i := range c.shards {
		c.shards[i] = &cacheShard{entries: map[string][]Reaction{}}
	}
	return c
}

func (c *MemoryBalanceCache) shard(key string) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()&(shardCount-1)]
}

// Get implements BalanceCache.
func (c *MemoryBalanceCache) Get(_ context.Context, key string) ([]Reaction, bool) {
	s := c.shard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	cached, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return append([]Reaction(nil), cached...), true
}

// Set implements BalanceCache.
func (c *MemoryBalanceCache) Set(_ context.Context, key string, balanced []Reaction) {
	s := c.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = append([]Reaction(nil), balanced...)
}

// Len returns the number of cached keys, for statistics.
func (c *MemoryBalanceCache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}
