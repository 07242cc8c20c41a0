package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/enzymemap/internal/domain/reaction"
	"github.com/turtacn/enzymemap/internal/infrastructure/monitoring/logging"
)

// BalanceCache is a Redis-backed reaction.BalanceCache for multi-process
// runs.  Cache failures degrade to misses; the balancer then recomputes, so
// a flaky Redis never fails a batch.
type BalanceCache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
	group      singleflight.Group
}

// cachedEntry is the stored JSON shape.  Balanced lists are stored as
// reaction strings; an empty list is a valid "unbalanced" outcome and must
// round-trip as a hit.
type cachedEntry struct {
	Reactions []string `json:"reactions"`
}

// NewBalanceCache constructs a BalanceCache.  An empty prefix or zero TTL
// falls back to the package defaults.
func NewBalanceCache(client *Client, prefix string, ttl time.Duration, logger logging.Logger) *BalanceCache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if prefix == "" {
		prefix = "enzymemap:balance:"
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &BalanceCache{
		client:     client,
		logger:     logger.Named("balance-cache"),
		prefix:     prefix,
		defaultTTL: ttl,
	}
}

// Get implements reaction.BalanceCache.  Concurrent gets of the same key are
// collapsed into a single round-trip.
func (c *BalanceCache) Get(ctx context.Context, key string) ([]reaction.Reaction, bool) {
	fullKey := c.prefix + key

	v, err, _ := c.group.Do(fullKey, func() (interface{}, error) {
		return c.client.Get(ctx, fullKey).Bytes()
	})
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache get failed, treating as miss", logging.Err(err))
		return nil, false
	}

	var entry cachedEntry
	if err := json.Unmarshal(v.([]byte), &entry); err != nil {
		c.logger.Warn("cache entry corrupt, treating as miss", logging.Err(err))
		return nil, false
	}

	out := make([]reaction.Reaction, 0, len(entry.Reactions))
	for _, text := range entry.Reactions {
		r, err := reaction.ParseReaction(text)
		if err != nil {
			c.logger.Warn("cache entry unparseable, treating as miss",
				logging.String("reaction", text), logging.Err(err))
			return nil, false
		}
		out = append(out, r)
	}
	return out, true
}

// Set implements reaction.BalanceCache.  The TTL is jittered by 10 percent
// to avoid synchronized expiry across processes.
func (c *BalanceCache) Set(ctx context.Context, key string, balanced []reaction.Reaction) {
	entry := cachedEntry{Reactions: make([]string, 0, len(balanced))}
	for _, r := range balanced {
		entry.Reactions = append(entry.Reactions, r.String())
	}

	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("cannot serialize cache entry", logging.Err(err))
		return
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.jitterTTL()).Err(); err != nil {
		c.logger.Warn("cache set failed", logging.Err(err))
	}
}

func (c *BalanceCache) jitterTTL() time.Duration {
	jitter := float64(c.defaultTTL) * 0.1 * (rand.Float64()*2 - 1)
	return c.defaultTTL + time.Duration(jitter)
}

var _ reaction.BalanceCache = (*BalanceCache)(nil)
