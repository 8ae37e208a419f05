package stats

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/models"
)

// Provider computes dashboard statistics for a channel.
type Provider interface {
	ChannelStats(ctx context.Context, channel primitive.ObjectID) (models.ChannelStats, error)
}

type cacheEntry struct {
	stats   models.ChannelStats
	expires time.Time
}

// CachingProvider wraps another Provider with a TTL-based in-memory cache.
// Channel totals tolerate brief staleness, so dashboard refreshes do not
// re-run the aggregation on every request.
type CachingProvider struct {
	base Provider
	ttl  time.Duration

	mu    sync.RWMutex
	items map[primitive.ObjectID]cacheEntry
}

// NewCachingProvider returns a Provider that caches lookups for the provided TTL.
func NewCachingProvider(base Provider, ttl time.Duration) *CachingProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingProvider{
		base:  base,
		ttl:   ttl,
		items: make(map[primitive.ObjectID]cacheEntry),
	}
}

// ChannelStats returns cached totals when fresh, otherwise it delegates to
// the underlying provider and stores the result.
func (c *CachingProvider) ChannelStats(ctx context.Context, channel primitive.ObjectID) (models.ChannelStats, error) {
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.items[channel]
	c.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.stats, nil
	}

	stats, err := c.base.ChannelStats(ctx, channel)
	if err != nil {
		return models.ChannelStats{}, err
	}

	c.mu.Lock()
	c.items[channel] = cacheEntry{stats: stats, expires: now.Add(c.ttl)}
	c.mu.Unlock()

	return stats, nil
}

var _ Provider = (*CachingProvider)(nil)
