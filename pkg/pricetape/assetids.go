package pricetape

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hypergate/pkg/exchange"
	"hypergate/pkg/precision"
)

// DefaultAssetTTL bounds how long a cached asset-id map is trusted.
const DefaultAssetTTL = 5 * time.Minute

// AssetIDCache maps symbols (base and -PERP forms) to upstream asset indexes.
// Readers may observe a map up to TTL stale; refreshes are serialized.
type AssetIDCache struct {
	mu          sync.RWMutex
	info        exchange.Info
	ids         map[string]int
	refreshedAt time.Time
	ttl         time.Duration
	clock       func() time.Time
}

// NewAssetIDCache builds an empty cache backed by the given info transport.
func NewAssetIDCache(info exchange.Info, ttl time.Duration) *AssetIDCache {
	if ttl <= 0 {
		ttl = DefaultAssetTTL
	}
	return &AssetIDCache{
		info:  info,
		ids:   make(map[string]int),
		ttl:   ttl,
		clock: time.Now,
	}
}

// Lookup resolves a symbol to its asset id, refreshing the cache on a miss or
// after TTL expiry. When upstream is unreachable it falls back to the built-in
// map without recording a refresh; symbols absent from both fail closed.
func (c *AssetIDCache) Lookup(ctx context.Context, symbol string) (int, error) {
	base := precision.Canonical(symbol)
	if base == "" {
		return 0, fmt.Errorf("pricetape: empty symbol")
	}

	if id, ok := c.cached(base); ok {
		return id, nil
	}

	if err := c.Refresh(ctx); err != nil {
		logx.WithContext(ctx).Errorf("pricetape: asset id refresh failed, trying fallback: %v", err)
		if id, ok := fallbackAssetIDs[base]; ok {
			return id, nil
		}
		return 0, fmt.Errorf("pricetape: asset id for %s unavailable: %w", symbol, err)
	}

	if id, ok := c.cached(base); ok {
		return id, nil
	}
	return 0, fmt.Errorf("pricetape: unknown asset %s", symbol)
}

func (c *AssetIDCache) cached(base string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.clock().Sub(c.refreshedAt) > c.ttl {
		return 0, false
	}
	id, ok := c.ids[base]
	return id, ok
}

// Refresh repopulates the map from upstream meta. Concurrent callers are
// serialized; the earlier winner's result satisfies later waiters.
func (c *AssetIDCache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clock().Sub(c.refreshedAt) <= c.ttl && len(c.ids) > 0 {
		return nil
	}
	meta, err := c.info.Meta(ctx)
	if err != nil {
		return err
	}
	c.populateLocked(meta)
	return nil
}

// Populate installs ids from an already-fetched meta response, counting as a
// refresh. The poll loop uses this so Lookup rarely needs its own fetch.
func (c *AssetIDCache) Populate(meta *exchange.Meta) {
	if meta == nil || len(meta.Universe) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.populateLocked(meta)
}

func (c *AssetIDCache) populateLocked(meta *exchange.Meta) {
	ids := make(map[string]int, len(meta.Universe))
	for idx, entry := range meta.Universe {
		base := precision.Canonical(entry.Name)
		if base == "" {
			continue
		}
		ids[base] = idx
	}
	c.ids = precision.NormalizeCoinKeys(ids)
	c.refreshedAt = c.clock()
}

// Snapshot returns a copy of the id map and its refresh timestamp.
func (c *AssetIDCache) Snapshot() (map[string]int, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int, len(c.ids))
	for k, v := range c.ids {
		out[k] = v
	}
	return out, c.refreshedAt
}

// Reset clears the cache and repoints it at a new info transport.
func (c *AssetIDCache) Reset(info exchange.Info) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = info
	c.ids = make(map[string]int)
	c.refreshedAt = time.Time{}
}
