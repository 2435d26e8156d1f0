package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketpulse/internal/domain"
)

var _ Provider = (*CachedProvider)(nil)

// CachedProvider wraps a Provider with an in-memory TTL cache keyed by the
// full request. Concurrent misses for the same key may each hit the upstream
// once; the last write wins, which is harmless for identical responses.
type CachedProvider struct {
	inner Provider
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	bars      []domain.Bar
	fetchedAt time.Time
}

// NewCachedProvider wraps inner with a cache of the given TTL.
func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// SetClock replaces the time source. Tests use it to step through TTL expiry
// without sleeping.
func (c *CachedProvider) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// TimeSeries returns the cached bars when fresh, otherwise fetches from the
// wrapped provider and stores the result. Upstream errors are not cached.
func (c *CachedProvider) TimeSeries(ctx context.Context, symbol, interval string, outputSize int) ([]domain.Bar, error) {
	key := fmt.Sprintf("%s|%s|%d", symbol, interval, outputSize)

	c.mu.Lock()
	entry, ok := c.entries[key]
	now := c.now()
	c.mu.Unlock()

	if ok && now.Sub(entry.fetchedAt) < c.ttl {
		return entry.bars, nil
	}

	bars, err := c.inner.TimeSeries(ctx, symbol, interval, outputSize)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{bars: bars, fetchedAt: now}
	c.mu.Unlock()

	return bars, nil
}

// Flush drops every cached entry.
func (c *CachedProvider) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
