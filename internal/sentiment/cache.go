package sentiment

import (
	"sync"
	"time"
)

// HistoryCache memoizes per (asset, date) sentiment scores. An entry is
// fresh only on the calendar day it was computed: yesterday's intraday score
// is stale because more articles have accumulated since.
type HistoryCache struct {
	now func() time.Time

	mu      sync.Mutex
	entries map[historyKey]historyEntry
}

type historyKey struct {
	asset string
	date  time.Time
}

type historyEntry struct {
	score      float64
	computedAt time.Time
}

// NewHistoryCache creates an empty cache using the wall clock.
func NewHistoryCache() *HistoryCache {
	return &HistoryCache{
		now:     time.Now,
		entries: make(map[historyKey]historyEntry),
	}
}

// SetClock replaces the time source for tests.
func (c *HistoryCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns the memoized score for the asset on the given date, and
// whether a fresh entry existed.
func (c *HistoryCache) Get(asset string, date time.Time) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[historyKey{asset: asset, date: dateOf(date)}]
	if !ok {
		return 0, false
	}
	if !sameDay(e.computedAt, c.now()) {
		return 0, false
	}
	return e.score, true
}

// Put stores the score for the asset on the given date.
func (c *HistoryCache) Put(asset string, date time.Time, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[historyKey{asset: asset, date: dateOf(date)}] = historyEntry{
		score:      score,
		computedAt: c.now(),
	}
}

// Flush drops every entry.
func (c *HistoryCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[historyKey]historyEntry)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
