package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cinefile/internal/catalog/tmdb"
)

type searchCacheEntry struct {
	resp    *tmdb.Response
	expires time.Time
}

// throttledClient caches search responses and spaces every request by a
// minimum interval. Concurrent callers reserve consecutive slots.
type throttledClient struct {
	client   tmdb.Searcher
	cache    map[string]searchCacheEntry
	cacheTTL time.Duration
	interval time.Duration
	mu       sync.Mutex
	nextSlot time.Time
}

func newThrottledClient(client tmdb.Searcher, cacheTTL, interval time.Duration) *throttledClient {
	return &throttledClient{
		client:   client,
		cache:    make(map[string]searchCacheEntry),
		cacheTTL: cacheTTL,
		interval: interval,
	}
}

func (c *throttledClient) search(ctx context.Context, title string, year int) (*tmdb.Response, error) {
	key := fmt.Sprintf("%s|%d", strings.ToLower(strings.TrimSpace(title)), year)

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.resp, nil
	}
	c.mu.Unlock()

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.client.SearchMovie(ctx, title, year)
	if err != nil {
		return nil, err
	}

	if c.cacheTTL > 0 {
		c.mu.Lock()
		c.cache[key] = searchCacheEntry{resp: resp, expires: time.Now().Add(c.cacheTTL)}
		c.mu.Unlock()
	}
	return resp, nil
}

func (c *throttledClient) details(ctx context.Context, id int64) (*tmdb.MovieDetails, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.client.GetMovieDetails(ctx, id)
}

func (c *throttledClient) wait(ctx context.Context) error {
	if c.interval <= 0 {
		return ctx.Err()
	}
	c.mu.Lock()
	now := time.Now()
	slot := c.nextSlot
	if slot.Before(now) {
		slot = now
	}
	c.nextSlot = slot.Add(c.interval)
	c.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
