package roster

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "roster"

// Cache holds the last fetched roster. Reads serve whatever is cached and
// only block when the cache is both empty and stale.
type Cache struct {
	fetcher        Fetcher
	ttl            time.Duration
	refreshTimeout time.Duration
	logger         *logrus.Logger
	now            func() time.Time

	mu        sync.RWMutex
	entries   []string
	fetchedAt time.Time

	group      singleflight.Group
	refreshing atomic.Bool
	background sync.WaitGroup
}

func NewCache(fetcher Fetcher, ttl time.Duration, logger *logrus.Logger) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Cache{
		fetcher:        fetcher,
		ttl:            ttl,
		refreshTimeout: 30 * time.Second,
		logger:         logger,
		now:            time.Now,
	}
}

func (c *Cache) snapshot() ([]string, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.entries))
	copy(out, c.entries)
	return out, c.fetchedAt
}

func (c *Cache) stale(fetchedAt time.Time) bool {
	return fetchedAt.IsZero() || c.now().Sub(fetchedAt) >= c.ttl
}

// FetchedAt is the time of the last successful refresh, zero before the first.
func (c *Cache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// Get returns the cached names. A stale but warm cache is returned as is and
// refreshed in the background.
func (c *Cache) Get(ctx context.Context) []string {
	entries, fetchedAt := c.snapshot()
	if !c.stale(fetchedAt) {
		return entries
	}
	if len(entries) == 0 {
		fresh, _ := c.Refresh(ctx)
		return fresh
	}
	c.refreshInBackground()
	return entries
}

// Refresh fetches the roster now. Concurrent calls share one fetch. On failure
// the previous entries are returned together with the error.
func (c *Cache) Refresh(ctx context.Context) ([]string, error) {
	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		names, err := c.fetcher.FetchActive(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries = names
		c.fetchedAt = c.now()
		c.mu.Unlock()
		return nil, nil
	})

	var err error
	select {
	case res := <-ch:
		err = res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		config.RosterRefreshes.WithLabelValues("failure").Inc()
		config.LogError(c.logger, "roster/cache.go", "Refresh", "refreshing roster, serving cached entries", nil, err)
	} else {
		config.RosterRefreshes.WithLabelValues("success").Inc()
	}
	entries, _ := c.snapshot()
	return entries, err
}

func (c *Cache) refreshInBackground() {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		defer c.refreshing.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()
		_, _ = c.Refresh(ctx)
	}()
}

// Wait blocks until background refreshes started so far have finished.
func (c *Cache) Wait() {
	c.background.Wait()
}
