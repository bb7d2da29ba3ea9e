package roster

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Prewarm fills the cache in a detached goroutine, trying a fixed number of
// times with a fixed pause. The returned channel closes when it gives up or succeeds.
func Prewarm(ctx context.Context, cache *Cache, attempts int, backoff time.Duration) <-chan struct{} {
	done := make(chan struct{})
	if attempts <= 0 {
		attempts = 1
	}
	go func() {
		defer close(done)
		for attempt := 1; attempt <= attempts; attempt++ {
			names, err := cache.Refresh(ctx)
			if err == nil {
				cache.logger.WithFields(logrus.Fields{"attempt": attempt, "entries": len(names)}).Info("roster prewarmed")
				return
			}
			cache.logger.WithFields(logrus.Fields{"attempt": attempt, "attempts": attempts}).Warn("roster prewarm attempt failed")
			if attempt == attempts {
				break
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}
		cache.logger.WithField("attempts", attempts).Error("roster prewarm gave up")
	}()
	return done
}
