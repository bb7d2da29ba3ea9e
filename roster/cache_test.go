package roster

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/goleak"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	names   []string
	err     error
	release chan struct{}
}

func (f *fakeFetcher) FetchActive(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	f.calls++
	names, err, release := f.names, f.err, f.release
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	return names, err
}

func (f *fakeFetcher) set(names []string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names, f.err = names, err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(f Fetcher) (*Cache, *clock) {
	clk := &clock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	c := NewCache(f, time.Minute, quietLogger())
	c.now = clk.Now
	return c, clk
}

func TestCacheColdGetFetchesSynchronously(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeFetcher{names: []string{"Ana", "Luis"}}
	c, _ := newTestCache(f)

	got := c.Get(context.Background())
	if len(got) != 2 || f.callCount() != 1 {
		t.Fatalf("expected a synchronous fetch, got %v after %d calls", got, f.callCount())
	}

	got = c.Get(context.Background())
	if len(got) != 2 || f.callCount() != 1 {
		t.Fatalf("fresh cache must not fetch again, calls=%d", f.callCount())
	}

	got[0] = "mutated"
	if again := c.Get(context.Background()); again[0] != "Ana" {
		t.Fatalf("Get must return a copy, cache now holds %q", again[0])
	}
}

func TestCacheStaleGetServesOldEntriesAndRefreshes(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeFetcher{names: []string{"Ana"}}
	c, clk := newTestCache(f)
	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	clk.Advance(2 * time.Minute)
	f.set([]string{"Ana", "Bea"}, nil)

	got := c.Get(context.Background())
	if len(got) != 1 {
		t.Fatalf("stale read should serve the cached entries, got %v", got)
	}
	c.Wait()

	if got := c.Get(context.Background()); len(got) != 2 {
		t.Fatalf("background refresh should have replaced the entries, got %v", got)
	}
	if !c.FetchedAt().Equal(clk.Now()) {
		t.Fatalf("expected fetchedAt to move to %s, got %s", clk.Now(), c.FetchedAt())
	}
}

func TestCacheBackgroundRefreshRunsOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeFetcher{names: []string{"Ana"}}
	c, clk := newTestCache(f)
	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	clk.Advance(2 * time.Minute)

	release := make(chan struct{})
	f.mu.Lock()
	f.release = release
	f.mu.Unlock()

	for i := 0; i < 10; i++ {
		if got := c.Get(context.Background()); len(got) != 1 {
			t.Fatalf("read %d should serve the stale entry, got %v", i, got)
		}
	}
	close(release)
	c.Wait()

	if calls := f.callCount(); calls != 2 {
		t.Fatalf("expected the initial fetch plus one background refresh, got %d calls", calls)
	}
}

func TestCacheRefreshFailureKeepsEntries(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeFetcher{names: []string{"Ana", "Luis"}}
	c, clk := newTestCache(f)
	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	fetchedAt := c.FetchedAt()

	clk.Advance(2 * time.Minute)
	f.set(nil, errors.New("roster down"))

	got, err := c.Refresh(context.Background())
	if err == nil {
		t.Fatalf("expected the fetch error to be reported")
	}
	if len(got) != 2 {
		t.Fatalf("failed refresh should return the previous entries, got %v", got)
	}
	if !c.FetchedAt().Equal(fetchedAt) {
		t.Fatalf("failed refresh must not move fetchedAt")
	}
}

func TestCacheColdFailureReturnsEmpty(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeFetcher{err: errors.New("roster down")}
	c, _ := newTestCache(f)

	if got := c.Get(context.Background()); len(got) != 0 {
		t.Fatalf("expected no entries, got %v", got)
	}
	if got := c.Get(context.Background()); len(got) != 0 || f.callCount() != 2 {
		t.Fatalf("an empty cache should retry on every read, calls=%d", f.callCount())
	}
}

func TestPrewarmRetriesUntilSuccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &failingThenOK{failures: 2, names: []string{"Ana"}}
	c, _ := newTestCache(f)

	<-Prewarm(context.Background(), c, 5, time.Millisecond)

	if f.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.calls)
	}
	if got := c.Get(context.Background()); len(got) != 1 {
		t.Fatalf("expected the cache to be warm, got %v", got)
	}
}

func TestPrewarmGivesUp(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeFetcher{err: errors.New("roster down")}
	c, _ := newTestCache(f)

	<-Prewarm(context.Background(), c, 3, time.Millisecond)

	if calls := f.callCount(); calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestPrewarmStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &fakeFetcher{err: errors.New("roster down")}
	c, _ := newTestCache(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	<-Prewarm(ctx, c, 5, time.Hour)

	if calls := f.callCount(); calls > 1 {
		t.Fatalf("expected at most one attempt after cancel, got %d", calls)
	}
}

type failingThenOK struct {
	calls    int
	failures int
	names    []string
}

func (f *failingThenOK) FetchActive(ctx context.Context) ([]string, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("not yet")
	}
	return f.names, nil
}
