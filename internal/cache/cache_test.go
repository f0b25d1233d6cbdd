package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hanifmaulana/kasbot/internal/model"
)

// fakeClock is a manually advanced clock for TTL tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// countingLoader counts calls and returns a canned result or error.
type countingLoader struct {
	calls int64
	value []model.Transaction
	err   error
}

func (l *countingLoader) load(ctx context.Context) ([]model.Transaction, error) {
	atomic.AddInt64(&l.calls, 1)
	if l.err != nil {
		return nil, l.err
	}
	return l.value, nil
}

func newTestCache(ttl time.Duration) (*Cache, *fakeClock) {
	clock := newFakeClock()
	c := New(ttl, zerolog.Nop())
	c.now = clock.Now
	return c, clock
}

func sample(n int) []model.Transaction {
	txs := make([]model.Transaction, n)
	for i := range txs {
		txs[i] = model.Transaction{Amount: int64(1000 * (i + 1)), Direction: model.DirectionExpense}
	}
	return txs
}

func TestGetLoadsOnceWithinTTL(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	loader := &countingLoader{value: sample(3)}

	first, err := c.Get(context.Background(), "all", loader.load)
	if err != nil {
		t.Fatalf("first Get failed: %v", err)
	}
	if got := atomic.LoadInt64(&loader.calls); got != 1 {
		t.Fatalf("first Get: loader calls = %d, want 1", got)
	}

	second, err := c.Get(context.Background(), "all", loader.load)
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if got := atomic.LoadInt64(&loader.calls); got != 1 {
		t.Errorf("second Get within TTL: loader calls = %d, want 1", got)
	}
	if len(first) != len(second) || first[0].Amount != second[0].Amount {
		t.Error("second Get returned a different value")
	}
}

func TestGetReloadsAfterTTL(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	loader := &countingLoader{value: sample(1)}

	if _, err := c.Get(context.Background(), "all", loader.load); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Minute + time.Second)

	if _, err := c.Get(context.Background(), "all", loader.load); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&loader.calls); got != 2 {
		t.Errorf("Get after TTL: loader calls = %d, want 2", got)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	loader := &countingLoader{value: sample(1)}

	if _, err := c.Get(context.Background(), "all", loader.load); err != nil {
		t.Fatal(err)
	}
	c.Invalidate("all")

	if _, err := c.Get(context.Background(), "all", loader.load); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&loader.calls); got != 2 {
		t.Errorf("Get after Invalidate: loader calls = %d, want 2", got)
	}
}

func TestInvalidateAllForcesReload(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	loader := &countingLoader{value: sample(1)}

	if _, err := c.Get(context.Background(), "all", loader.load); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(context.Background(), "period:2025-03", loader.load); err != nil {
		t.Fatal(err)
	}
	c.InvalidateAll()

	if _, err := c.Get(context.Background(), "all", loader.load); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(context.Background(), "period:2025-03", loader.load); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&loader.calls); got != 4 {
		t.Errorf("loader calls = %d, want 4", got)
	}
}

func TestStaleFallbackOnLoaderFailure(t *testing.T) {
	c, clock := newTestCache(time.Minute)
	loader := &countingLoader{value: sample(2)}

	if _, err := c.Get(context.Background(), "all", loader.load); err != nil {
		t.Fatal(err)
	}

	clock.Advance(2 * time.Minute)
	loader.err = errors.New("quota exceeded")

	value, err := c.Get(context.Background(), "all", loader.load)
	if err != nil {
		t.Fatalf("Get should fall back to the stale value, got error: %v", err)
	}
	if len(value) != 2 {
		t.Errorf("stale fallback returned %d transactions, want 2", len(value))
	}
	if got := atomic.LoadInt64(&loader.calls); got != 2 {
		t.Errorf("stale entry must still trigger a refresh attempt: loader calls = %d, want 2", got)
	}

	// The failed refresh must not reset the clock on the stale entry:
	// the next Get retries the loader again.
	loader.err = nil
	if _, err := c.Get(context.Background(), "all", loader.load); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&loader.calls); got != 3 {
		t.Errorf("loader calls = %d, want 3", got)
	}
}

func TestMissErrorWhenNoPriorValue(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	loadErr := errors.New("store unreachable")
	loader := &countingLoader{err: loadErr}

	_, err := c.Get(context.Background(), "all", loader.load)
	var miss *MissError
	if !errors.As(err, &miss) {
		t.Fatalf("Get = %v, want *MissError", err)
	}
	if miss.Key != "all" {
		t.Errorf("MissError key = %q, want %q", miss.Key, "all")
	}
	if !errors.Is(err, loadErr) {
		t.Error("MissError should wrap the loader error")
	}
}

func TestConcurrentGetsCoalesce(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	var calls int64
	release := make(chan struct{})
	loader := func(ctx context.Context) ([]model.Transaction, error) {
		atomic.AddInt64(&calls, 1)
		<-release
		return sample(1), nil
	}

	const waiters = 8
	var wg sync.WaitGroup
	errs := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "all", loader)
			errs <- err
		}()
	}

	// Let the goroutines queue up on the single in-flight load.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Get failed: %v", err)
		}
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("concurrent Gets for one key: loader calls = %d, want 1", got)
	}
}

func TestGetHonorsCallerContext(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	release := make(chan struct{})
	defer close(release)
	loader := func(ctx context.Context) ([]model.Transaction, error) {
		<-release
		return sample(1), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "all", loader)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Get with expired context = %v, want context.DeadlineExceeded", err)
	}
}

func TestInvalidateDiscardsInFlightResult(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	release := make(chan struct{})
	var calls int64
	loader := func(ctx context.Context) ([]model.Transaction, error) {
		atomic.AddInt64(&calls, 1)
		<-release
		return sample(1), nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Get(context.Background(), "all", loader)
	}()

	time.Sleep(50 * time.Millisecond)
	c.InvalidateAll() // a write committed while the load was in flight
	close(release)
	<-done

	// The in-flight result must not have been stored: the next Get reloads.
	fast := func(ctx context.Context) ([]model.Transaction, error) {
		atomic.AddInt64(&calls, 1)
		return sample(2), nil
	}
	if _, err := c.Get(context.Background(), "all", fast); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&calls); got != 2 {
		t.Errorf("loader calls = %d, want 2 (in-flight result discarded)", got)
	}
}
