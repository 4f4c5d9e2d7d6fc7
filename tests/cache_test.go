package tests

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	querycache "github.com/cyx-darren/go-query-cache"
	"github.com/cyx-darren/go-query-cache/tests/help"
)

// TestCache exercises the whole assembly under repeated reads: one
// write, many hits, stable value.
func TestCache(t *testing.T) {
	cache, err := querycache.New(testContext(t), help.Cfg(), help.Logger())
	require.NoError(t, err)
	defer func() { require.NoError(t, cache.Close()) }()

	require.True(t, cache.Set("hello_world", "test response", nil))

	for i := 0; i < 1000; i++ {
		v, ok := cache.Get("hello_world")
		require.True(t, ok)
		require.Equal(t, "test response", v)
	}

	m := cache.Metrics()
	require.Equal(t, int64(1000), m.Hits)
	require.Equal(t, int64(0), m.Misses)
	require.Equal(t, 1.0, m.HitRate)
}

// TestCacheConcurrent hammers one instance from many goroutines mixing
// writes, reads and deletes.
func TestCacheConcurrent(t *testing.T) {
	cache, err := querycache.New(testContext(t), help.Cfg(), help.Logger())
	require.NoError(t, err)
	defer func() { require.NoError(t, cache.Close()) }()

	const workers = 16
	const opsPerWorker = 500

	var wg sync.WaitGroup
	var writes int64
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				key := fmt.Sprintf("k:%d:%d", w, i%50)
				switch i % 3 {
				case 0:
					if cache.Set(key, i, nil) {
						atomic.AddInt64(&writes, 1)
					}
				case 1:
					_, _ = cache.Get(key)
				case 2:
					_ = cache.Delete(key)
				}
			}
		}(w)
	}
	wg.Wait()

	require.Greater(t, atomic.LoadInt64(&writes), int64(0))
	require.GreaterOrEqual(t, cache.Len(), int64(0))
	require.LessOrEqual(t, cache.Len(), int64(10_000))
}

// TestEvictionScenario pins the exact LRU behavior on a three-entry
// store: touching two entries leaves the third as the victim, and the
// eviction metrics account for it.
func TestEvictionScenario(t *testing.T) {
	cache, err := querycache.New(testContext(t), help.EvictionCfg(3), help.Logger())
	require.NoError(t, err)
	defer func() { require.NoError(t, cache.Close()) }()

	require.True(t, cache.Set("a", "a", nil))
	require.True(t, cache.Set("b", "b", nil))
	require.True(t, cache.Set("c", "c", nil))

	_, ok := cache.Get("a")
	require.True(t, ok)
	_, ok = cache.Get("c")
	require.True(t, ok)

	require.True(t, cache.Set("d", "d", nil))

	_, ok = cache.Get("b")
	require.False(t, ok)
	for _, key := range []string{"a", "c", "d"} {
		_, ok = cache.Get(key)
		require.True(t, ok, "expected %q to survive", key)
	}

	m := cache.Metrics()
	require.Equal(t, int64(1), m.Evictions)
	require.Greater(t, m.EvictedBytes, int64(0))
	require.Equal(t, int64(3), m.Entries)
}

// TestStaleWhileRevalidateScenario pins the stale window contract: a
// read inside the grace window serves the previous value and triggers
// exactly one background refresh.
func TestStaleWhileRevalidateScenario(t *testing.T) {
	var fetches int64
	cache, err := querycache.New(
		testContext(t),
		help.StalenessCfg(100*time.Millisecond, 10*time.Second),
		help.Logger(),
		querycache.WithFetcher(func(ctx context.Context, key, dataType string) (any, error) {
			atomic.AddInt64(&fetches, 1)
			return "v2", nil
		}),
	)
	require.NoError(t, err)
	defer func() { require.NoError(t, cache.Close()) }()

	require.True(t, cache.Set("report:123", "v1", &querycache.Options{DataType: "report"}))
	time.Sleep(150 * time.Millisecond)

	v, ok := cache.Get("report:123")
	require.True(t, ok)
	require.Equal(t, "v1", v)

	require.Eventually(t, func() bool {
		v, ok := cache.Get("report:123")
		return ok && v == "v2"
	}, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, int64(1), atomic.LoadInt64(&fetches))
	require.Equal(t, int64(1), cache.Metrics().Refreshes)
}

// TestDataTypeTTLOverride checks the strategy table drives expiry per
// data type.
func TestDataTypeTTLOverride(t *testing.T) {
	cfg := help.Cfg()
	cfg.Store.IsTelemetryLogsEnabled = false
	cfg.Store.DefaultTTL = time.Hour
	cfg.TTLPolicy.Overrides["realtime"] = 40 * time.Millisecond

	cache, err := querycache.New(testContext(t), cfg, help.Logger())
	require.NoError(t, err)
	defer func() { require.NoError(t, cache.Close()) }()

	require.True(t, cache.Set("rt", 1, &querycache.Options{DataType: "realtime"}))
	require.True(t, cache.Set("rep", 2, &querycache.Options{DataType: "report"}))
	time.Sleep(80 * time.Millisecond)

	_, ok := cache.Get("rt")
	require.False(t, ok)
	_, ok = cache.Get("rep")
	require.True(t, ok)
}

// testContext mirrors testing.T.Context (Go 1.24+): a context canceled
// when the test's cleanup functions run.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
