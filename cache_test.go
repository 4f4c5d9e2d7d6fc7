package querycache

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cyx-darren/go-query-cache/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestNewRejectsBrokenConfig ensures construction is the one place a
// configuration mistake is fatal.
func TestNewRejectsBrokenConfig(t *testing.T) {
	_, err := New(context.Background(), nil, testLogger())
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = New(context.Background(), &config.Cache{}, testLogger())
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = New(context.Background(), &config.Cache{
		Store:       config.StoreCfg{MaxEntries: 10},
		Persistence: &config.PersistenceCfg{},
	}, testLogger())
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

// TestLifecycle walks the public surface end to end: writes, reads,
// metrics, health and shutdown.
func TestLifecycle(t *testing.T) {
	c, err := New(context.Background(), &config.Cache{
		Store: config.StoreCfg{MaxEntries: 100, DefaultTTL: time.Minute},
	}, testLogger())
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	require.True(t, c.Set("q:1", "result", &Options{DataType: "report", Tags: []string{"reports"}}))
	v, ok := c.Get("q:1")
	require.True(t, ok)
	require.Equal(t, "result", v)

	m := c.Metrics()
	require.Equal(t, int64(1), m.Entries)
	require.Equal(t, int64(1), m.Hits)
	require.Equal(t, int64(1), m.Sets)
	require.Equal(t, 1.0, m.HitRate)
	require.Greater(t, m.TotalBytes, int64(0))

	h := c.HealthStatus()
	require.Equal(t, Healthy, h.Status)

	require.Equal(t, int64(1), c.ClearByTag("reports"))
	_, ok = c.Get("q:1")
	require.False(t, ok)
}

// TestOptimizeRunsOnDemand triggers a manual maintenance pass without a
// periodic interval configured.
func TestOptimizeRunsOnDemand(t *testing.T) {
	c, err := New(context.Background(), &config.Cache{
		Store: config.StoreCfg{MaxEntries: 100, DefaultTTL: 30 * time.Millisecond},
	}, testLogger())
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	require.True(t, c.Set("a", 1, nil))
	time.Sleep(60 * time.Millisecond)

	require.NoError(t, c.Optimize())
	require.Eventually(t, func() bool {
		return c.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

// TestStaleWhileRevalidateEndToEnd serves the old value during the
// grace window and swaps in the fetched one in the background.
func TestStaleWhileRevalidateEndToEnd(t *testing.T) {
	c, err := New(context.Background(), &config.Cache{
		Store:     config.StoreCfg{MaxEntries: 100, DefaultTTL: 100 * time.Millisecond},
		Staleness: &config.StalenessCfg{GracePeriod: 10 * time.Second, RefreshRate: 1000},
	}, testLogger(), WithFetcher(func(ctx context.Context, key, dataType string) (any, error) {
		return "v2", nil
	}))
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	require.True(t, c.Set("q", "v1", nil))
	time.Sleep(150 * time.Millisecond)

	v, ok := c.Get("q")
	require.True(t, ok)
	require.Equal(t, "v1", v)

	require.Eventually(t, func() bool {
		v, ok := c.Get("q")
		return ok && v == "v2"
	}, 2*time.Second, 5*time.Millisecond)

	m := c.Metrics()
	require.Equal(t, int64(1), m.Refreshes)
	require.Equal(t, int64(0), m.RefreshFailures)
}

// TestSnapshotSurvivesRestart closes one cache and builds another over
// the same snapshot path.
func TestSnapshotSurvivesRestart(t *testing.T) {
	cfg := func(path string) *config.Cache {
		return &config.Cache{
			Store:       config.StoreCfg{MaxEntries: 100, DefaultTTL: time.Hour},
			Persistence: &config.PersistenceCfg{Path: path},
		}
	}
	path := filepath.Join(t.TempDir(), "cache.snapshot")

	c1, err := New(context.Background(), cfg(path), testLogger())
	require.NoError(t, err)
	require.True(t, c1.Set("durable", "value", nil))
	require.NoError(t, c1.Close())

	c2, err := New(context.Background(), cfg(path), testLogger())
	require.NoError(t, err)
	defer func() { require.NoError(t, c2.Close()) }()

	v, ok := c2.Get("durable")
	require.True(t, ok)
	require.Equal(t, "value", v)
}

// TestHealthDegradesUnderPressure drives utilization and hit rate into
// the warning and critical bands.
func TestHealthDegradesUnderPressure(t *testing.T) {
	c, err := New(context.Background(), &config.Cache{
		Store: config.StoreCfg{MaxEntries: 10, DefaultTTL: time.Minute},
	}, testLogger())
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	for i := 0; i < 10; i++ {
		require.True(t, c.Set(string(rune('a'+i)), i, nil))
	}
	// Full store, no lookups yet: utilization alone is critical.
	require.Equal(t, Critical, c.HealthStatus().Status)

	require.Equal(t, int64(10), c.Clear(""))
	for i := 0; i < 10; i++ {
		_, _ = c.Get("absent")
	}
	// All misses: hit rate is critical even though the store is empty.
	require.Equal(t, Critical, c.HealthStatus().Status)
}

// TestCacheImplementsQueryCache pins the public contract.
func TestCacheImplementsQueryCache(t *testing.T) {
	c, err := New(context.Background(), &config.Cache{
		Store: config.StoreCfg{MaxEntries: 10, DefaultTTL: time.Minute},
	}, testLogger())
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	var _ QueryCache = c
}
