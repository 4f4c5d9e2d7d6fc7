package ttl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cyx-darren/go-query-cache/config"
)

func tableCfg(def time.Duration, policy *config.TTLPolicyCfg) *config.Cache {
	cfg := &config.Cache{
		Store:     config.StoreCfg{MaxEntries: 100, DefaultTTL: def},
		TTLPolicy: policy,
	}
	cfg.AdjustConfig()
	return cfg
}

// TestTTLFor_OverrideAndDefault resolves overrides before the default.
func TestTTLFor_OverrideAndDefault(t *testing.T) {
	table := NewTable(tableCfg(time.Minute, &config.TTLPolicyCfg{
		Overrides: map[string]time.Duration{"realtime": 5 * time.Second},
	}))

	require.Equal(t, 5*time.Second, table.TTLFor("realtime"))
	require.Equal(t, time.Minute, table.TTLFor("report"))
	require.Equal(t, time.Minute, table.TTLFor(""))
}

// TestAdjust_GrowsHotType multiplies a hot type's TTL by the growth factor.
func TestAdjust_GrowsHotType(t *testing.T) {
	table := NewTable(tableCfg(time.Minute, &config.TTLPolicyCfg{
		Adaptive:           true,
		HotAccessThreshold: 100,
	}))

	next, changed := table.Adjust("report", 150)
	require.True(t, changed)
	require.Equal(t, time.Duration(float64(time.Minute)*1.2), next)
	require.Equal(t, next, table.TTLFor("report"))
}

// TestAdjust_ColdTypeUntouched leaves types below the threshold alone.
func TestAdjust_ColdTypeUntouched(t *testing.T) {
	table := NewTable(tableCfg(time.Minute, &config.TTLPolicyCfg{
		Adaptive:           true,
		HotAccessThreshold: 100,
	}))

	_, changed := table.Adjust("report", 100)
	require.False(t, changed)
	require.Equal(t, time.Minute, table.TTLFor("report"))
}

// TestAdjust_CapsAtMaxTTL never grows past the cap.
func TestAdjust_CapsAtMaxTTL(t *testing.T) {
	table := NewTable(tableCfg(25*time.Minute, &config.TTLPolicyCfg{
		Adaptive:           true,
		HotAccessThreshold: 10,
		MaxTTL:             30 * time.Minute,
	}))

	next, changed := table.Adjust("report", 1000)
	require.True(t, changed)
	require.Equal(t, 30*time.Minute, next)

	// Already at the cap: growth is a no-op.
	_, changed = table.Adjust("report", 1000)
	require.False(t, changed)
}

// TestAdjust_DisabledPolicy never changes the table.
func TestAdjust_DisabledPolicy(t *testing.T) {
	table := NewTable(tableCfg(time.Minute, nil))

	_, changed := table.Adjust("report", 1_000_000)
	require.False(t, changed)
	require.Empty(t, table.Snapshot())
}

// TestAdjust_ZeroTTLNeverExpires leaves non-expiring types alone.
func TestAdjust_ZeroTTLNeverExpires(t *testing.T) {
	table := NewTable(tableCfg(0, &config.TTLPolicyCfg{
		Adaptive:           true,
		HotAccessThreshold: 10,
	}))

	_, changed := table.Adjust("report", 1000)
	require.False(t, changed)
}
