package config

import "time"

// AnalyticsCfg configures per-key access tracking. The tracker feeds the
// hot/cold key listings and the per-data-type access counts consumed by
// the optimizer for TTL adaptation and proactive cold-key removal.
type AnalyticsCfg struct {
	// TrackedKeys bounds the per-key tracking table. Keys beyond the
	// bound are not individually tracked. Defaults to 10000.
	TrackedKeys int `yaml:"tracked_keys"`

	// HotWindow is the recency window inside which a key is eligible for
	// the hot listing. Defaults to 5m.
	HotWindow time.Duration `yaml:"hot_window"`

	// ColdAfter marks a key cold when its last access is older than this
	// and its access count is at most ColdMaxAccess. Defaults to 30m.
	ColdAfter time.Duration `yaml:"cold_after"`

	// ColdMaxAccess is the maximum access count a cold key may have.
	// Defaults to 2.
	ColdMaxAccess int64 `yaml:"cold_max_access"`
}

func (cfg *AnalyticsCfg) Enabled() bool {
	return cfg != nil
}
