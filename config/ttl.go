package config

import "time"

// TTLPolicyCfg maps data-type labels to TTLs and controls the adaptive
// growth applied by the optimizer: data types whose observed access count
// over an optimization window exceeds HotAccessThreshold get their TTL
// multiplied by GrowthFactor, capped at MaxTTL. Cold data types are left
// untouched; only growth is adaptive, to avoid oscillation.
type TTLPolicyCfg struct {
	// Overrides maps a data-type label (e.g. "report", "realtime") to
	// its TTL, replacing Store.DefaultTTL for entries of that type.
	Overrides map[string]time.Duration `yaml:"overrides"`

	// Adaptive enables runtime TTL growth for hot data types.
	Adaptive bool `yaml:"adaptive"`

	// HotAccessThreshold is the access count per observation window above
	// which a data type is considered hot. Defaults to 100.
	HotAccessThreshold int64 `yaml:"hot_access_threshold"`

	// GrowthFactor multiplies a hot data type's TTL per adjustment.
	// Defaults to 1.2.
	GrowthFactor float64 `yaml:"growth_factor"`

	// MaxTTL caps adaptive growth. Defaults to 30m.
	MaxTTL time.Duration `yaml:"max_ttl"`
}

func (cfg *TTLPolicyCfg) Enabled() bool {
	return cfg != nil
}
