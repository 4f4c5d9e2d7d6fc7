package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks a deployment mistake. Unlike every other cache
// error it is fatal: New refuses to build a cache from a broken config.
var ErrInvalidConfig = errors.New("invalid cache config")

const (
	defaultEvictionBatchFraction = 0.10
	defaultProtectionWindow      = 60 * time.Second
	defaultTelemetryInterval     = 5 * time.Second
	defaultCompressionMinGain    = 0.20
	defaultCompressionLevel      = 6
	defaultHotAccessThreshold    = 100
	defaultGrowthFactor          = 1.2
	defaultMaxTTL                = 30 * time.Minute
	defaultRefreshRate           = 100
	defaultTrackedKeys           = 10_000
	defaultHotWindow             = 5 * time.Minute
	defaultColdAfter             = 30 * time.Minute
	defaultColdMaxAccess         = 2
	defaultOptimizeInterval      = time.Minute
)

// AdjustConfig fills defaults and computes virtual fields. It is
// idempotent and must run before the config is handed to New.
func (cfg *Cache) AdjustConfig() {
	if cfg.Store.EvictionBatchFraction <= 0 {
		cfg.Store.EvictionBatchFraction = defaultEvictionBatchFraction
	}
	if cfg.Store.ProtectionWindow <= 0 {
		cfg.Store.ProtectionWindow = defaultProtectionWindow
	}
	if cfg.Store.TelemetryLogsInterval <= 0 {
		cfg.Store.TelemetryLogsInterval = defaultTelemetryInterval
	}
	cfg.Store.EvictionBatch = int64(float64(cfg.Store.MaxEntries) * cfg.Store.EvictionBatchFraction)
	if cfg.Store.EvictionBatch < 1 {
		cfg.Store.EvictionBatch = 1
	}

	if cfg.Compression.Enabled() {
		if cfg.Compression.MinGain <= 0 {
			cfg.Compression.MinGain = defaultCompressionMinGain
		}
		if cfg.Compression.Level == 0 {
			cfg.Compression.Level = defaultCompressionLevel
		}
	}

	if cfg.TTLPolicy.Enabled() {
		if cfg.TTLPolicy.HotAccessThreshold <= 0 {
			cfg.TTLPolicy.HotAccessThreshold = defaultHotAccessThreshold
		}
		if cfg.TTLPolicy.GrowthFactor <= 1 {
			cfg.TTLPolicy.GrowthFactor = defaultGrowthFactor
		}
		if cfg.TTLPolicy.MaxTTL <= 0 {
			cfg.TTLPolicy.MaxTTL = defaultMaxTTL
		}
	}

	if cfg.Staleness.Enabled() && cfg.Staleness.RefreshRate <= 0 {
		cfg.Staleness.RefreshRate = defaultRefreshRate
	}

	if cfg.Analytics.Enabled() {
		if cfg.Analytics.TrackedKeys <= 0 {
			cfg.Analytics.TrackedKeys = defaultTrackedKeys
		}
		if cfg.Analytics.HotWindow <= 0 {
			cfg.Analytics.HotWindow = defaultHotWindow
		}
		if cfg.Analytics.ColdAfter <= 0 {
			cfg.Analytics.ColdAfter = defaultColdAfter
		}
		if cfg.Analytics.ColdMaxAccess <= 0 {
			cfg.Analytics.ColdMaxAccess = defaultColdMaxAccess
		}
	}

	if cfg.Optimize.Enabled() && cfg.Optimize.Interval <= 0 {
		cfg.Optimize.Interval = defaultOptimizeInterval
	}
}

// Validate reports the first deployment mistake found. Every violation
// wraps ErrInvalidConfig.
func (cfg *Cache) Validate() error {
	if cfg.Store.MaxEntries < 1 {
		return fmt.Errorf("%w: store.max_entries must be >= 1, got %d", ErrInvalidConfig, cfg.Store.MaxEntries)
	}
	if cfg.Store.MaxBytes < 0 {
		return fmt.Errorf("%w: store.max_bytes must be >= 0, got %d", ErrInvalidConfig, cfg.Store.MaxBytes)
	}
	if cfg.Store.DefaultTTL < 0 {
		return fmt.Errorf("%w: store.default_ttl must be >= 0, got %s", ErrInvalidConfig, cfg.Store.DefaultTTL)
	}
	if cfg.Compression.Enabled() {
		if cfg.Compression.Threshold < 0 {
			return fmt.Errorf("%w: compression.threshold must be >= 0, got %d", ErrInvalidConfig, cfg.Compression.Threshold)
		}
		if cfg.Compression.MinGain >= 1 {
			return fmt.Errorf("%w: compression.min_gain must be < 1, got %v", ErrInvalidConfig, cfg.Compression.MinGain)
		}
		if cfg.Compression.Level < 1 || cfg.Compression.Level > 9 {
			return fmt.Errorf("%w: compression.level must be in [1..9], got %d", ErrInvalidConfig, cfg.Compression.Level)
		}
	}
	if cfg.TTLPolicy.Enabled() {
		for dataType, ttl := range cfg.TTLPolicy.Overrides {
			if ttl < 0 {
				return fmt.Errorf("%w: ttl_policy.overrides[%s] must be >= 0, got %s", ErrInvalidConfig, dataType, ttl)
			}
		}
	}
	if cfg.Staleness.Enabled() && cfg.Staleness.GracePeriod < 0 {
		return fmt.Errorf("%w: staleness.grace_period must be >= 0, got %s", ErrInvalidConfig, cfg.Staleness.GracePeriod)
	}
	if cfg.Persistence.Enabled() && cfg.Persistence.Path == "" {
		return fmt.Errorf("%w: persistence.path must be set", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads, unmarshals, adjusts and validates a yaml config file.
func LoadConfig(path string) (*Cache, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Cache
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	if cfg == nil {
		// An empty document unmarshals into a nil pointer.
		return nil, fmt.Errorf("%w: %s holds no config", ErrInvalidConfig, path)
	}
	cfg.AdjustConfig()

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
