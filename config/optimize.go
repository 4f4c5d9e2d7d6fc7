package config

import "time"

// OptimizeCfg schedules the periodic maintenance pass: expired-entry
// sweep, cold-key removal and TTL adaptation. Optimize() can always be
// called manually; this section only adds the timer.
type OptimizeCfg struct {
	// Interval between maintenance passes. Defaults to 1m.
	Interval time.Duration `yaml:"interval"`
}

func (cfg *OptimizeCfg) Enabled() bool {
	return cfg != nil
}
