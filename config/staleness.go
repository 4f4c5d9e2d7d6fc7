package config

import "time"

// StalenessCfg enables stale-while-revalidate: an entry past its TTL but
// within GracePeriod is still served while a background refresh is
// triggered through the injected fetcher, at most once per stale window
// per key.
type StalenessCfg struct {
	// GracePeriod is how long past its TTL an entry may still be served
	// stale. Beyond createdAt+TTL+GracePeriod the entry is expired.
	GracePeriod time.Duration `yaml:"grace_period"`

	// RefreshRate limits background refresh invocations per second.
	// Defaults to 100.
	RefreshRate int `yaml:"refresh_rate"`
}

func (cfg *StalenessCfg) Enabled() bool {
	return cfg != nil
}
