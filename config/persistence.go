package config

import "time"

// PersistenceCfg configures best-effort snapshots: the entry set is
// written to Path on a timer and once more on shutdown, and loaded back
// on startup with already-expired records skipped. This is not a
// transactional log.
type PersistenceCfg struct {
	// Path is the snapshot file location. The parent directory must be
	// writable.
	Path string `yaml:"path"`

	// Interval between periodic snapshots. Zero disables the timer;
	// a snapshot is still written on shutdown.
	Interval time.Duration `yaml:"snapshot_interval"`

	// Gzip wraps the snapshot file in gzip framing.
	Gzip bool `yaml:"gzip"`
}

func (cfg *PersistenceCfg) Enabled() bool {
	return cfg != nil
}
