package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

// TestLoadConfig parses a minimal document and fills the defaults.
func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
store:
  max_entries: 500
  default_ttl: 1m
ttl_policy:
  adaptive: true
`))
	require.NoError(t, err)
	require.Equal(t, int64(500), cfg.Store.MaxEntries)
	require.Equal(t, time.Minute, cfg.Store.DefaultTTL)
	require.Equal(t, defaultGrowthFactor, cfg.TTLPolicy.GrowthFactor)
	require.Equal(t, int64(50), cfg.Store.EvictionBatch)
}

// TestLoadConfig_EmptyDocument rejects a file that unmarshals to nothing
// instead of panicking on the nil config.
func TestLoadConfig_EmptyDocument(t *testing.T) {
	for name, body := range map[string]string{
		"empty":        "",
		"only comment": "# no content\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

// TestLoadConfig_InvalidValues surfaces validation failures.
func TestLoadConfig_InvalidValues(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
store:
  max_entries: 0
`))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

// TestLoadConfig_MissingFile fails on the stat, not later.
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
