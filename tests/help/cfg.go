package help

import (
	"time"

	"github.com/cyx-darren/go-query-cache/config"
)

func Cfg() *config.Cache {
	c := &config.Cache{
		Store: config.StoreCfg{
			MaxEntries:             10_000,
			MaxBytes:               1024 * 1024 * 64,
			DefaultTTL:             5 * time.Minute,
			IsTelemetryLogsEnabled: true,
			TelemetryLogsInterval:  5 * time.Second,
		},
		Compression: &config.CompressionCfg{
			Threshold: 1024,
		},
		TTLPolicy: &config.TTLPolicyCfg{
			Overrides: map[string]time.Duration{
				"report":   10 * time.Minute,
				"realtime": 30 * time.Second,
			},
		},
		Analytics: &config.AnalyticsCfg{},
	}
	c.AdjustConfig()
	return c
}

func EvictionCfg(maxEntries int64) *config.Cache {
	c := Cfg()
	c.Store.MaxEntries = maxEntries
	c.Store.MaxBytes = 0
	c.Store.IsTelemetryLogsEnabled = false
	c.AdjustConfig()
	return c
}

func StalenessCfg(ttl, grace time.Duration) *config.Cache {
	c := Cfg()
	c.Store.DefaultTTL = ttl
	c.Store.IsTelemetryLogsEnabled = false
	c.TTLPolicy = nil
	c.Staleness = &config.StalenessCfg{
		GracePeriod: grace,
		RefreshRate: 1000,
	}
	c.AdjustConfig()
	return c
}
