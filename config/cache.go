package config

// Cache groups configuration of all cache subsystems.
// Required sections are plain structs; optional subsystems are pointers
// and are disabled when left nil.
type Cache struct {
	// Store configures the bounded entry store: capacity, default TTL
	// and eviction behavior. Always required.
	Store StoreCfg `yaml:"store"`

	// Compression configures conditional payload compression.
	// If nil, values are always stored in their raw serialized form.
	Compression *CompressionCfg `yaml:"compression"`

	// TTLPolicy configures per-data-type TTL overrides and the adaptive
	// TTL growth applied by the optimizer. If nil, every entry uses
	// Store.DefaultTTL and TTLs are never adjusted at runtime.
	TTLPolicy *TTLPolicyCfg `yaml:"ttl_policy"`

	// Staleness configures stale-while-revalidate behavior.
	// If nil, entries past their TTL are treated as expired immediately
	// and no background refresh is performed.
	Staleness *StalenessCfg `yaml:"staleness"`

	// Analytics configures per-key access tracking used for hot/cold
	// classification and TTL adaptation. If nil, only the aggregate
	// hit/miss counters are maintained.
	Analytics *AnalyticsCfg `yaml:"analytics"`

	// Optimize configures the periodic maintenance pass.
	// If nil, maintenance only runs when Optimize() is called explicitly.
	Optimize *OptimizeCfg `yaml:"optimize"`

	// Persistence configures best-effort snapshots of the entry set.
	// If nil, the cache is purely in-memory.
	Persistence *PersistenceCfg `yaml:"persistence"`
}
