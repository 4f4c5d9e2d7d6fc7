package refresh

// NoOpRefresher is used when stale-while-revalidate is disabled or no
// fetcher was provided. It performs no refreshes and reports zero
// metrics.
type NoOpRefresher struct{}

// RefreshMetrics always returns zero values.
func (NoOpRefresher) RefreshMetrics() (refreshed, failed, scans, hits, misses int64) {
	return 0, 0, 0, 0, 0
}

// Close does nothing and returns nil.
func (NoOpRefresher) Close() error {
	return nil
}
