package querycache

import "github.com/cyx-darren/go-query-cache/model"

// Public aliases so callers only import the root package.
type (
	Options  = model.Options
	Priority = model.Priority
	Fetcher  = model.Fetcher
	Metrics  = model.Metrics
	Health   = model.Health
)

const (
	PriorityNormal = model.PriorityNormal
	PriorityHigh   = model.PriorityHigh
)

const (
	Healthy  = model.Healthy
	Warning  = model.Warning
	Critical = model.Critical
)

type settings struct {
	fetcher Fetcher
}

// Option customizes construction.
type Option func(*settings)

// WithFetcher wires the revalidation source for stale entries. Without
// it, stale-while-revalidate degrades to serving stale values until
// their grace window closes.
func WithFetcher(f Fetcher) Option {
	return func(s *settings) { s.fetcher = f }
}
