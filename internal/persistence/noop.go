package persistence

import "context"

// NoOpDumper is used when persistence is not configured. The cache is
// purely in-memory; every call is a successful no-op.
type NoOpDumper struct{}

// Dump does nothing and returns nil.
func (NoOpDumper) Dump(ctx context.Context) error { return nil }

// Load does nothing and returns nil.
func (NoOpDumper) Load(ctx context.Context) error { return nil }

// Close does nothing and returns nil.
func (NoOpDumper) Close() error { return nil }
