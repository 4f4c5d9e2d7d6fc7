package rate

import (
	"context"
	"testing"
	"time"
)

// TestJitter_EmitsSignals delivers ticks over both Chan and Take.
func TestJitter_EmitsSignals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jitter := NewJitter(ctx, 10)

	select {
	case <-jitter.Chan():
	case <-time.After(time.Second):
		t.Fatal("no signal on the channel")
	}

	done := make(chan struct{})
	go func() {
		jitter.Take()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Take did not return")
	}
}

// TestJitter_ClosesOnCancel shuts the signal channel once the ctx dies.
func TestJitter_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	jitter := NewJitter(ctx, 100)
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-jitter.Chan():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

// TestJitter_MinimumBurst keeps a usable burst even at limit 1.
func TestJitter_MinimumBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jitter := NewJitter(ctx, 1)

	select {
	case <-jitter.Chan():
	case <-time.After(2 * time.Second):
		t.Fatal("no signal at the lowest limit")
	}
}
