// Package rate paces the background refresher. A Jitter turns a
// per-second limit into a channel of evenly spaced ticks, so consumers
// can select over it next to their shutdown signal.
package rate

import (
	"context"

	"go.uber.org/ratelimit"
)

// Jitter emits at most limit signals per second, smoothed by the
// leaky-bucket limiter underneath. The channel carries a small burst
// allowance so a briefly stalled consumer does not lose its slots.
type Jitter struct {
	ch    chan struct{}
	l     ratelimit.Limiter
	limit int
}

// NewJitter starts the pacing goroutine. It exits with ctx, closing the
// signal channel behind itself.
func NewJitter(ctx context.Context, limit int) *Jitter {
	brst := int(float64(limit) * 0.1)
	if brst < 1 {
		brst = 1
	}
	jitter := &Jitter{
		limit: limit,
		ch:    make(chan struct{}, brst),
		l:     ratelimit.New(limit),
	}
	go jitter.provider(ctx)
	return jitter
}

func (l *Jitter) provider(ctx context.Context) {
	defer close(l.ch)
	for {
		l.l.Take()
		select {
		case <-ctx.Done():
			return
		case l.ch <- struct{}{}:
		}
	}
}

// Take blocks until the next signal.
func (l *Jitter) Take() {
	<-l.ch
}

// Chan exposes the signal channel for select loops.
func (l *Jitter) Chan() <-chan struct{} {
	return l.ch
}
