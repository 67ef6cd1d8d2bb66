// Package poll provides the interval-driven background work the client
// needs: the 45-minute token refresher, the 10-second redemption status
// watcher, and the active-QR auto-loader. Every loop is owned by an
// explicit start/stop pair so no ticker outlives its scope.
package poll

import (
	"context"
	"sync"
	"time"
)

// TickFunc runs once per interval. Returning false stops the poller from
// inside the loop (no further ticks fire).
type TickFunc func(ctx context.Context) bool

// Poller re-runs a function at a fixed interval until stopped, either by
// Stop, by cancellation of the parent context, or by the tick itself.
type Poller struct {
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// fallbackInterval replaces non-positive caller-supplied intervals, which
// would panic the ticker.
const fallbackInterval = time.Second

// Start launches the loop. When immediate is true the first tick fires
// before the first interval elapses. A non-positive interval falls back to
// one second.
func Start(ctx context.Context, interval time.Duration, immediate bool, tick TickFunc) *Poller {
	if interval <= 0 {
		interval = fallbackInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Poller{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(p.done)
		defer cancel()

		if immediate {
			if ctx.Err() != nil || !tick(ctx) {
				return
			}
		}
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if !tick(ctx) {
					return
				}
			}
		}
	}()
	return p
}

// Stop halts the loop and waits for the in-flight tick to return. Safe to
// call more than once. Must not be called from inside the tick itself;
// return false there instead.
func (p *Poller) Stop() {
	p.stopOnce.Do(p.cancel)
	<-p.done
}

// Done is closed once the loop has fully exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}
