package poll

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/perkloop/perkloop-go/api"
)

// ActiveQRClient fetches the seller's active code. *api.Client implements
// it.
type ActiveQRClient interface {
	GetActiveQR(ctx context.Context) (*api.QRCode, error)
}

// QRAutoLoader keeps a seller's active QR code fresh: it fetches on start,
// on a fixed interval, and on demand via Reload. Having no active code is a
// valid nil snapshot, not an error.
type QRAutoLoader struct {
	interval time.Duration

	mu  sync.RWMutex
	cur *api.QRCode
	err error

	reload   chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// StartQRAutoLoader begins auto-loading at the given interval. onUpdate, if
// non-nil, is called after every successful fetch (with nil when no code is
// active). A non-positive interval falls back to one second.
func StartQRAutoLoader(ctx context.Context, c ActiveQRClient, interval time.Duration, onUpdate func(*api.QRCode), log zerolog.Logger) *QRAutoLoader {
	if interval <= 0 {
		interval = fallbackInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	l := &QRAutoLoader{
		interval: interval,
		reload:   make(chan struct{}, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	fetch := func() {
		qr, err := c.GetActiveQR(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("active QR fetch failed")
			}
			l.mu.Lock()
			l.err = err
			l.mu.Unlock()
			return
		}
		l.mu.Lock()
		l.cur = qr
		l.err = nil
		l.mu.Unlock()
		if onUpdate != nil {
			onUpdate(qr)
		}
	}

	go func() {
		defer close(l.done)
		fetch()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				fetch()
			case <-l.reload:
				fetch()
			}
		}
	}()
	return l
}

// Reload requests an immediate fetch in addition to the interval schedule.
// Coalesced if one is already queued.
func (l *QRAutoLoader) Reload() {
	select {
	case l.reload <- struct{}{}:
	default:
	}
}

// Snapshot returns the last fetched code (nil when none is active) and the
// error of the last attempt, if it failed.
func (l *QRAutoLoader) Snapshot() (*api.QRCode, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur, l.err
}

// Stop halts the loader and waits for the loop to exit. Idempotent.
func (l *QRAutoLoader) Stop() {
	l.stopOnce.Do(l.cancel)
	<-l.done
}
