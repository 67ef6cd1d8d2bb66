package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerImmediateFirstTick(t *testing.T) {
	ticked := make(chan struct{}, 1)
	p := Start(context.Background(), time.Hour, true, func(ctx context.Context) bool {
		select {
		case ticked <- struct{}{}:
		default:
		}
		return true
	})
	defer p.Stop()

	select {
	case <-ticked:
	case <-time.After(time.Second):
		t.Fatal("first tick did not fire immediately")
	}
}

func TestPollerStopsWhenTickReturnsFalse(t *testing.T) {
	var ticks atomic.Int32
	p := Start(context.Background(), time.Millisecond, false, func(ctx context.Context) bool {
		return ticks.Add(1) < 3
	})

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("poller did not self-stop")
	}
	assert.Equal(t, int32(3), ticks.Load())
}

func TestPollerStopWaitsForLoopExit(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	p := Start(context.Background(), time.Hour, true, func(ctx context.Context) bool {
		close(started)
		<-release
		finished.Store(true)
		return true
	})

	<-started
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	p.Stop()
	require.True(t, finished.Load(), "Stop returned before the in-flight tick finished")

	p.Stop() // idempotent
}

func TestPollerParentContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Start(ctx, time.Hour, false, func(ctx context.Context) bool { return true })

	cancel()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("poller outlived its parent context")
	}
}

func TestPollerNonPositiveIntervalDoesNotPanic(t *testing.T) {
	ticked := make(chan struct{}, 1)
	p := Start(context.Background(), 0, true, func(ctx context.Context) bool {
		select {
		case ticked <- struct{}{}:
		default:
		}
		return true
	})
	defer p.Stop()

	select {
	case <-ticked:
	case <-time.After(time.Second):
		t.Fatal("poller with zero interval never ticked")
	}

	p2 := Start(context.Background(), -time.Second, false, func(ctx context.Context) bool { return true })
	p2.Stop()
}

func TestPollerNoTicksAfterStop(t *testing.T) {
	var ticks atomic.Int32
	p := Start(context.Background(), 5*time.Millisecond, false, func(ctx context.Context) bool {
		ticks.Add(1)
		return true
	})
	time.Sleep(30 * time.Millisecond)
	p.Stop()

	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
}
