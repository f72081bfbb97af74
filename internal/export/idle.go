package export

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Timer is a cancellable pending callback. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d and returns a handle to cancel it.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// FrameInterval is the paint cadence assumed by WaitFrame.
const FrameInterval = 16 * time.Millisecond

// WaitFrame blocks until the next frame boundary or ctx is done.
func WaitFrame(ctx context.Context) error {
	t := time.NewTimer(FrameInterval)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IdleGate tracks interactive work in progress. Captures wait on it so they
// do not compete with request handling that users are waiting on.
type IdleGate struct {
	mu      sync.Mutex
	busy    int
	waiters []chan struct{}
}

func NewIdleGate() *IdleGate {
	return &IdleGate{}
}

// Enter marks one unit of work busy. The returned func releases it and is
// safe to call more than once.
func (g *IdleGate) Enter() func() {
	g.mu.Lock()
	g.busy++
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(g.release)
	}
}

func (g *IdleGate) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.busy--
	if g.busy > 0 {
		return
	}
	g.busy = 0
	for _, ch := range g.waiters {
		close(ch)
	}
	g.waiters = nil
}

// Busy reports the number of units currently in progress.
func (g *IdleGate) Busy() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// Wait returns true as soon as no work is busy. If maxWait elapses first it
// returns false with a nil error and the caller proceeds anyway. A done ctx
// returns its error.
func (g *IdleGate) Wait(ctx context.Context, maxWait time.Duration) (bool, error) {
	g.mu.Lock()
	if g.busy == 0 {
		g.mu.Unlock()
		return true, nil
	}
	ch := make(chan struct{})
	g.waiters = append(g.waiters, ch)
	g.mu.Unlock()

	var timeout <-chan time.Time
	if maxWait > 0 {
		t := time.NewTimer(maxWait)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-ch:
		return true, nil
	case <-timeout:
		g.forget(ch)
		return false, nil
	case <-ctx.Done():
		g.forget(ch)
		return false, ctx.Err()
	}
}

// forget drops a waiter that gave up before the gate drained.
func (g *IdleGate) forget(ch chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.waiters = slices.DeleteFunc(g.waiters, func(c chan struct{}) bool { return c == ch })
}
