package export

import (
	"context"
	"sync"
	"sync/atomic"

	"fridgecal/internal/capture"
	"fridgecal/internal/grid"
)

// Target is the off-screen render target of one capture: the laid-out grid
// at the export canvas size. Only one Target exists at a time; it is
// mounted for the duration of a capture and unmounted right after, so that
// ordinary edits never pay layout cost for an invisible export tree.
type Target struct {
	Layout  grid.Layout
	Options capture.Options

	slot *targetSlot
	once sync.Once
}

// Unmount releases the slot. Calling it more than once is harmless.
func (t *Target) Unmount() {
	t.once.Do(func() {
		t.slot.current.Store(nil)
		<-t.slot.sem
	})
}

// targetSlot is a one-element semaphore guarding the single Target.
type targetSlot struct {
	sem     chan struct{}
	current atomic.Pointer[Target]
}

func newTargetSlot() *targetSlot {
	return &targetSlot{sem: make(chan struct{}, 1)}
}

// mount blocks until the previous Target has been unmounted.
func (s *targetSlot) mount(ctx context.Context, l grid.Layout, opts capture.Options) (*Target, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	t := &Target{Layout: l, Options: opts, slot: s}
	s.current.Store(t)
	return t, nil
}

func (s *targetSlot) mounted() bool {
	return s.current.Load() != nil
}
