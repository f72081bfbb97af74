// Package export turns bursts of calendar edits into infrequent raster
// captures of the month grid.
//
// Every change signal restarts a debounce timer. When a timer fires
// uncancelled, the current state is frozen into a RenderSnapshot and handed
// to a single worker goroutine, which mounts the off-screen render target,
// waits for a frame and for the interactive side to go idle (bounded), then
// rasterizes and publishes the result. An in-flight capture is never
// aborted by new edits; a newer cycle simply publishes over it.
package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fridgecal/internal/capture"
	"fridgecal/internal/convert"
	"fridgecal/internal/grid"
	"fridgecal/internal/holiday"
	appLog "fridgecal/internal/log"
	"fridgecal/internal/model"
)

// Source provides the live calendar state to freeze.
type Source interface {
	Snapshot() model.RenderSnapshot
}

// Options configures a Scheduler. Zero fields get defaults.
type Options struct {
	Policy   Policy
	Holidays holiday.Lookuper
	Idle     *IdleGate

	// AfterFunc creates debounce timers (default time.AfterFunc).
	AfterFunc AfterFunc
	// Frame waits for the next paint opportunity (default WaitFrame).
	Frame func(context.Context) error
	Now   func() time.Time
}

// Stats are monotonically increasing counters.
type Stats struct {
	Signals   uint64 `json:"signals"`
	Cycles    uint64 `json:"cycles"`
	Published uint64 `json:"published"`
	Failed    uint64 `json:"failed"`
}

type job struct {
	snap   model.RenderSnapshot
	policy Policy
	gen    uint64
}

type Scheduler struct {
	src      Source
	raster   capture.Rasterizer
	holidays holiday.Lookuper
	idle     *IdleGate
	after    AfterFunc
	frame    func(context.Context) error
	now      func() time.Time

	mu      sync.Mutex
	policy  Policy
	timer   Timer
	gen     uint64
	pending *job
	started bool
	closed  bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	target     *targetSlot
	latest     atomic.Pointer[model.ExportedImage]
	inProgress atomic.Bool

	listenersMu sync.RWMutex
	listeners   []func(model.ExportedImage)

	signals, cycles, published, failed atomic.Uint64
}

func New(src Source, raster capture.Rasterizer, opts Options) *Scheduler {
	if opts.Policy.Debounce <= 0 {
		opts.Policy = DesktopPolicy
	}
	if opts.Idle == nil {
		opts.Idle = NewIdleGate()
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = realAfterFunc
	}
	if opts.Frame == nil {
		opts.Frame = WaitFrame
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		src:      src,
		raster:   raster,
		holidays: opts.Holidays,
		idle:     opts.Idle,
		after:    opts.AfterFunc,
		frame:    opts.Frame,
		now:      opts.Now,
		policy:   opts.Policy,
		wake:     make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
		target:   newTargetSlot(),
	}
}

// Start launches the capture worker. It is a no-op if already started.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()
	appLog.Info("export scheduler started",
		"policy", s.Policy().Name,
		"debounce", s.Policy().Debounce,
		"scale", s.Policy().Scale,
	)
}

// Close cancels the pending timer and aborts any in-flight capture; an
// aborted capture is never published. Close waits for the worker to exit.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	appLog.Info("export scheduler stopped")
}

// Idle returns the gate captures wait on.
func (s *Scheduler) Idle() *IdleGate {
	return s.idle
}

func (s *Scheduler) Policy() Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy
}

// SetPolicy changes debounce and scale for subsequent signals.
func (s *Scheduler) SetPolicy(p Policy) {
	if p.Debounce <= 0 {
		return
	}
	s.mu.Lock()
	changed := s.policy != p
	s.policy = p
	s.mu.Unlock()
	if changed {
		appLog.Info("export policy changed", "policy", p.Name, "debounce", p.Debounce, "scale", p.Scale)
	}
}

// Notify is the change signal. It cancels any pending debounce timer and
// arms a fresh one; only the state at the last uncancelled timer is ever
// captured.
func (s *Scheduler) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.signals.Add(1)
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	gen, policy := s.gen, s.policy
	s.timer = s.after(policy.Debounce, func() { s.fire(gen, policy) })
}

// fire runs when a debounce timer elapses. A timer that was cancelled but
// had already started running loses on the generation check.
func (s *Scheduler) fire(gen uint64, policy Policy) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	// The source takes its own lock; never hold s.mu while calling it.
	snap := s.src.Snapshot().Clone()

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	// Latest wins: a job still waiting behind an in-flight capture is
	// replaced, never queued.
	s.pending = &job{snap: snap, policy: policy, gen: gen}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		}

		s.mu.Lock()
		j := s.pending
		s.pending = nil
		s.mu.Unlock()
		if j == nil {
			continue
		}
		s.runCycle(j)
	}
}

func (s *Scheduler) runCycle(j *job) {
	s.inProgress.Store(true)
	defer s.inProgress.Store(false)
	s.cycles.Add(1)

	started := s.now()
	img, err := s.capture(s.ctx, j.snap, j.policy.Scale, j.policy.IdleMaxWait, false)
	if err != nil {
		s.failed.Add(1)
		if errors.Is(err, context.Canceled) && s.ctx.Err() != nil {
			appLog.Debug("export cycle abandoned on shutdown", "year", j.snap.Year, "month", j.snap.Month)
			return
		}
		appLog.Error("export capture failed", err,
			"year", j.snap.Year,
			"month", j.snap.Month,
			"events", len(j.snap.Events),
		)
		return
	}

	s.mu.Lock()
	stale := j.gen != s.gen
	s.mu.Unlock()

	s.latest.Store(&img)
	s.published.Add(1)
	appLog.Info("export published",
		"year", img.Snapshot.Year,
		"month", img.Snapshot.Month,
		"style", img.Snapshot.StyleID,
		"events", len(img.Snapshot.Events),
		"size", fmt.Sprintf("%dx%d", img.Width, img.Height),
		"bytes", len(img.PNG),
		"stale", stale,
		"elapsed", s.now().Sub(started),
	)

	s.listenersMu.RLock()
	fns := s.listeners
	s.listenersMu.RUnlock()
	for _, fn := range fns {
		fn(img)
	}
}

// capture mounts the render target for snap and rasterizes it. Unless
// immediate is set it first waits one frame and then for the idle gate,
// giving up on idleness after idleMax.
func (s *Scheduler) capture(ctx context.Context, snap model.RenderSnapshot, scale float64, idleMax time.Duration, immediate bool) (model.ExportedImage, error) {
	if s.raster == nil {
		return model.ExportedImage{}, errors.New("export: no rasterizer configured")
	}
	ratio, _ := model.RatioByID(snap.RatioID)
	opts := capture.Options{Width: ratio.Width, Height: ratio.Height, Scale: scale}

	t, err := s.target.mount(ctx, grid.Render(snap.Year, snap.Month, snap.Events, snap.StyleID, s.holidays), opts)
	if err != nil {
		return model.ExportedImage{}, fmt.Errorf("export: mount render target: %w", err)
	}
	defer t.Unmount()

	if !immediate {
		if err := s.frame(ctx); err != nil {
			return model.ExportedImage{}, err
		}
		idle, err := s.idle.Wait(ctx, idleMax)
		if err != nil {
			return model.ExportedImage{}, err
		}
		if !idle {
			appLog.Debug("idle wait exceeded; capturing anyway", "max_wait", idleMax)
		}
	}

	raw, err := s.raster.Rasterize(ctx, t.Layout, t.Options)
	if err != nil {
		return model.ExportedImage{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.ExportedImage{}, err
	}

	w, h := t.Options.PixelSize()
	data, err := convert.Fit(raw, w, h)
	if err != nil {
		return model.ExportedImage{}, err
	}
	return model.ExportedImage{
		PNG:       data,
		Width:     w,
		Height:    h,
		Scale:     scale,
		Snapshot:  snap,
		CreatedAt: s.now(),
	}, nil
}

// CaptureNow renders snap immediately, bypassing debounce and idle waits.
// It shares the single render target with scheduled cycles and does not
// publish its result.
func (s *Scheduler) CaptureNow(ctx context.Context, snap model.RenderSnapshot, scale float64) (model.ExportedImage, error) {
	if scale <= 0 {
		scale = DesktopPolicy.Scale
	}
	return s.capture(ctx, snap.Clone(), scale, 0, true)
}

// Latest returns the most recently published image.
func (s *Scheduler) Latest() (model.ExportedImage, bool) {
	p := s.latest.Load()
	if p == nil {
		return model.ExportedImage{}, false
	}
	return *p, true
}

// OnPublish registers fn to run on the worker goroutine after each publish.
func (s *Scheduler) OnPublish(fn func(model.ExportedImage)) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()
}

// InProgress reports whether a scheduled capture is running.
func (s *Scheduler) InProgress() bool {
	return s.inProgress.Load()
}

// Pending reports whether a debounce timer is armed.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Mounted reports whether the off-screen render target currently exists.
func (s *Scheduler) Mounted() bool {
	return s.target.mounted()
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		Signals:   s.signals.Load(),
		Cycles:    s.cycles.Load(),
		Published: s.published.Load(),
		Failed:    s.failed.Load(),
	}
}
