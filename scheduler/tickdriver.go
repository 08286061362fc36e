package scheduler

import (
	"sync"
	"time"
)

// TickDriver advances a Scheduler's wheel, either automatically off a
// wall-clock interval or manually under test control. Scheduler.Start wires
// whichever driver it's given to its own Advance/fire loop.
type TickDriver interface {
	// Start begins producing ticks, invoking onTick(n) each time n ticks
	// have elapsed. Start must not block.
	Start(onTick func(n int64))
	// Stop halts tick production. Safe to call even if Start was never
	// called, and idempotent.
	Stop()
	// Resolution reports the wall-clock duration one tick represents, used
	// to convert a requested time.Duration into a tick count. Manual
	// drivers typically return a nominal value since they're advanced by
	// tick count directly rather than by elapsed time.
	Resolution() time.Duration
}

// AutomaticDriver produces ticks off a time.Ticker running at a fixed
// resolution — the production driver, grounded on the same fixed-interval
// goroutine-loop pattern the teacher's engine used for its run loop.
type AutomaticDriver struct {
	resolution time.Duration

	mu      sync.Mutex
	ticker  *time.Ticker
	stopCh  chan struct{}
	running bool
}

// NewAutomaticDriver constructs a driver that fires one tick per resolution.
func NewAutomaticDriver(resolution time.Duration) *AutomaticDriver {
	if resolution <= 0 {
		resolution = time.Millisecond
	}
	return &AutomaticDriver{resolution: resolution}
}

func (d *AutomaticDriver) Resolution() time.Duration { return d.resolution }

func (d *AutomaticDriver) Start(onTick func(n int64)) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.ticker = time.NewTicker(d.resolution)
	d.stopCh = make(chan struct{})
	d.running = true
	ticker, stopCh := d.ticker, d.stopCh
	d.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				onTick(1)
			case <-stopCh:
				return
			}
		}
	}()
}

func (d *AutomaticDriver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.running = false
	d.ticker.Stop()
	close(d.stopCh)
}

// ManualDriver advances on explicit Advance calls rather than wall-clock
// time, for deterministic tests of periodic/backlog behavior that would
// otherwise depend on real sleeps.
type ManualDriver struct {
	resolution time.Duration

	mu      sync.Mutex
	onTick  func(n int64)
	running bool
}

// NewManualDriver constructs a test-controlled driver. resolution is only
// used by the Scheduler's duration-to-tick conversion (Delay and every
// Schedule* call); it has no effect on timing.
func NewManualDriver(resolution time.Duration) *ManualDriver {
	if resolution <= 0 {
		resolution = time.Millisecond
	}
	return &ManualDriver{resolution: resolution}
}

func (d *ManualDriver) Resolution() time.Duration { return d.resolution }

func (d *ManualDriver) Start(onTick func(n int64)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onTick = onTick
	d.running = true
}

func (d *ManualDriver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
}

// Advance synchronously delivers n ticks to the registered callback. It is
// a no-op if Start hasn't been called (or Stop has).
func (d *ManualDriver) Advance(n int64) {
	d.mu.Lock()
	onTick, running := d.onTick, d.running
	d.mu.Unlock()
	if running && onTick != nil {
		onTick(n)
	}
}

// TickExecutorSignal wakes a tick-consuming goroutine (e.g. a
// dispatcher.TickDrivenExecutor) without the consumer needing to poll. It
// pairs with TickFeed the way a mailbox's schedule-state word pairs with its
// run queue: Raise is cheap and idempotent when already pending, Wait parks
// until the next raise.
type TickExecutorSignal struct {
	ch chan struct{}
}

// NewTickExecutorSignal constructs a signal with room for exactly one
// pending wakeup (further raises before it's consumed are coalesced).
func NewTickExecutorSignal() *TickExecutorSignal {
	return &TickExecutorSignal{ch: make(chan struct{}, 1)}
}

// Raise wakes one waiter, or leaves the pending flag set if none is
// currently waiting.
func (s *TickExecutorSignal) Raise() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until Raise is called or done is closed.
func (s *TickExecutorSignal) Wait(done <-chan struct{}) bool {
	select {
	case <-s.ch:
		return true
	case <-done:
		return false
	}
}

// TickFeed is a bounded, drop-oldest notification channel a TickDriver
// publishes into alongside calling its onTick callback directly, so that a
// secondary consumer (a tick-driven dispatcher executor, say) can observe
// "a tick happened" without competing with the wheel's own advance path.
// Because it exists only to wake a poller rather than to carry the
// authoritative tick count, dropping under backpressure is correct: the
// consumer only needs to know more work may be ready, not how many ticks
// elapsed.
type TickFeed struct {
	signal *TickExecutorSignal
}

// NewTickFeed constructs a feed paired with its own signal.
func NewTickFeed() *TickFeed {
	return &TickFeed{signal: NewTickExecutorSignal()}
}

// Publish notifies the feed that a tick occurred.
func (f *TickFeed) Publish() { f.signal.Raise() }

// Signal returns the underlying wakeup primitive for a consumer to Wait on.
func (f *TickFeed) Signal() *TickExecutorSignal { return f.signal }
