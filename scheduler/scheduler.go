package scheduler

import "time"

// Scheduler pairs a Wheel with a TickDriver: the driver advances time (by
// wall clock or by explicit test control), and the Scheduler runs each fired
// entry's Runnable and feeds the result back into the wheel for re-arming.
type Scheduler struct {
	wheel  *Wheel
	driver TickDriver
	feed   *TickFeed
}

// New constructs a Scheduler over wheel, driven by driver. Pass nil for
// wheel to get NewWheel(nil); driver is required.
func New(wheel *Wheel, driver TickDriver) *Scheduler {
	if wheel == nil {
		wheel = NewWheel(nil)
	}
	return &Scheduler{wheel: wheel, driver: driver, feed: NewTickFeed()}
}

// Wheel returns the underlying wheel, for callers that need CurrentTick,
// Diagnostics, or direct Cancel access.
func (s *Scheduler) Wheel() *Wheel { return s.wheel }

// TickFeed returns the scheduler's tick notification feed, for a tick-driven
// dispatcher executor to wait on.
func (s *Scheduler) TickFeed() *TickFeed { return s.feed }

// Start begins driving the wheel. Every fired entry's Runnable is invoked
// synchronously on the driver's own goroutine (the caller's callback, for
// ManualDriver; a dedicated ticking goroutine, for AutomaticDriver) — actor
// scheduling callbacks are expected to be cheap (typically just an Offer
// into a mailbox), matching the teacher's preference for doing dispatch work
// inline rather than spinning up a goroutine per fire.
func (s *Scheduler) Start() {
	s.driver.Start(func(n int64) {
		fired := s.wheel.Advance(n)
		s.feed.Publish()
		for _, e := range fired {
			if !e.IsCancelled() {
				e.Runnable()
			}
			s.wheel.CompleteFiring(e)
		}
	})
}

// Stop halts the driver. The wheel itself retains whatever entries remain
// scheduled, so a subsequent Start resumes where it left off.
func (s *Scheduler) Stop() { s.driver.Stop() }

// ticksFor converts a wall-clock duration into a tick count using the
// driver's resolution, rounding up so a requested delay is never served
// early.
func (s *Scheduler) ticksFor(d time.Duration) int64 {
	res := s.driver.Resolution()
	if res <= 0 {
		res = time.Millisecond
	}
	ticks := int64(d / res)
	if d%res != 0 {
		ticks++
	}
	if ticks < 0 {
		ticks = 0
	}
	return ticks
}

// ScheduleOnce arranges for runnable to fire once after d.
func (s *Scheduler) ScheduleOnce(d time.Duration, runnable func()) (HandleID, error) {
	if d < 0 {
		return "", invalidDurationErr("duration must be non-negative")
	}
	return s.wheel.ScheduleOnce(s.ticksFor(d), runnable)
}

// ScheduleFixedRate arranges for runnable to fire every period, first firing
// after initialDelay. backlogLimit/burstThreshold govern catch-up behavior
// if ticks fall behind (see Wheel.ScheduleFixedRate).
func (s *Scheduler) ScheduleFixedRate(initialDelay, period time.Duration, backlogLimit, burstThreshold int, runnable func()) (HandleID, error) {
	if period <= 0 {
		return "", invalidDurationErr("period must be positive")
	}
	return s.wheel.ScheduleFixedRate(s.ticksFor(initialDelay), s.ticksFor(period), backlogLimit, burstThreshold, runnable)
}

// ScheduleFixedDelay arranges for runnable to fire period after each run
// completes, first firing after initialDelay.
func (s *Scheduler) ScheduleFixedDelay(initialDelay, period time.Duration, runnable func()) (HandleID, error) {
	if period <= 0 {
		return "", invalidDurationErr("period must be positive")
	}
	return s.wheel.ScheduleFixedDelay(s.ticksFor(initialDelay), s.ticksFor(period), runnable)
}

// Cancel cancels a previously scheduled entry.
func (s *Scheduler) Cancel(id HandleID) bool { return s.wheel.Cancel(id) }
