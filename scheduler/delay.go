package scheduler

import (
	"context"
	"time"

	"github.com/lguibr/bollywood/waitqueue"
)

// DelayProvider is the subset of Scheduler a caller needs to await a plain
// delay without pulling in the rest of the scheduling API.
type DelayProvider interface {
	Delay(d time.Duration) (*DelayFuture, error)
}

// DelayFuture is returned by Delay: a cancellable, awaitable handle on a
// single future point in time.
type DelayFuture struct {
	handle    HandleID
	scheduler *Scheduler
	queue     *waitqueue.WaitQueue[struct{}]
	shared    *waitqueue.WaitShared[struct{}]
}

// Delay returns a future that completes once d has elapsed. Built on top of
// ScheduleOnce rather than time.AfterFunc/time.Timer directly, so it shares
// the same wheel (and, for a ManualDriver, the same deterministic ticking)
// as every other scheduled entry in the system.
func (s *Scheduler) Delay(d time.Duration) (*DelayFuture, error) {
	if d < 0 {
		return nil, invalidDurationErr("duration must be non-negative")
	}
	q := waitqueue.New[struct{}]()
	shared, err := q.Register()
	if err != nil {
		return nil, err
	}
	handle, err := s.ScheduleOnce(d, func() {
		q.NotifySuccess(struct{}{})
	})
	if err != nil {
		shared.Cancel()
		return nil, err
	}
	return &DelayFuture{handle: handle, scheduler: s, queue: q, shared: shared}, nil
}

// Await blocks until the delay elapses or ctx is done.
func (f *DelayFuture) Await(ctx context.Context) error {
	_, err := f.shared.Await(ctx)
	return err
}

// Cancel cancels the underlying scheduled entry and releases the waiter.
// Safe to call after the delay has already fired.
func (f *DelayFuture) Cancel() {
	f.scheduler.Cancel(f.handle)
	f.shared.Cancel()
}
