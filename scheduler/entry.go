package scheduler

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// HandleID identifies a scheduled entry, returned from every Schedule* call
// and accepted by Cancel. Built on uuid the same way actor.ActorPath tags its
// UID (see DESIGN.md).
type HandleID string

func newHandleID() HandleID { return HandleID(uuid.NewString()) }

// Mode selects how an entry re-arms itself after firing.
type Mode int

const (
	// OneShot fires exactly once and then completes.
	OneShot Mode = iota
	// FixedRate re-arms at deadline + period regardless of how long the
	// runnable took; if that deadline has already passed, it fires once more
	// on the next tick or resumes cadence, per Wheel.ScheduleFixedRate.
	FixedRate
	// FixedDelay re-arms at (fire-time) + period: the period is measured
	// from when the previous run actually completed, so it never bursts.
	FixedDelay
)

func (m Mode) String() string {
	switch m {
	case OneShot:
		return "one_shot"
	case FixedRate:
		return "fixed_rate"
	case FixedDelay:
		return "fixed_delay"
	default:
		return "unknown"
	}
}

// EntryState is the CancellableEntry lifecycle: Pending -> Scheduled ->
// Executing -> {Scheduled (periodic re-arm) | Completed | Cancelled}.
type EntryState int32

const (
	Pending EntryState = iota
	Scheduled
	Executing
	Completed
	Cancelled
)

func (s EntryState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Scheduled:
		return "scheduled"
	case Executing:
		return "executing"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Entry is a single scheduled unit of work sitting in a wheel slot or the
// overflow pool. Its state transitions are driven exclusively by the owning
// Wheel under its lock; Cancel is the one method safe to call concurrently
// from any goroutine.
type Entry struct {
	ID             HandleID
	Mode           Mode
	DeadlineTick   int64
	PeriodTicks    int64
	BacklogLimit   int
	BurstThreshold int
	Runnable       func()

	state           atomic.Int32
	cancelRequested atomic.Bool
	seq             uint64
}

func newEntry(mode Mode, deadline, period int64, backlogLimit, burstThreshold int, runnable func()) *Entry {
	e := &Entry{
		ID:             newHandleID(),
		Mode:           mode,
		DeadlineTick:   deadline,
		PeriodTicks:    period,
		BacklogLimit:   backlogLimit,
		BurstThreshold: burstThreshold,
		Runnable:       runnable,
	}
	e.state.Store(int32(Pending))
	return e
}

// State returns the entry's current lifecycle state.
func (e *Entry) State() EntryState { return EntryState(e.state.Load()) }

func (e *Entry) setState(s EntryState) { e.state.Store(int32(s)) }

func (e *Entry) tryTransition(from, to EntryState) bool {
	return e.state.CompareAndSwap(int32(from), int32(to))
}

// Cancel requests cancellation. If the entry is Pending or Scheduled it
// transitions directly to Cancelled. If it is currently Executing (its
// runnable is running on the wheel's firing goroutine right now), it is
// marked to stop after the current run instead of being torn out from under
// the caller, matching the "mark to stop after current run" rule for
// periodic entries caught mid-fire.
func (e *Entry) Cancel() bool {
	if e.tryTransition(Pending, Cancelled) {
		return true
	}
	if e.tryTransition(Scheduled, Cancelled) {
		return true
	}
	if e.State() == Executing {
		e.cancelRequested.Store(true)
		return true
	}
	return false
}

// IsCancelled reports whether the entry has reached the terminal Cancelled
// state (or has a cancellation pending against an in-flight execution).
func (e *Entry) IsCancelled() bool {
	return e.State() == Cancelled || e.cancelRequested.Load()
}
