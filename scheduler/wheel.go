// Package scheduler implements a hashed hierarchical timing wheel: the
// engine behind one-shot delays and periodic (fixed-rate / fixed-delay)
// entries, exposed through Scheduler.ScheduleOnce, ScheduleFixedRate,
// ScheduleFixedDelay and Delay.
package scheduler

import (
	"sync"

	"github.com/lguibr/bollywood/queue"
)

// DefaultLevelSizes is the slot-count-per-level configuration a Wheel uses
// when none is given: four levels of 64 slots each, giving exact (1-tick)
// resolution for roughly the first minute of ticks at a 1-tick-per-second
// driver and degrading to coarser buckets beyond that before falling back to
// the overflow pool.
var DefaultLevelSizes = []int{64, 64, 64, 64}

type wheelLevel struct {
	slots     [][]*Entry
	slotCount int
	index     int
}

func newWheelLevel(slotCount int) *wheelLevel {
	return &wheelLevel{slots: make([][]*Entry, slotCount), slotCount: slotCount}
}

// Wheel is a hashed hierarchical timing wheel. Entries whose deadline falls
// within the wheel's total representable range are bucketed into the
// finest level whose range covers them; as ticks advance and that
// level's slot becomes current, its entries cascade down into
// finer-grained levels until they land in level 0 and fire exactly on tick.
// Entries further out than the wheel's total range sit in an overflow pool
// (a queue.Priority ordered by deadline) and are promoted into the wheel
// once they come within range.
//
// Not safe for concurrent Advance calls from multiple goroutines; Cancel and
// Schedule* are safe to call from any goroutine.
type Wheel struct {
	mu          sync.Mutex
	levels      []*wheelLevel
	span        []int64 // ticks per slot, per level
	rangeOf     []int64 // total ticks covered by levels[0..i] slot granularity
	currentTick int64
	overflow    *queue.Priority[*Entry]
	handles     map[HandleID]*Entry
	diagnostics *Diagnostics
}

// NewWheel constructs a Wheel with the given per-level slot counts (from
// finest to coarsest). A nil or empty slice uses DefaultLevelSizes.
func NewWheel(levelSizes []int) *Wheel {
	if len(levelSizes) == 0 {
		levelSizes = DefaultLevelSizes
	}
	w := &Wheel{
		overflow:    queue.NewPriority[*Entry](),
		handles:     make(map[HandleID]*Entry),
		diagnostics: NewDiagnostics(512),
	}
	span := int64(1)
	for _, size := range levelSizes {
		w.levels = append(w.levels, newWheelLevel(size))
		w.span = append(w.span, span)
		w.rangeOf = append(w.rangeOf, span*int64(size))
		span *= int64(size)
	}
	return w
}

// Diagnostics returns the wheel's diagnostic ring buffer.
func (w *Wheel) Diagnostics() *Diagnostics { return w.diagnostics }

// CurrentTick returns the wheel's current tick counter.
func (w *Wheel) CurrentTick() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentTick
}

// ScheduleOnce arranges for runnable to fire once, ticksFromNow ticks from
// now (ticksFromNow is relative; 0 or negative fires on the very next
// Advance).
func (w *Wheel) ScheduleOnce(ticksFromNow int64, runnable func()) (HandleID, error) {
	return w.schedule(OneShot, ticksFromNow, 0, 0, 0, runnable)
}

// ScheduleFixedRate arranges for runnable to fire every periodTicks ticks,
// first firing ticksFromNow ticks out. backlogLimit bounds how many periods
// the entry may fall behind before it is cancelled and a BacklogExceeded
// diagnostic is recorded. A late entry with at most burstThreshold missed
// periods fires once more on the next tick, and its cadence then continues
// from that tick; with more missed periods it resumes one period after the
// current tick and a CaughtUp diagnostic is recorded. Missed runs are not
// replayed individually in either case.
func (w *Wheel) ScheduleFixedRate(ticksFromNow, periodTicks int64, backlogLimit, burstThreshold int, runnable func()) (HandleID, error) {
	if periodTicks <= 0 {
		return "", invalidDurationErr("period must be positive")
	}
	return w.schedule(FixedRate, ticksFromNow, periodTicks, backlogLimit, burstThreshold, runnable)
}

// ScheduleFixedDelay arranges for runnable to fire periodTicks ticks after
// each run completes (measured from completion, so it never bursts).
func (w *Wheel) ScheduleFixedDelay(ticksFromNow, periodTicks int64, runnable func()) (HandleID, error) {
	if periodTicks <= 0 {
		return "", invalidDurationErr("period must be positive")
	}
	return w.schedule(FixedDelay, ticksFromNow, periodTicks, 0, 0, runnable)
}

func (w *Wheel) schedule(mode Mode, ticksFromNow, period int64, backlogLimit, burstThreshold int, runnable func()) (HandleID, error) {
	// A schedule call happens outside Advance's per-tick loop, so there is
	// no "fire immediately" path here the way there is for a cascade or
	// overflow promotion landing exactly on the current tick: clamp to at
	// least 1 so the entry always waits for the next Advance, per
	// ScheduleOnce's documented "0 or negative fires on the very next
	// Advance" behavior.
	if ticksFromNow < 1 {
		ticksFromNow = 1
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	deadline := w.currentTick + ticksFromNow
	entry := newEntry(mode, deadline, period, backlogLimit, burstThreshold, runnable)
	entry.setState(Scheduled)
	w.handles[entry.ID] = entry
	w.placeLocked(entry)
	return entry.ID, nil
}

// Cancel cancels a previously scheduled entry. Returns false if the handle
// is unknown (already fired as a one-shot, or never issued by this wheel).
func (w *Wheel) Cancel(id HandleID) bool {
	w.mu.Lock()
	entry, ok := w.handles[id]
	w.mu.Unlock()
	if !ok {
		return false
	}
	return entry.Cancel()
}

// placeLocked buckets entry into the finest level whose range covers its
// remaining ticks, or the overflow pool if it's further out than the
// wheel's total range. If entry's deadline has already arrived (remaining
// <= 0 — possible when a cascade or overflow promotion re-evaluates an entry
// exactly on the tick it's due), placeLocked does not bucket it at all:
// placing it into level 0's current slot would strand it there until the
// next full lap, since that slot was already serviced this tick. Instead it
// returns the entry so the caller fires it immediately. Must be called with
// w.mu held.
func (w *Wheel) placeLocked(entry *Entry) (dueNow *Entry) {
	remaining := entry.DeadlineTick - w.currentTick
	if remaining <= 0 {
		return entry
	}
	for i, lvl := range w.levels {
		if remaining < w.rangeOf[i] {
			// Level 0 services slot t%size on tick t; a coarser level i
			// services slot (k-1)%size on tick k*span[i], so the slot comes
			// from the absolute deadline, not from the level's current index.
			slot := entry.DeadlineTick
			if i > 0 {
				slot = entry.DeadlineTick/w.span[i] - 1
			}
			idx := int(slot % int64(lvl.slotCount))
			lvl.slots[idx] = append(lvl.slots[idx], entry)
			return nil
		}
	}
	w.overflow.Push(entry, entry.DeadlineTick)
	return nil
}

// Advance moves the wheel forward by n ticks (n must be >= 1) and returns
// every entry that is due to fire, in no particular cross-tick order within
// the batch. Each returned entry's state has already been set to Executing;
// the caller is expected to run its Runnable (skipping it if
// entry.IsCancelled) and then call CompleteFiring to let the wheel re-arm or
// retire it.
func (w *Wheel) Advance(n int64) []*Entry {
	if n <= 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	var fired []*Entry
	for i := int64(0); i < n; i++ {
		w.currentTick++
		lvl0 := w.levels[0]
		lvl0.index = (lvl0.index + 1) % lvl0.slotCount
		bucket := lvl0.slots[lvl0.index]
		lvl0.slots[lvl0.index] = nil
		for _, e := range bucket {
			if due := w.beginFireLocked(e); due != nil {
				fired = append(fired, due)
			}
		}

		if lvl0.index == 0 {
			fired = append(fired, w.cascadeLocked(1)...)
		}
		fired = append(fired, w.promoteOverflowLocked()...)
	}
	return fired
}

// cascadeLocked redistributes level i's current-slot entries into finer
// levels (recursing upward through wrapped levels), starting at the level
// passed in, and returns any that turned out to be due this very tick. Must
// be called with w.mu held.
func (w *Wheel) cascadeLocked(i int) []*Entry {
	if i >= len(w.levels) {
		return nil
	}
	lvl := w.levels[i]
	bucket := lvl.slots[lvl.index]
	lvl.slots[lvl.index] = nil
	var fired []*Entry
	for _, e := range bucket {
		if due := w.placeLocked(e); due != nil {
			if f := w.beginFireLocked(due); f != nil {
				fired = append(fired, f)
			}
		}
	}
	lvl.index = (lvl.index + 1) % lvl.slotCount
	if lvl.index == 0 {
		fired = append(fired, w.cascadeLocked(i+1)...)
	}
	return fired
}

// promoteOverflowLocked moves overflow entries that have come within the
// wheel's representable range back into it, firing any that are already due
// (an entry can sit in overflow with a deadline that arrives before the next
// promotion check if it was scheduled far enough out). Must be called with
// w.mu held.
func (w *Wheel) promoteOverflowLocked() []*Entry {
	topRange := w.rangeOf[len(w.rangeOf)-1]
	var fired []*Entry
	for {
		item, ok := w.overflow.Peek()
		if !ok {
			break
		}
		remaining := item.Value.DeadlineTick - w.currentTick
		if remaining >= topRange {
			break
		}
		w.overflow.Pop()
		if due := w.placeLocked(item.Value); due != nil {
			if f := w.beginFireLocked(due); f != nil {
				fired = append(fired, f)
			}
			continue
		}
		w.diagnostics.Record(DiagnosticEvent{Kind: OverflowPromoted, Handle: item.Value.ID, Tick: w.currentTick})
	}
	return fired
}

// beginFireLocked transitions e from Scheduled to Executing and returns it
// for the caller to hand off, or returns nil (and retires the handle) if e
// was already cancelled while it sat waiting in a slot or the overflow pool
// — Cancel flips an entry's state directly without being able to pull it out
// of whatever bucket holds it, so the wheel has to notice the cancellation
// here, on its way out.
func (w *Wheel) beginFireLocked(e *Entry) *Entry {
	if e.tryTransition(Scheduled, Executing) {
		return e
	}
	delete(w.handles, e.ID)
	return nil
}

// CompleteFiring is called by the executing side after running a fired
// entry's Runnable. It retires one-shot entries, re-arms periodic ones
// (applying the backlog/burst policy for FixedRate), and emits the
// corresponding Diagnostics event.
func (w *Wheel) CompleteFiring(e *Entry) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e.IsCancelled() {
		e.setState(Cancelled)
		delete(w.handles, e.ID)
		return
	}

	switch e.Mode {
	case OneShot:
		e.setState(Completed)
		delete(w.handles, e.ID)
		w.diagnostics.Record(DiagnosticEvent{Kind: Fired, Handle: e.ID, Tick: w.currentTick})
	case FixedDelay:
		w.diagnostics.Record(DiagnosticEvent{Kind: Fired, Handle: e.ID, Tick: w.currentTick})
		e.DeadlineTick = w.currentTick + e.PeriodTicks
		e.setState(Scheduled)
		w.placeLocked(e)
	case FixedRate:
		w.diagnostics.Record(DiagnosticEvent{Kind: Fired, Handle: e.ID, Tick: w.currentTick})
		w.rearmFixedRateLocked(e)
	}
}

// rearmFixedRateLocked computes the next deadline for a FixedRate entry and
// either re-arms it, collapses a catch-up burst into one, or cancels it for
// exceeding its backlog limit. Must be called with w.mu held.
func (w *Wheel) rearmFixedRateLocked(e *Entry) {
	next := e.DeadlineTick + e.PeriodTicks
	if next > w.currentTick {
		e.DeadlineTick = next
		e.setState(Scheduled)
		w.placeLocked(e)
		return
	}

	missed := (w.currentTick-next)/e.PeriodTicks + 1
	if int(missed) > e.BacklogLimit {
		e.setState(Cancelled)
		delete(w.handles, e.ID)
		w.diagnostics.Record(DiagnosticEvent{Kind: BacklogExceeded, Handle: e.ID, Tick: w.currentTick, Missed: missed})
		return
	}
	if int(missed) > e.BurstThreshold {
		next = w.currentTick + e.PeriodTicks
		w.diagnostics.Record(DiagnosticEvent{Kind: CaughtUp, Handle: e.ID, Tick: w.currentTick, Missed: missed})
	} else {
		// Small backlog: fire once more on the very next tick instead of
		// waiting a full period; the following deadline is then computed
		// from that tick, so the remaining missed runs are not replayed.
		next = w.currentTick + 1
	}
	e.DeadlineTick = next
	e.setState(Scheduled)
	w.placeLocked(e)
}
