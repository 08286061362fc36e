package actor

import (
	"context"
	"sync/atomic"

	"github.com/lguibr/bollywood/message"
	"github.com/lguibr/bollywood/queue"
	"github.com/lguibr/bollywood/waitqueue"
)

// Mailbox schedule-state bits (spec.md §4.4's "atomic word"). running is the
// mutual-exclusion bit: at most one dispatcher turn drains a given mailbox
// at a time. needsReschedule lets a late enqueue, arriving while a turn is
// already draining, force one more pass instead of being missed.
const (
	stateRunning = uint32(1) << iota
	stateSuspended
	stateBackpressureActive
	stateNeedsReschedule
)

// EnqueueOutcomeKind distinguishes an immediately-queued send from one that
// had to register a backpressure future.
type EnqueueOutcomeKind int

const (
	Enqueued EnqueueOutcomeKind = iota
	Pending
)

// EnqueueOutcome is returned by EnqueueUser; Future is populated only when
// Kind is Pending.
type EnqueueOutcome struct {
	Kind   EnqueueOutcomeKind
	Future *waitqueue.WaitShared[struct{}]
}

// MailboxConfig mirrors spec.md §6's MailboxConfig: a bounded-or-unbounded
// user queue policy, a throughput limit per dispatcher turn, an optional
// utilization warning threshold, and the fraction of user capacity set
// aside for the system queue.
type MailboxConfig struct {
	Bounded          bool
	Capacity         int
	Overflow         queue.OverflowPolicy
	ThroughputLimit  int
	WarningThreshold *int
	SystemQueueRatio float64
}

// DefaultMailboxConfig is unbounded, drains up to 30 messages per turn, and
// reserves a 4:1 user:system queue ratio — matching the teacher's default
// `MailboxConfig{Size: ...}` pattern of a generous, not-tuned-per-actor
// default that callers override per hot-path actor.
func DefaultMailboxConfig() MailboxConfig {
	return MailboxConfig{
		ThroughputLimit:  30,
		SystemQueueRatio: 0.25,
	}
}

// Mailbox pairs a user queue and a higher-priority system queue with the
// schedule-state word that makes "exactly one dispatcher drains this
// mailbox at a time" (spec.md §3 invariant) an atomic guarantee rather than
// a convention.
type Mailbox struct {
	pid        Pid
	config     MailboxConfig
	user       *queue.Ring[message.AnyOwnedMessage]
	system     *queue.Ring[message.AnyOwnedMessage]
	state      atomic.Uint32
	events     *EventStream
	dispatcher *Dispatcher
}

// NewMailbox constructs a mailbox for pid, publishing metrics/pressure
// events (when non-nil) to events.
func NewMailbox(pid Pid, config MailboxConfig, events *EventStream) *Mailbox {
	userCapacity := 0
	if config.Bounded {
		userCapacity = config.Capacity
	}
	systemCapacity := 0
	if userCapacity > 0 {
		ratio := config.SystemQueueRatio
		if ratio <= 0 {
			ratio = 0.25
		}
		systemCapacity = int(float64(userCapacity) * ratio)
		if systemCapacity < 1 {
			systemCapacity = 1
		}
	}
	return &Mailbox{
		pid:    pid,
		config: config,
		user:   queue.NewRing[message.AnyOwnedMessage](userCapacity, config.Overflow),
		system: queue.NewRing[message.AnyOwnedMessage](systemCapacity, queue.Grow),
		events: events,
	}
}

// EnqueueUser offers msg to the user queue. Under a blocking bounded policy
// at capacity this returns Pending with a future the caller may Await: msg
// is enqueued as soon as space frees, and the future completes after that
// (or fails if the queue closes or the freed slot is taken first); every
// other policy (Grow/DropOldest/DropNewest) or an unbounded queue always
// returns Enqueued.
func (m *Mailbox) EnqueueUser(msg message.AnyOwnedMessage) (EnqueueOutcome, error) {
	_, err := m.user.Offer(msg)
	if err == nil {
		m.publishMetrics()
		return EnqueueOutcome{Kind: Enqueued}, nil
	}
	qerr, ok := err.(*queue.Error[message.AnyOwnedMessage])
	if !ok {
		return EnqueueOutcome{}, err
	}
	switch qerr.Kind {
	case queue.KindFull:
		space, ferr := m.user.OfferFuture()
		if ferr != nil {
			return EnqueueOutcome{}, &SendError{Kind: SendClosed, Message: msg}
		}
		done := waitqueue.New[struct{}]()
		future, _ := done.Register()
		go func() {
			_, err := space.Await(context.Background())
			if err == nil {
				_, err = m.user.Offer(msg)
			}
			if err != nil {
				done.NotifyErrorAll(err)
				return
			}
			m.ScheduleDispatch()
			done.NotifySuccess(struct{}{})
		}()
		return EnqueueOutcome{Kind: Pending, Future: future}, nil
	case queue.KindClosed:
		return EnqueueOutcome{}, &SendError{Kind: SendClosed, Message: msg}
	default:
		return EnqueueOutcome{}, &SendError{Kind: SendInvalidRecipient, Message: msg}
	}
}

// EnqueueSystem best-effort enqueues msg onto the reserved system queue.
// Per spec.md §4.4, system enqueues never return Pending: the system queue
// always grows rather than blocking a supervisor directive or a Terminated
// notification behind user backpressure.
func (m *Mailbox) EnqueueSystem(msg message.AnyOwnedMessage) error {
	_, err := m.system.Offer(msg)
	if err != nil {
		if qerr, ok := err.(*queue.Error[message.AnyOwnedMessage]); ok && qerr.Kind == queue.KindClosed {
			return &SendError{Kind: SendClosed, Message: msg}
		}
		return err
	}
	m.publishMetrics()
	return nil
}

// PollSystem dequeues the oldest system message, if any.
func (m *Mailbox) PollSystem() (message.AnyOwnedMessage, bool) {
	msg, err := m.system.Poll()
	return msg, err == nil
}

// PollUser dequeues the oldest user message, if any and the mailbox isn't
// suspended — suspension blocks user delivery but never system delivery.
func (m *Mailbox) PollUser() (message.AnyOwnedMessage, bool) {
	if m.IsSuspended() {
		var zero message.AnyOwnedMessage
		return zero, false
	}
	msg, err := m.user.Poll()
	return msg, err == nil
}

// SystemLen and UserLen report queue depth for dispatcher scheduling hints
// and MailboxMetricsEvent.
func (m *Mailbox) SystemLen() int { return m.system.Len() }
func (m *Mailbox) UserLen() int   { return m.user.Len() }

// ThroughputLimit returns the configured per-turn drain quota.
func (m *Mailbox) ThroughputLimit() int { return m.config.ThroughputLimit }

// BindDispatcher attaches the dispatcher that owns this mailbox. spawnAt
// constructs the mailbox first (newActorCell needs it to build the cell's
// own ActorRef) and the dispatcher a moment later, so this wires the two
// together once the dispatcher exists. Only spawnAt calls it, before the
// ref is ever handed out, so no synchronization is needed.
func (m *Mailbox) BindDispatcher(d *Dispatcher) { m.dispatcher = d }

// ScheduleDispatch requests the idle->running transition on the bound
// dispatcher. This is what lets ActorRef.TellAny wake an idle actor instead
// of just enqueuing into a mailbox nothing will ever drain.
func (m *Mailbox) ScheduleDispatch() {
	if m.dispatcher != nil {
		m.dispatcher.Schedule()
	}
}

// RequestSchedule attempts the idle→running transition. It returns true iff
// the caller performed that transition and must now drain; a re-entrant
// call while already running instead raises the needs-reschedule bit and
// returns false.
func (m *Mailbox) RequestSchedule() bool {
	for {
		old := m.state.Load()
		if old&stateRunning != 0 {
			updated := old | stateNeedsReschedule
			if updated == old {
				return false
			}
			if m.state.CompareAndSwap(old, updated) {
				return false
			}
			continue
		}
		updated := (old | stateRunning) &^ stateNeedsReschedule
		if m.state.CompareAndSwap(old, updated) {
			return true
		}
	}
}

// SetIdle attempts the running→idle transition. If needs-reschedule was
// raised in the interim it clears the bit and stays running, returning
// false so the dispatcher spins back into another drain pass instead of
// dropping the late work.
func (m *Mailbox) SetIdle() bool {
	for {
		old := m.state.Load()
		if old&stateNeedsReschedule != 0 {
			updated := old &^ stateNeedsReschedule
			if m.state.CompareAndSwap(old, updated) {
				return false
			}
			continue
		}
		updated := old &^ stateRunning
		if m.state.CompareAndSwap(old, updated) {
			return true
		}
	}
}

// Suspend blocks user-message delivery (PollUser) without affecting system
// delivery.
func (m *Mailbox) Suspend() { m.setBit(stateSuspended) }

// Resume clears suspension.
func (m *Mailbox) Resume() { m.clearBit(stateSuspended) }

// IsSuspended reports whether user delivery is currently blocked.
func (m *Mailbox) IsSuspended() bool { return m.state.Load()&stateSuspended != 0 }

// Close closes both queues, failing pending offer/poll futures with
// Disconnected and rejecting further enqueues with Closed.
func (m *Mailbox) Close() {
	m.user.Close()
	m.system.Close()
}

func (m *Mailbox) setBit(bit uint32) {
	for {
		old := m.state.Load()
		if m.state.CompareAndSwap(old, old|bit) {
			return
		}
	}
}

func (m *Mailbox) clearBit(bit uint32) {
	for {
		old := m.state.Load()
		if m.state.CompareAndSwap(old, old&^bit) {
			return
		}
	}
}

func (m *Mailbox) publishMetrics() {
	if m.events == nil {
		return
	}
	m.events.Publish(MailboxMetricsEvent{
		Pid:       m.pid,
		UserLen:   m.user.Len(),
		SystemLen: m.system.Len(),
	})
	threshold := m.config.WarningThreshold
	if threshold != nil && m.config.Bounded && m.config.Capacity > 0 && m.user.Len() >= *threshold {
		m.events.Publish(MailboxPressureEvent{
			Pid:       m.pid,
			UserLen:   m.user.Len(),
			Capacity:  m.config.Capacity,
			Threshold: *threshold,
		})
	}
}
