package actor

import (
	"log"
	"sync"
)

// EventStreamEvent is the sum type every event the runtime publishes
// implements; it carries no methods of its own (a marker interface) so any
// struct can be an event without the core needing a closed enum.
type EventStreamEvent interface {
	eventStreamEvent()
}

// LifecycleKind enumerates the phases LifecycleEvent reports.
type LifecycleKind int

const (
	LifecycleStarted LifecycleKind = iota
	LifecycleRestarted
	LifecycleStopped
	LifecycleTerminated
)

func (k LifecycleKind) String() string {
	switch k {
	case LifecycleStarted:
		return "started"
	case LifecycleRestarted:
		return "restarted"
	case LifecycleStopped:
		return "stopped"
	case LifecycleTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// LifecycleEvent reports an actor crossing pre_start/post_stop/terminated.
type LifecycleEvent struct {
	Pid  Pid
	Path *ActorPath
	Kind LifecycleKind
}

func (LifecycleEvent) eventStreamEvent() {}

// DeadLetterEvent reports a message that could not be delivered: the
// recipient had already stopped, a queue offer failed terminally, or a
// serialization failure dropped it.
type DeadLetterEvent struct {
	Recipient Pid
	Payload   any
	Reason    string
}

func (DeadLetterEvent) eventStreamEvent() {}

// LogLevel mirrors the handful of severities ActorContext.Log emits.
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
)

func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "debug"
	case LogInfo:
		return "info"
	case LogWarn:
		return "warn"
	case LogError:
		return "error"
	default:
		return "unknown"
	}
}

// LogEvent carries one ActorContext.Log call.
type LogEvent struct {
	Pid     Pid
	Level   LogLevel
	Message string
}

func (LogEvent) eventStreamEvent() {}

// MailboxMetricsEvent is published after every successful immediate enqueue
// (user or system); schedule-state transitions do not publish it.
type MailboxMetricsEvent struct {
	Pid       Pid
	UserLen   int
	SystemLen int
}

func (MailboxMetricsEvent) eventStreamEvent() {}

// MailboxPressureEvent is published when user queue utilization crosses the
// configured warning threshold.
type MailboxPressureEvent struct {
	Pid       Pid
	UserLen   int
	Capacity  int
	Threshold int
}

func (MailboxPressureEvent) eventStreamEvent() {}

// DispatcherDumpEvent is a diagnostic snapshot of a dispatcher's state,
// published on demand (not on a schedule) for operator introspection.
type DispatcherDumpEvent struct {
	Pid             Pid
	Running         bool
	ThroughputLimit int
}

func (DispatcherDumpEvent) eventStreamEvent() {}

// UnhandledMessageEvent is published when a receive downcast (message.As)
// fails to recognize the payload's type.
type UnhandledMessageEvent struct {
	Pid  Pid
	Type string
}

func (UnhandledMessageEvent) eventStreamEvent() {}

// AdapterFailureEvent is published when a typed message adapter's mapping
// function returns an error.
type AdapterFailureEvent struct {
	Pid    Pid
	Reason string
}

func (AdapterFailureEvent) eventStreamEvent() {}

// SerializationErrorEvent is published when the serialization extension
// cannot find a serializer for an outgoing/incoming message.
type SerializationErrorEvent struct {
	Type string
	Kind SerializationErrorKind
}

func (SerializationErrorEvent) eventStreamEvent() {}

// SchedulerTickEvent is published once per driver tick for observability of
// scheduler liveness.
type SchedulerTickEvent struct {
	Tick int64
}

func (SchedulerTickEvent) eventStreamEvent() {}

// RemoteAuthorityEvent is published when a remoting collaborator reports a
// change in a remote system's reachability (quarantine, rejoin). The core
// never produces these itself; it only carries them for a remoting
// extension that registers via RegisterExtension.
type RemoteAuthorityEvent struct {
	System      string
	Quarantined bool
}

func (RemoteAuthorityEvent) eventStreamEvent() {}

// Subscriber receives every event published after it subscribes.
type Subscriber interface {
	OnEvent(EventStreamEvent)
}

// SubscriberFunc adapts a plain function to Subscriber.
type SubscriberFunc func(EventStreamEvent)

func (f SubscriberFunc) OnEvent(e EventStreamEvent) { f(e) }

// Subscription is the handle returned by Subscribe; Cancel removes the
// subscriber. Safe to call more than once.
type Subscription struct {
	stream *EventStream
	id     uint64
}

// Cancel unsubscribes; idempotent.
func (s *Subscription) Cancel() {
	if s == nil || s.stream == nil {
		return
	}
	s.stream.remove(s.id)
}

// EventStream is the in-process fan-out of runtime events to subscribers.
// Publish snapshot-clones the subscriber list before fanout (spec.md §5)
// so a subscriber added or removed mid-publish never races the dispatch
// loop and publish itself never runs under the stream's lock.
type EventStream struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[uint64]Subscriber
}

// NewEventStream returns an EventStream with the default log subscriber
// installed, matching spec.md §9's "only process-wide state is the event
// stream default subscriber list (opt-in)". Pass includeDefault=false to
// opt out.
func NewEventStream(includeDefault bool) *EventStream {
	s := &EventStream{listeners: make(map[uint64]Subscriber)}
	if includeDefault {
		s.Subscribe(SubscriberFunc(logDefaultSubscriber))
	}
	return s
}

// Subscribe registers sub and returns a Subscription that cancels it.
func (s *EventStream) Subscribe(sub Subscriber) *Subscription {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = sub
	s.mu.Unlock()
	return &Subscription{stream: s, id: id}
}

func (s *EventStream) remove(id uint64) {
	s.mu.Lock()
	delete(s.listeners, id)
	s.mu.Unlock()
}

// Publish fans event out to a snapshot of current subscribers.
func (s *EventStream) Publish(event EventStreamEvent) {
	s.mu.RLock()
	snapshot := make([]Subscriber, 0, len(s.listeners))
	for _, sub := range s.listeners {
		snapshot = append(snapshot, sub)
	}
	s.mu.RUnlock()
	for _, sub := range snapshot {
		sub.OnEvent(event)
	}
}

// logDefaultSubscriber renders events through the standard log package,
// matching the teacher's fmt.Printf-everywhere texture rather than wiring a
// structured logging sink the teacher never imports.
func logDefaultSubscriber(event EventStreamEvent) {
	switch e := event.(type) {
	case LogEvent:
		log.Printf("[%s] %s: %s", e.Level, e.Pid, e.Message)
	case LifecycleEvent:
		log.Printf("lifecycle %s: %s", e.Pid, e.Kind)
	case DeadLetterEvent:
		log.Printf("deadletter to %s: %s", e.Recipient, e.Reason)
	}
}
