// Package typed implements the typed-behavior layer over actor's untyped
// core: Behavior[M], its builders, a BehaviorRunner that adapts a Behavior
// to actor.Actor, message adapters, the typed ask pattern, and a bounded
// stash.
package typed

import "github.com/lguibr/bollywood/actor"

// Kind enumerates the five behavior forms.
type Kind int

const (
	// same keeps whatever behavior is already current.
	same Kind = iota
	// stopped triggers ctx.stop_self() once, then the actor terminates.
	stopped
	// ignore discards the message/signal and keeps the current behavior.
	ignore
	// active runs onMessage/onSignal for the next message/signal.
	active
	// setup lazily produces the real initial behavior on Started.
	setup
)

// SignalKind enumerates the lifecycle signals receive_signal handlers see.
type SignalKind int

const (
	SignalStarted SignalKind = iota
	SignalStopped
	SignalTerminated
	SignalAdapterFailed
)

func (k SignalKind) String() string {
	switch k {
	case SignalStarted:
		return "started"
	case SignalStopped:
		return "stopped"
	case SignalTerminated:
		return "terminated"
	case SignalAdapterFailed:
		return "adapter_failed"
	default:
		return "unknown"
	}
}

// Signal is the sum type receive_signal handlers are given: which case
// applies is Kind; Terminated and Reason are populated only for their
// matching kinds.
type Signal struct {
	Kind       SignalKind
	Terminated actor.Pid
	Reason     string
}

// MessageHandler handles one typed message, returning the next behavior.
type MessageHandler[M any] func(ctx Context[M], msg M) (Behavior[M], error)

// SignalHandler handles one lifecycle signal, returning the next behavior.
type SignalHandler[M any] func(ctx Context[M], signal Signal) (Behavior[M], error)

// SetupFactory lazily produces the initial behavior once the backing actor
// starts, so setup can close over ctx (e.g. to spawn children eagerly).
type SetupFactory[M any] func(ctx Context[M]) Behavior[M]

// Behavior[M] is one of same/stopped/ignore/active/setup — spec.md §4.8's
// closed behavior set, built through the Behaviors constructors rather than
// struct literals so the zero value (Kind 0 == same) is never constructed
// by accident as something meaningfully different from Same[M]().
type Behavior[M any] struct {
	kind      Kind
	onMessage MessageHandler[M]
	onSignal  SignalHandler[M]
	factory   SetupFactory[M]
}

// IsSame reports whether b is the "keep current behavior" marker.
func (b Behavior[M]) IsSame() bool { return b.kind == same }

// IsStopped reports whether b requests the actor stop.
func (b Behavior[M]) IsStopped() bool { return b.kind == stopped }
