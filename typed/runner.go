package typed

import (
	"time"

	"github.com/lguibr/bollywood/actor"
	"github.com/lguibr/bollywood/message"
	"github.com/lguibr/bollywood/scheduler"
)

// Context[M] is the typed facade over actor.ActorContext a Behavior[M]'s
// handlers receive — the generic counterpart of actor.ActorContext, valid
// only for the duration of one message/signal dispatch.
type Context[M any] struct {
	inner  actor.ActorContext
	runner *BehaviorRunner[M]
}

func (c Context[M]) Self() actor.ActorRef               { return c.inner.Self() }
func (c Context[M]) Parent() (actor.ActorRef, bool)      { return c.inner.Parent() }
func (c Context[M]) System() *actor.ActorSystem          { return c.inner.System() }
func (c Context[M]) SpawnChild(props actor.Props) (actor.ActorRef, error) {
	return c.inner.SpawnChild(props)
}
func (c Context[M]) StopSelf()                      { c.inner.StopSelf() }
func (c Context[M]) Watch(target actor.ActorRef)     { c.inner.Watch(target) }
func (c Context[M]) Unwatch(target actor.ActorRef)   { c.inner.Unwatch(target) }
func (c Context[M]) SetReceiveTimeout(d time.Duration) {
	c.inner.SetReceiveTimeout(d)
}
func (c Context[M]) Log(level actor.LogLevel, msg string) { c.inner.Log(level, msg) }

func (c Context[M]) ScheduleOnce(d time.Duration, runnable func()) (scheduler.HandleID, error) {
	return c.inner.ScheduleOnce(d, runnable)
}

// Stash returns the behavior's stash, or nil if it wasn't given one via
// BehaviorRunner.WithStash.
func (c Context[M]) Stash() *Stash[M] { return c.runner.stash }

// MessageAdapter registers a U→M conversion and returns a typed ref an
// external collaborator can Tell a U; this actor sees it as an M (or an
// AdapterFailed signal on conversion failure). Package-level rather than a
// Context method because Go methods cannot carry their own type parameter.
func MessageAdapter[M any, U any](ctx Context[M], adapt func(U) (M, *AdapterFailure)) AdapterRef[U] {
	return AdapterRef[U]{target: ctx.inner.Self(), entry: newAdapterEntry[U, M](adapt)}
}

// BehaviorRunner[M] adapts a Behavior[M] to actor.Actor: it forwards
// lifecycle/message/signal events through the untyped contract and applies
// the transition rules spec.md §4.8 describes (Same/Ignore keep current,
// Stopped stops once, Active replaces current).
type BehaviorRunner[M any] struct {
	initial       Behavior[M]
	current       Behavior[M]
	stash         *Stash[M]
	stashCapacity int
	stopRequested bool
}

// New wraps initial in a runner ready to be used as an actor.Producer:
// `actor.PropsOf(func() actor.Actor { return typed.New(initial) })`.
func New[M any](initial Behavior[M]) *BehaviorRunner[M] {
	return &BehaviorRunner[M]{initial: initial, current: initial}
}

// WithStash gives the behavior a bounded deque it can buffer messages into
// for later replay (spec.md §4.8's `.with_stash`).
func (r *BehaviorRunner[M]) WithStash(capacity int) *BehaviorRunner[M] {
	r.stashCapacity = capacity
	return r
}

func (r *BehaviorRunner[M]) PreStart(ctx actor.ActorContext) error {
	r.current = r.initial
	r.stopRequested = false
	if r.stashCapacity > 0 {
		r.stash = newStash[M](r.stashCapacity)
	}
	return r.dispatchSignal(ctx, Signal{Kind: SignalStarted})
}

func (r *BehaviorRunner[M]) PostStop(ctx actor.ActorContext) error {
	return r.dispatchSignal(ctx, Signal{Kind: SignalStopped})
}

// Receive implements actor.Actor: it recognizes Terminated notifications
// and adapterEnvelopes before falling back to a plain M downcast.
func (r *BehaviorRunner[M]) Receive(ctx actor.ActorContext, view message.AnyMessageView) error {
	switch payload := view.Payload().(type) {
	case actor.Terminated:
		return r.dispatchSignal(ctx, Signal{Kind: SignalTerminated, Terminated: payload.Pid})
	case adapterEnvelope:
		return r.handleAdapterEnvelope(ctx, payload)
	default:
		if msg, ok := message.As[M](view); ok {
			return r.dispatchMessage(ctx, msg)
		}
		ctx.System().Events().Publish(actor.UnhandledMessageEvent{Pid: ctx.Self().Pid(), Type: view.Type().String()})
		return nil
	}
}

func (r *BehaviorRunner[M]) handleAdapterEnvelope(ctx actor.ActorContext, env adapterEnvelope) error {
	owned := message.NewAnyOwnedMessage(env.raw, nil)
	result, failure := env.entry.invoke(adapterPayload{view: owned.View()})
	if failure != nil {
		return r.dispatchSignal(ctx, Signal{Kind: SignalAdapterFailed, Reason: failure.Reason})
	}
	converted, ok := result.(M)
	if !ok {
		return r.dispatchSignal(ctx, Signal{Kind: SignalAdapterFailed, Reason: "adapter produced wrong type"})
	}
	return r.dispatchMessage(ctx, converted)
}

func (r *BehaviorRunner[M]) resolveSetup(ctx actor.ActorContext) {
	if r.current.kind != setup {
		return
	}
	tctx := Context[M]{inner: ctx, runner: r}
	r.current = r.current.factory(tctx)
}

func (r *BehaviorRunner[M]) dispatchMessage(ctx actor.ActorContext, msg M) error {
	r.resolveSetup(ctx)
	if r.current.onMessage == nil {
		return nil
	}
	tctx := Context[M]{inner: ctx, runner: r}
	next, err := r.current.onMessage(tctx, msg)
	return r.applyTransition(ctx, next, err)
}

func (r *BehaviorRunner[M]) dispatchSignal(ctx actor.ActorContext, sig Signal) error {
	r.resolveSetup(ctx)
	if r.current.onSignal == nil {
		return nil
	}
	tctx := Context[M]{inner: ctx, runner: r}
	next, err := r.current.onSignal(tctx, sig)
	return r.applyTransition(ctx, next, err)
}

func (r *BehaviorRunner[M]) applyTransition(ctx actor.ActorContext, next Behavior[M], err error) error {
	if err != nil {
		return err
	}
	switch next.kind {
	case same, ignore:
		// keep current
	case stopped:
		if !r.stopRequested {
			r.stopRequested = true
			ctx.StopSelf()
		}
	default:
		r.current = next
	}
	return nil
}
