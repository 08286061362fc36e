package typed

import (
	"context"
	"time"

	"github.com/lguibr/bollywood/actor"
	"github.com/lguibr/bollywood/message"
)

// TypedAskErrorKind enumerates why Ask failed to resolve to a Resp, the Go
// rendering of spec.md §4.8's `TypedAskError::{TypeMismatch, SharedReferences, Timeout}`.
type TypedAskErrorKind int

const (
	AskTimeout TypedAskErrorKind = iota
	AskTypeMismatch
	// AskSharedReferences is reserved for a remoting extension that can
	// detect a reply aliasing state it cannot safely hand across a process
	// boundary; this in-process ask never produces it itself.
	AskSharedReferences
)

func (k TypedAskErrorKind) String() string {
	switch k {
	case AskTimeout:
		return "timeout"
	case AskTypeMismatch:
		return "type_mismatch"
	case AskSharedReferences:
		return "shared_references"
	default:
		return "unknown"
	}
}

// TypedAskError is the error Ask returns on anything but a clean reply.
type TypedAskError struct {
	Kind   TypedAskErrorKind
	Reason string
}

func (e *TypedAskError) Error() string { return "typed: ask failed: " + e.Kind.String() }

type askResult[Resp any] struct {
	value Resp
	err   *TypedAskError
}

// askResponder is a one-shot internal actor: it accepts exactly one Resp (or
// times out), reports it on result, and stops itself either way so a
// late-arriving reply deadletters instead of leaking a live actor.
type askResponder[Resp any] struct {
	timeout time.Duration
	result  chan askResult[Resp]
	done    bool
}

func (a *askResponder[Resp]) PreStart(ctx actor.ActorContext) error {
	ctx.SetReceiveTimeout(a.timeout)
	return nil
}

func (a *askResponder[Resp]) Receive(ctx actor.ActorContext, view message.AnyMessageView) error {
	if a.done {
		return nil
	}
	if _, ok := message.As[actor.ReceiveTimeout](view); ok {
		a.done = true
		a.send(askResult[Resp]{err: &TypedAskError{Kind: AskTimeout, Reason: "no reply before deadline"}})
		ctx.StopSelf()
		return nil
	}
	value, ok := message.As[Resp](view)
	if !ok {
		a.done = true
		a.send(askResult[Resp]{err: &TypedAskError{Kind: AskTypeMismatch, Reason: "reply payload type mismatch"}})
		ctx.StopSelf()
		return nil
	}
	a.done = true
	a.send(askResult[Resp]{value: value})
	ctx.StopSelf()
	return nil
}

func (a *askResponder[Resp]) send(r askResult[Resp]) {
	select {
	case a.result <- r:
	default:
	}
}

// Ask sends a request built from a freshly-spawned one-shot reply ref and
// blocks until the target replies, the reply arrives with the wrong type, or
// timeout elapses — spec.md §4.8's typed ask pattern. spawn is typically
// ctx.SpawnChild or system.Spawn: the responder is spawned as a short-lived
// actor rather than rendezvoused with a bare channel so its reply, a stop
// directive, and a SetReceiveTimeout-driven deadline all flow through the
// ordinary actor lifecycle instead of a side channel.
func Ask[Req any, Resp any](
	goCtx context.Context,
	spawn func(actor.Props) (actor.ActorRef, error),
	target actor.ActorRef,
	buildReq func(replyTo actor.ActorRef) Req,
	timeout time.Duration,
) (Resp, error) {
	var zero Resp
	result := make(chan askResult[Resp], 1)
	ref, err := spawn(actor.PropsOf(func() actor.Actor {
		return &askResponder[Resp]{timeout: timeout, result: result}
	}))
	if err != nil {
		return zero, err
	}

	req := buildReq(ref)
	if err := actor.Tell(target, req, ref); err != nil {
		return zero, err
	}

	select {
	case res := <-result:
		if res.err != nil {
			return zero, res.err
		}
		return res.value, nil
	case <-goCtx.Done():
		return zero, &TypedAskError{Kind: AskTimeout, Reason: goCtx.Err().Error()}
	}
}
