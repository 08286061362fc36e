package typed

import (
	"reflect"

	"github.com/lguibr/bollywood/actor"
	"github.com/lguibr/bollywood/message"
)

// AdapterFailureKind enumerates why a message adapter rejected a value.
type AdapterFailureKind int

const (
	AdapterTypeMismatch AdapterFailureKind = iota
	AdapterCustom
)

// AdapterFailure is what an adapter function returns to reject a value
// instead of converting it, or what AdapterEntry's invoke synthesizes itself
// when the delivered payload doesn't match the registered type.
type AdapterFailure struct {
	Kind   AdapterFailureKind
	Reason string
}

func (f *AdapterFailure) Error() string { return "typed: adapter failure: " + f.Reason }

// NewAdapterFailure builds a Custom failure, the form an adapt function
// returns for its own domain-specific rejection reasons.
func NewAdapterFailure(reason string) *AdapterFailure {
	return &AdapterFailure{Kind: AdapterCustom, Reason: reason}
}

// adapterPayload borrows the incoming envelope's dynamically-typed value
// for the duration of one adapt call. Generalizes the original's Arc-shared
// `AdapterPayload<TB>` — Go's `any` is already a shared, cheaply-copyable
// box, so this wraps a message.AnyMessageView rather than reimplementing
// shared ownership.
type adapterPayload struct {
	view message.AnyMessageView
}

func tryDowncast[T any](p adapterPayload) (T, bool) {
	return message.As[T](p.view)
}

// AdapterEntry is the registered U→M conversion: what type it matches and
// the closure that performs the downcast-then-convert, boxed so a
// BehaviorRunner[M] can hold a heterogeneous set of entries (one per
// adapter U type) without M appearing in AdapterEntry's own type.
type AdapterEntry struct {
	typ    reflect.Type
	invoke func(adapterPayload) (any, *AdapterFailure)
}

// newAdapterEntry closes over the U→M adapt function, type-erasing the
// result to `any` (the caller, BehaviorRunner[M], knows to assert it back to
// M since it's the one that built this entry for its own M).
func newAdapterEntry[U any, M any](adapt func(U) (M, *AdapterFailure)) *AdapterEntry {
	var zero U
	return &AdapterEntry{
		typ: reflect.TypeOf(zero),
		invoke: func(p adapterPayload) (any, *AdapterFailure) {
			value, ok := tryDowncast[U](p)
			if !ok {
				return nil, &AdapterFailure{Kind: AdapterTypeMismatch, Reason: "payload type mismatch"}
			}
			result, failure := adapt(value)
			if failure != nil {
				return nil, failure
			}
			return result, nil
		},
	}
}

// adapterEnvelope is what actually travels through the untyped mailbox when
// an AdapterRef is told a value: the registered entry plus the raw value,
// boxed so BehaviorRunner.Receive can recognize it via a type switch before
// handing it to the behavior's ordinary message path.
type adapterEnvelope struct {
	entry *AdapterEntry
	raw   any
}

// AdapterRef[U] is the typed ref ctx.MessageAdapter returns: an external
// collaborator sends it a U, and it arrives at this actor already converted
// to M (or as an AdapterFailed signal if conversion failed).
type AdapterRef[U any] struct {
	target actor.ActorRef
	entry  *AdapterEntry
}

// Tell sends value through the adapter pipeline to the actor that created
// this ref.
func (r AdapterRef[U]) Tell(value U) error {
	return actor.Tell(r.target, adapterEnvelope{entry: r.entry, raw: value}, nil)
}
