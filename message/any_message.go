// Package message implements the dynamically-typed payload envelopes that
// flow through mailboxes: AnyOwnedMessage (the form a sender constructs and
// the mailbox stores) and AnyMessageView (the form handed to a receive call,
// borrowing the payload for the duration of one invocation).
package message

import "reflect"

// ReplyTarget is the minimal capability an envelope's reply_to needs: the
// ability to accept a further AnyOwnedMessage. actor.ActorRef implements
// this; message deliberately doesn't import the actor package to avoid a
// cycle (mailbox, which actor owns, stores AnyOwnedMessage).
type ReplyTarget interface {
	TellAny(msg AnyOwnedMessage) error
}

// Metadata is an ordered key/value list attached to an envelope. Ordered
// (not a map) so senders that rely on iteration order for tracing headers
// get it back unchanged.
type Metadata struct {
	pairs []metadataPair
}

type metadataPair struct {
	Key   string
	Value string
}

// With returns a copy of m with key=value appended (or updated in place if
// key already exists).
func (m Metadata) With(key, value string) Metadata {
	out := Metadata{pairs: make([]metadataPair, len(m.pairs))}
	copy(out.pairs, m.pairs)
	for i, p := range out.pairs {
		if p.Key == key {
			out.pairs[i].Value = value
			return out
		}
	}
	out.pairs = append(out.pairs, metadataPair{Key: key, Value: value})
	return out
}

// Get returns the value for key and whether it was present.
func (m Metadata) Get(key string) (string, bool) {
	for _, p := range m.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Each calls fn once per key/value pair in insertion order.
func (m Metadata) Each(fn func(key, value string)) {
	for _, p := range m.pairs {
		fn(p.Key, p.Value)
	}
}

// Len reports the number of pairs.
func (m Metadata) Len() int { return len(m.pairs) }

// AnyOwnedMessage is the type-erased, owned form of a message: what a
// sender constructs and a mailbox stores. The payload is held by reference
// (interface{} already boxes it on the Go heap) so cloning an envelope is
// cheap and mailbox/dispatcher code never needs to know the concrete type.
type AnyOwnedMessage struct {
	payload  any
	typ      reflect.Type
	ReplyTo  ReplyTarget
	Metadata Metadata
}

// NewAnyOwnedMessage boxes payload into an envelope, capturing its type tag
// once at construction time (spec.md §3: "a captured TypeId").
func NewAnyOwnedMessage(payload any, replyTo ReplyTarget) AnyOwnedMessage {
	return AnyOwnedMessage{
		payload: payload,
		typ:     reflect.TypeOf(payload),
		ReplyTo: replyTo,
	}
}

// WithMetadata returns a copy of the envelope carrying the given metadata.
func (m AnyOwnedMessage) WithMetadata(md Metadata) AnyOwnedMessage {
	m.Metadata = md
	return m
}

// Type returns the captured payload type.
func (m AnyOwnedMessage) Type() reflect.Type { return m.typ }

// Payload returns the boxed payload.
func (m AnyOwnedMessage) Payload() any { return m.payload }

// View returns a borrowed AnyMessageView over this envelope, valid for the
// duration of one receive call.
func (m AnyOwnedMessage) View() AnyMessageView {
	return AnyMessageView{owner: &m}
}

// AnyMessageView borrows an envelope's payload for the duration of one
// receive call. It is never stored past that call; actor code that needs to
// retain data across messages must copy it out.
type AnyMessageView struct {
	owner *AnyOwnedMessage
}

// Type returns the borrowed payload's captured type.
func (v AnyMessageView) Type() reflect.Type { return v.owner.typ }

// Payload returns the borrowed payload.
func (v AnyMessageView) Payload() any { return v.owner.payload }

// ReplyTo returns the envelope's reply target, if any.
func (v AnyMessageView) ReplyTo() ReplyTarget { return v.owner.ReplyTo }

// Metadata returns the envelope's metadata.
func (v AnyMessageView) Metadata() Metadata { return v.owner.Metadata }

// As attempts to downcast the view's payload to T, mirroring the
// handler-side downcast spec.md §9 describes ("On receive, handlers
// downcast"). Returns false (not panics) on mismatch so callers can fall
// back to publishing an UnhandledMessageEvent.
func As[T any](v AnyMessageView) (T, bool) {
	t, ok := v.Payload().(T)
	return t, ok
}
