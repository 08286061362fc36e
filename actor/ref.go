package actor

import "github.com/lguibr/bollywood/message"

// mailboxSender is the slice of *Mailbox that ActorRef needs. Kept as an
// unexported interface (rather than a direct *Mailbox field) so ActorRef
// stays constructible in tests without a live mailbox. ScheduleDispatch lets
// TellAny drive the idle->running transition after enqueuing, spec.md §4.5's
// combined enqueue+schedule contract for the sender-facing side of a
// dispatcher.
type mailboxSender interface {
	EnqueueUser(msg message.AnyOwnedMessage) (EnqueueOutcome, error)
	ScheduleDispatch()
}

// ActorRef is the public, sendable handle to an actor: a Pid plus (when
// available) its ActorPath, backed by the mailbox that actually queues
// messages. It implements message.ReplyTarget so it can be placed in an
// envelope's reply_to without message importing actor.
type ActorRef struct {
	pid     Pid
	path    *ActorPath
	mailbox mailboxSender
}

// newActorRef is called by the cell/system machinery once a mailbox exists.
func newActorRef(pid Pid, path *ActorPath, mailbox mailboxSender) ActorRef {
	return ActorRef{pid: pid, path: path, mailbox: mailbox}
}

// Pid returns the ref's stable identifier.
func (r ActorRef) Pid() Pid { return r.pid }

// Path returns the ref's hierarchical path, or nil if the ref was built
// without one (e.g. a bare Pid-only reference used in tests).
func (r ActorRef) Path() *ActorPath { return r.path }

// IsZero reports whether r was never bound to a mailbox.
func (r ActorRef) IsZero() bool { return r.mailbox == nil }

// TellAny enqueues a pre-built envelope onto the target's user queue and
// drives the mailbox's idle->running transition, satisfying
// message.ReplyTarget. Every send path — an ordinary Tell, ctx.Reply,
// PipeToSelf's self-send, a typed ask reply, an adapter Tell — funnels
// through here, so this is the one place spec.md §4.5's "senders enqueue and
// wake an idle dispatcher" contract needs to live.
func (r ActorRef) TellAny(msg message.AnyOwnedMessage) error {
	if r.mailbox == nil {
		return &SendError{Kind: SendInvalidRecipient, Message: msg}
	}
	_, err := r.mailbox.EnqueueUser(msg)
	if err != nil {
		return err
	}
	r.mailbox.ScheduleDispatch()
	return nil
}

// Tell boxes payload into a fresh envelope (with optional replyTo) and
// enqueues it, the ordinary fire-and-forget send spec.md §4.4 calls "tell".
func Tell(r ActorRef, payload any, replyTo message.ReplyTarget) error {
	return r.TellAny(message.NewAnyOwnedMessage(payload, replyTo))
}
