package actor

import (
	"fmt"
	"sync"
	"time"

	"github.com/lguibr/bollywood/message"
	"github.com/lguibr/bollywood/scheduler"
)

// Actor is the contract every application-level actor implements — the
// generalized form of the teacher's `Actor interface { Receive(ctx) }`
// referenced (but never defined) by its process.go/engine.go.
type Actor interface {
	Receive(ctx ActorContext, view message.AnyMessageView) error
}

// PreStarter is an optional Actor extension run once per incarnation,
// before the first message is delivered.
type PreStarter interface {
	PreStart(ctx ActorContext) error
}

// PostStopper is an optional Actor extension run once an actor has fully
// stopped (including on restart, between the old and new instance).
type PostStopper interface {
	PostStop(ctx ActorContext) error
}

// System messages. These always travel on the mailbox's system queue ahead
// of user traffic, matching spec.md §3's "System messages are delivered
// strictly before user messages within the same turn."
type (
	sysCreate struct{}
	sysStop   struct{}
	sysFailure struct {
		Child Pid
		Err   *ActorError
	}
)

// Terminated is delivered to every watcher of an actor, once, the instant
// it stops — spec.md §8's "Watch terminates" property. Unlike the sys*
// messages above it travels as an ordinary user message (so a watching
// Actor's Receive, typed or untyped, sees it through the normal downcast
// path) rather than on the system queue.
type Terminated struct {
	Pid Pid
}

// ReceiveTimeout is injected by the scheduler when no user message arrives
// within the duration set by ActorContext.SetReceiveTimeout (spec.md §8).
// Exported, like Terminated, so another package (e.g. typed's ask
// responder) can recognize it by name via message.As.
type ReceiveTimeout struct{}

// ChildRef is one entry in a cell's children map.
type ChildRef struct {
	Pid  Pid
	Ref  ActorRef
	Cell *ActorCell
}

// ActorCell is the per-actor runtime state: its live instance, mailbox,
// dispatcher binding, supervisor strategy, restart history, and its place
// in the parent/child/watch graph. process_message is its single entry
// point, called by the dispatcher for every drained message.
type ActorCell struct {
	system *ActorSystem
	pid    Pid
	path   *ActorPath
	self   ActorRef

	parent *ActorCell
	props  Props

	mailbox    *Mailbox
	dispatcher *Dispatcher

	mu       sync.Mutex
	actor    Actor
	children map[uint32]*ChildRef
	watchers map[uint32]ActorRef
	watching map[uint32]ActorRef
	stopped  bool

	restartStats *RestartStatistics

	currentReplyTo message.ReplyTarget

	receiveTimeout       time.Duration
	receiveTimeoutHandle scheduler.HandleID
	hasTimeoutHandle     bool
}

func newActorCell(system *ActorSystem, parent *ActorCell, pid Pid, path *ActorPath, props Props, mailbox *Mailbox) *ActorCell {
	cell := &ActorCell{
		system:       system,
		pid:          pid,
		path:         path,
		parent:       parent,
		props:        props,
		mailbox:      mailbox,
		children:     make(map[uint32]*ChildRef),
		watchers:     make(map[uint32]ActorRef),
		watching:     make(map[uint32]ActorRef),
		restartStats: NewRestartStatistics(),
	}
	cell.self = newActorRef(pid, path, mailbox)
	return cell
}

// Self returns the cell's own reference.
func (c *ActorCell) Self() ActorRef { return c.self }

// deliver is the function the dispatcher invokes for each drained message
// (after middleware), dispatching to processMessage.
func (c *ActorCell) deliver(envelope inboundEnvelope) {
	c.processMessage(envelope)
}

// processMessage implements spec.md §4.7's process_message: system messages
// drive lifecycle/supervision directly; user messages go through receive
// with panic recovery turning an actor panic into a Fatal ActorError.
func (c *ActorCell) processMessage(envelope inboundEnvelope) {
	if envelope.isSystem {
		c.handleSystemMessage(envelope.msg.Payload())
		return
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		c.deadletter(envelope.msg, "actor already stopped")
		return
	}
	actor := c.actor
	c.currentReplyTo = envelope.msg.ReplyTo
	c.mu.Unlock()

	err := c.invokeReceive(actor, envelope.msg)

	c.mu.Lock()
	c.currentReplyTo = nil
	c.mu.Unlock()

	if err == nil {
		return
	}
	actorErr, ok := err.(*ActorError)
	if !ok {
		actorErr = NewRecoverableError(err.Error())
	}
	c.handleFailure(actorErr)
}

func (c *ActorCell) invokeReceive(instance Actor, msg message.AnyOwnedMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewFatalError(fmt.Sprintf("panic: %v", r))
		}
	}()
	ctx := &actorContext{cell: c}
	return instance.Receive(ctx, msg.View())
}

func (c *ActorCell) handleSystemMessage(payload any) {
	switch msg := payload.(type) {
	case sysCreate:
		c.start()
	case sysStop:
		c.stop()
	case sysFailure:
		c.handleChildFailure(msg.Child, msg.Err)
	case ReceiveTimeout:
		c.deliverReceiveTimeout()
	}
}

func (c *ActorCell) start() {
	instance := c.props.Producer()
	c.mu.Lock()
	c.actor = instance
	c.mu.Unlock()
	ctx := &actorContext{cell: c}
	if starter, ok := instance.(PreStarter); ok {
		if err := starter.PreStart(ctx); err != nil {
			c.handleFailure(NewFatalError(err.Error()))
			return
		}
	}
	c.system.events.Publish(LifecycleEvent{Pid: c.pid, Path: c.path, Kind: LifecycleStarted})
}

func (c *ActorCell) deliverReceiveTimeout() {
	c.mu.Lock()
	actor := c.actor
	c.mu.Unlock()
	if actor == nil {
		return
	}
	msg := message.NewAnyOwnedMessage(ReceiveTimeout{}, nil)
	err := c.invokeReceive(actor, msg)
	if err != nil {
		if ae, ok := err.(*ActorError); ok {
			c.handleFailure(ae)
		} else {
			c.handleFailure(NewRecoverableError(err.Error()))
		}
	}
}

// handleFailure implements spec.md §4.7's recoverable/fatal branch: a Fatal
// error escalates unconditionally; a Recoverable one consults the
// supervisor strategy.
func (c *ActorCell) handleFailure(err *ActorError) {
	if err.Kind == Fatal {
		c.escalate(err)
		return
	}
	directive := c.props.Supervisor.handleFailure(c.restartStats, err, time.Now())
	switch directive {
	case Restart:
		c.restart()
		if c.props.Supervisor.Kind == AllForOne {
			c.forEachSibling(func(sibling *ActorCell) { sibling.restart() })
		}
	case Stop:
		c.stop()
		if c.props.Supervisor.Kind == AllForOne {
			c.forEachSibling(func(sibling *ActorCell) { sibling.stop() })
		}
	case Escalate:
		c.escalate(err)
	}
}

func (c *ActorCell) forEachSibling(fn func(*ActorCell)) {
	if c.parent == nil {
		return
	}
	c.parent.mu.Lock()
	siblings := make([]*ActorCell, 0, len(c.parent.children))
	for _, child := range c.parent.children {
		if child.Cell != c {
			siblings = append(siblings, child.Cell)
		}
	}
	c.parent.mu.Unlock()
	for _, sibling := range siblings {
		fn(sibling)
	}
}

func (c *ActorCell) escalate(err *ActorError) {
	if c.parent == nil {
		// Root guardian with nothing above it: a fatal failure here
		// terminates the whole system.
		c.system.markTerminated()
		return
	}
	failureMsg := message.NewAnyOwnedMessage(sysFailure{Child: c.pid, Err: err}, nil)
	_ = c.parent.mailbox.EnqueueSystem(failureMsg)
	c.parent.dispatcher.Schedule()
}

func (c *ActorCell) handleChildFailure(childPid Pid, err *ActorError) {
	c.mu.Lock()
	child, ok := c.children[childPid.Index]
	c.mu.Unlock()
	if !ok {
		return
	}
	c.handleFailure(err)
}

// restart recreates the actor instance in place: post_stop on the old
// instance, pre_start on a fresh one, same pid. Incarnation is not bumped,
// so refs and lookups taken before the restart still resolve to this cell.
func (c *ActorCell) restart() {
	c.mu.Lock()
	actor := c.actor
	c.mu.Unlock()
	ctx := &actorContext{cell: c}
	if stopper, ok := actor.(PostStopper); ok {
		_ = stopper.PostStop(ctx)
	}
	c.system.events.Publish(LifecycleEvent{Pid: c.pid, Path: c.path, Kind: LifecycleRestarted})
	c.start()
}

// stop drains the user queue into deadletters, runs post_stop, notifies
// watchers, and unregisters the cell — spec.md §4.7's stop sequence.
func (c *ActorCell) stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	actor := c.actor
	children := make([]*ChildRef, 0, len(c.children))
	for _, child := range c.children {
		children = append(children, child)
	}
	watchers := make([]ActorRef, 0, len(c.watchers))
	for _, w := range c.watchers {
		watchers = append(watchers, w)
	}
	c.mu.Unlock()

	for _, child := range children {
		child.Cell.stop()
	}

	for {
		msg, ok := c.mailbox.PollUser()
		if !ok {
			break
		}
		c.deadletter(msg, "actor stopping")
	}

	if actor != nil {
		ctx := &actorContext{cell: c}
		if stopper, ok := actor.(PostStopper); ok {
			_ = stopper.PostStop(ctx)
		}
	}

	for _, w := range watchers {
		_ = Tell(w, Terminated{Pid: c.pid}, nil)
	}

	c.mailbox.Close()
	c.system.unregisterCell(c.pid, c.path)
	c.system.events.Publish(LifecycleEvent{Pid: c.pid, Path: c.path, Kind: LifecycleTerminated})

	if c.parent != nil {
		c.parent.removeChild(c.pid)
	}
}

func (c *ActorCell) removeChild(pid Pid) {
	c.mu.Lock()
	delete(c.children, pid.Index)
	c.mu.Unlock()
}

func (c *ActorCell) deadletter(msg message.AnyOwnedMessage, reason string) {
	c.system.events.Publish(DeadLetterEvent{Recipient: c.pid, Payload: msg.Payload(), Reason: reason})
}
