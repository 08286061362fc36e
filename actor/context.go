package actor

import (
	"time"

	"github.com/lguibr/bollywood/message"
	"github.com/lguibr/bollywood/scheduler"
)

// ActorContext is the capability set an Actor's Receive is given for the
// duration of one invocation — spec.md §4.7's "borrowed for one receive".
// Nothing on it is safe to retain past that call.
type ActorContext interface {
	Self() ActorRef
	Parent() (ActorRef, bool)
	System() *ActorSystem

	SpawnChild(props Props) (ActorRef, error)
	StopSelf()

	Watch(target ActorRef)
	Unwatch(target ActorRef)

	SetReceiveTimeout(d time.Duration)

	PipeToSelf(task func() (any, error), mapOk func(any) any, mapErr func(error) any)

	ScheduleOnce(d time.Duration, runnable func()) (scheduler.HandleID, error)
	ScheduleFixedRate(d, period time.Duration, backlogLimit, burstThreshold int, runnable func()) (scheduler.HandleID, error)
	ScheduleFixedDelay(d, period time.Duration, runnable func()) (scheduler.HandleID, error)

	Log(level LogLevel, msg string)

	Reply(payload any) error
	ReplyTo() message.ReplyTarget
}

// actorContext is the concrete ActorContext, a thin borrowed view over an
// ActorCell.
type actorContext struct {
	cell *ActorCell
}

func (c *actorContext) Self() ActorRef { return c.cell.self }

func (c *actorContext) Parent() (ActorRef, bool) {
	if c.cell.parent == nil {
		return ActorRef{}, false
	}
	return c.cell.parent.self, true
}

func (c *actorContext) System() *ActorSystem { return c.cell.system }

func (c *actorContext) SpawnChild(props Props) (ActorRef, error) {
	return c.cell.system.spawn(c.cell, props)
}

func (c *actorContext) StopSelf() {
	_ = c.cell.mailbox.EnqueueSystem(message.NewAnyOwnedMessage(sysStop{}, nil))
	c.cell.dispatcher.Schedule()
}

func (c *actorContext) Watch(target ActorRef) {
	c.cell.mu.Lock()
	c.cell.watching[target.pid.Index] = target
	c.cell.mu.Unlock()
	if cell, ok := c.cell.system.cellFor(target.pid); ok {
		cell.mu.Lock()
		cell.watchers[c.cell.pid.Index] = c.cell.self
		cell.mu.Unlock()
	}
}

func (c *actorContext) Unwatch(target ActorRef) {
	c.cell.mu.Lock()
	delete(c.cell.watching, target.pid.Index)
	c.cell.mu.Unlock()
	if cell, ok := c.cell.system.cellFor(target.pid); ok {
		cell.mu.Lock()
		delete(cell.watchers, c.cell.pid.Index)
		cell.mu.Unlock()
	}
}

func (c *actorContext) SetReceiveTimeout(d time.Duration) {
	cell := c.cell
	cell.mu.Lock()
	if cell.hasTimeoutHandle {
		cell.system.scheduler.Cancel(cell.receiveTimeoutHandle)
		cell.hasTimeoutHandle = false
	}
	cell.receiveTimeout = d
	cell.mu.Unlock()
	if d <= 0 {
		return
	}
	handle, err := cell.system.scheduler.ScheduleOnce(d, func() {
		_ = cell.mailbox.EnqueueSystem(message.NewAnyOwnedMessage(ReceiveTimeout{}, nil))
		cell.dispatcher.Schedule()
	})
	if err != nil {
		return
	}
	cell.mu.Lock()
	cell.receiveTimeoutHandle = handle
	cell.hasTimeoutHandle = true
	cell.mu.Unlock()
}

// PipeToSelf runs task on its own goroutine (spec.md §4.7's async bridge,
// removing the need for actor code to hold a future across message
// boundaries) and self-sends the mapped outcome.
func (c *actorContext) PipeToSelf(task func() (any, error), mapOk func(any) any, mapErr func(error) any) {
	self := c.cell.self
	go func() {
		result, err := task()
		if err != nil {
			if mapErr != nil {
				_ = Tell(self, mapErr(err), nil)
			}
			return
		}
		if mapOk != nil {
			_ = Tell(self, mapOk(result), nil)
		}
	}()
}

func (c *actorContext) ScheduleOnce(d time.Duration, runnable func()) (scheduler.HandleID, error) {
	return c.cell.system.scheduler.ScheduleOnce(d, runnable)
}

func (c *actorContext) ScheduleFixedRate(d, period time.Duration, backlogLimit, burstThreshold int, runnable func()) (scheduler.HandleID, error) {
	return c.cell.system.scheduler.ScheduleFixedRate(d, period, backlogLimit, burstThreshold, runnable)
}

func (c *actorContext) ScheduleFixedDelay(d, period time.Duration, runnable func()) (scheduler.HandleID, error) {
	return c.cell.system.scheduler.ScheduleFixedDelay(d, period, runnable)
}

func (c *actorContext) Log(level LogLevel, msg string) {
	c.cell.system.events.Publish(LogEvent{Pid: c.cell.pid, Level: level, Message: msg})
}

func (c *actorContext) Reply(payload any) error {
	c.cell.mu.Lock()
	replyTo := c.cell.currentReplyTo
	c.cell.mu.Unlock()
	if replyTo == nil {
		return &SendError{Kind: SendInvalidRecipient}
	}
	err := replyTo.TellAny(message.NewAnyOwnedMessage(payload, nil))
	if sendErr, ok := err.(*SendError); ok && sendErr.Kind == SendClosed {
		c.cell.system.events.Publish(DeadLetterEvent{Recipient: c.cell.pid, Payload: payload, Reason: "reply target already stopped"})
	}
	return err
}

func (c *actorContext) ReplyTo() message.ReplyTarget {
	c.cell.mu.Lock()
	defer c.cell.mu.Unlock()
	return c.cell.currentReplyTo
}
