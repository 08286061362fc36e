package actor_test

import (
	"context"
	"testing"

	"github.com/lguibr/bollywood/actor"
	"github.com/lguibr/bollywood/message"
	"github.com/lguibr/bollywood/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Bounded backpressure (spec.md §8 scenario 2): a bounded(capacity=2, Block)
// mailbox returns Pending on the third rapid enqueue, and that future
// completes once the first message is drained.
func TestMailboxBoundedBackpressure(t *testing.T) {
	mb := actor.NewMailbox(actor.Pid{Index: 1, Incarnation: 1}, actor.MailboxConfig{
		Bounded:  true,
		Capacity: 2,
		Overflow: queue.Block,
	}, nil)

	outcome1, err := mb.EnqueueUser(message.NewAnyOwnedMessage("one", nil))
	require.NoError(t, err)
	assert.Equal(t, actor.Enqueued, outcome1.Kind)

	outcome2, err := mb.EnqueueUser(message.NewAnyOwnedMessage("two", nil))
	require.NoError(t, err)
	assert.Equal(t, actor.Enqueued, outcome2.Kind)

	outcome3, err := mb.EnqueueUser(message.NewAnyOwnedMessage("three", nil))
	require.NoError(t, err)
	require.Equal(t, actor.Pending, outcome3.Kind)
	require.NotNil(t, outcome3.Future)

	_, done, _ := outcome3.Future.Poll()
	assert.False(t, done, "future must still be pending while the queue is full")

	first, ok := mb.PollUser()
	require.True(t, ok)
	assert.Equal(t, "one", first.Payload())

	_, err = outcome3.Future.Await(context.Background())
	require.NoError(t, err, "offer future completes once the first message is consumed")

	second, ok := mb.PollUser()
	require.True(t, ok)
	assert.Equal(t, "two", second.Payload())

	third, ok := mb.PollUser()
	require.True(t, ok)
	assert.Equal(t, "three", third.Payload())
}

func TestMailboxSuspendBlocksUserNotSystem(t *testing.T) {
	mb := actor.NewMailbox(actor.Pid{Index: 2, Incarnation: 1}, actor.DefaultMailboxConfig(), nil)
	_, err := mb.EnqueueUser(message.NewAnyOwnedMessage("user-msg", nil))
	require.NoError(t, err)
	require.NoError(t, mb.EnqueueSystem(message.NewAnyOwnedMessage("sys-msg", nil)))

	mb.Suspend()
	_, ok := mb.PollUser()
	assert.False(t, ok)

	sysMsg, ok := mb.PollSystem()
	require.True(t, ok)
	assert.Equal(t, "sys-msg", sysMsg.Payload())

	mb.Resume()
	userMsg, ok := mb.PollUser()
	require.True(t, ok)
	assert.Equal(t, "user-msg", userMsg.Payload())
}

func TestMailboxScheduleStateCoalescesReentrantRequests(t *testing.T) {
	mb := actor.NewMailbox(actor.Pid{Index: 3, Incarnation: 1}, actor.DefaultMailboxConfig(), nil)
	require.True(t, mb.RequestSchedule(), "first request performs the idle->running transition")
	assert.False(t, mb.RequestSchedule(), "a re-entrant request while running is coalesced")
	assert.False(t, mb.SetIdle(), "needs-reschedule forces another drain pass instead of going idle")
	assert.True(t, mb.SetIdle(), "second attempt goes idle once the bit is clear")
}
