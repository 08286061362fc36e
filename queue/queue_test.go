package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/lguibr/bollywood/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingFIFOOrder(t *testing.T) {
	r := queue.NewRing[int](4, queue.Block)
	for i := 1; i <= 4; i++ {
		outcome, err := r.Offer(i)
		require.NoError(t, err)
		assert.Equal(t, queue.Enqueued, outcome.Kind)
	}
	for i := 1; i <= 4; i++ {
		v, err := r.Poll()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	_, err := r.Poll()
	var qerr *queue.Error[int]
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, queue.KindEmpty, qerr.Kind)
}

func TestRingBlockPolicyRejectsWhenFull(t *testing.T) {
	r := queue.NewRing[string](2, queue.Block)
	_, err := r.Offer("a")
	require.NoError(t, err)
	_, err = r.Offer("b")
	require.NoError(t, err)

	_, err = r.Offer("c")
	var qerr *queue.Error[string]
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, queue.KindFull, qerr.Kind)
	item, ok := qerr.Item()
	assert.True(t, ok)
	assert.Equal(t, "c", item)
}

func TestRingDropOldestPolicy(t *testing.T) {
	r := queue.NewRing[int](2, queue.DropOldest)
	r.Offer(1)
	r.Offer(2)
	outcome, err := r.Offer(3)
	require.NoError(t, err)
	assert.Equal(t, queue.DroppedOldest, outcome.Kind)
	assert.Equal(t, 1, outcome.Dropped)

	v1, _ := r.Poll()
	v2, _ := r.Poll()
	assert.Equal(t, 2, v1)
	assert.Equal(t, 3, v2)
}

func TestRingDropNewestPolicy(t *testing.T) {
	r := queue.NewRing[int](2, queue.DropNewest)
	r.Offer(1)
	r.Offer(2)
	outcome, err := r.Offer(3)
	require.NoError(t, err)
	assert.Equal(t, queue.DroppedNewest, outcome.Kind)

	v1, _ := r.Poll()
	v2, _ := r.Poll()
	assert.Equal(t, 1, v1)
	assert.Equal(t, 3, v2)
}

func TestRingGrowPolicy(t *testing.T) {
	r := queue.NewRing[int](2, queue.Grow)
	r.Offer(1)
	r.Offer(2)
	outcome, err := r.Offer(3)
	require.NoError(t, err)
	assert.Equal(t, queue.GrewTo, outcome.Kind)
	assert.Equal(t, 4, outcome.Capacity)
	assert.Equal(t, 3, r.Len())
}

func TestRingOfferFutureCompletesOnSpace(t *testing.T) {
	r := queue.NewRing[int](1, queue.Block)
	_, err := r.Offer(1)
	require.NoError(t, err)

	_, err = r.Offer(2)
	require.Error(t, err)

	fut, err := r.OfferFuture()
	require.NoError(t, err)

	go func() {
		time.Sleep(5 * time.Millisecond)
		r.Poll()
	}()

	_, err = fut.Await(context.Background())
	require.NoError(t, err)
}

func TestRingCloseCompletesWaiters(t *testing.T) {
	r := queue.NewRing[int](1, queue.Block)
	pollFut, err := r.PollFuture()
	require.NoError(t, err)

	r.Close()

	_, err = pollFut.Await(context.Background())
	var qerr *queue.Error[int]
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, queue.KindDisconnected, qerr.Kind)

	_, err = r.Offer(1)
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, queue.KindClosed, qerr.Kind)
}

func TestDequeFIFOAndLIFO(t *testing.T) {
	d := queue.NewDeque[int](0)
	d.PushBack(1)
	d.PushBack(2)
	d.PushFront(0)

	v, ok := d.PopFront()
	require.True(t, ok)
	assert.Equal(t, 0, v)

	v, ok = d.PopBack()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	assert.Equal(t, 1, d.Len())
}

func TestDequeCapacityEnforced(t *testing.T) {
	d := queue.NewDeque[int](1)
	assert.True(t, d.PushBack(1))
	assert.False(t, d.PushBack(2))
}

func TestPriorityOrdersByPriorityThenSequence(t *testing.T) {
	p := queue.NewPriority[string]()
	p.Push("b", 10)
	p.Push("a", 5)
	p.Push("c", 10)

	first, ok := p.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", first.Value)

	second, ok := p.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", second.Value) // inserted before c at same priority

	third, ok := p.Pop()
	require.True(t, ok)
	assert.Equal(t, "c", third.Value)
}

func TestPriorityPopBefore(t *testing.T) {
	p := queue.NewPriority[int]()
	p.Push(100, 100)
	p.Push(10, 10)
	p.Push(50, 50)

	ready := p.PopBefore(50)
	require.Len(t, ready, 2)
	assert.Equal(t, 10, ready[0].Value)
	assert.Equal(t, 50, ready[1].Value)
	assert.Equal(t, 1, p.Len())
}

func TestUnboundedNeverBlocks(t *testing.T) {
	u := queue.NewUnbounded[int]()
	for i := 0; i < 1000; i++ {
		_, err := u.Offer(i)
		require.NoError(t, err)
	}
	assert.Equal(t, 1000, u.Len())
}
