package queue

import (
	"sync"

	"github.com/lguibr/bollywood/waitqueue"
)

// Ring is a ring-buffer-backed FIFO queue with a configurable capacity and
// OverflowPolicy. A capacity of 0 means unbounded (Grow is then implicit and
// OverflowPolicy is ignored on the producer side).
type Ring[T any] struct {
	mu       sync.Mutex
	buf      []T
	head     int
	size     int
	capacity int // 0 == unbounded
	policy   OverflowPolicy
	closed   bool

	offerWaiters *waitqueue.WaitQueue[struct{}]
	pollWaiters  *waitqueue.WaitQueue[T]
}

// NewRing constructs a bounded ring queue. capacity == 0 means unbounded.
func NewRing[T any](capacity int, policy OverflowPolicy) *Ring[T] {
	initial := capacity
	if initial <= 0 || initial > 64 {
		initial = 16
	}
	return &Ring[T]{
		buf:          make([]T, initial),
		capacity:     capacity,
		policy:       policy,
		offerWaiters: waitqueue.New[struct{}](),
		pollWaiters:  waitqueue.New[T](),
	}
}

func (r *Ring[T]) isFullLocked() bool {
	return r.capacity > 0 && r.size >= r.capacity
}

func (r *Ring[T]) pushLocked(item T) {
	if r.size == len(r.buf) {
		r.growBufferLocked()
	}
	idx := (r.head + r.size) % len(r.buf)
	r.buf[idx] = item
	r.size++
}

func (r *Ring[T]) growBufferLocked() {
	newBuf := make([]T, len(r.buf)*2)
	for i := 0; i < r.size; i++ {
		newBuf[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.buf = newBuf
	r.head = 0
}

func (r *Ring[T]) popFrontLocked() T {
	item := r.buf[r.head]
	var zero T
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.size--
	return item
}

// Offer enqueues item, applying the configured OverflowPolicy if the queue
// is at capacity.
func (r *Ring[T]) Offer(item T) (OfferOutcome, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return OfferOutcome{}, closedErr(item)
	}
	if !r.isFullLocked() {
		r.pushLocked(item)
		grew := OfferOutcome{Kind: Enqueued}
		r.mu.Unlock()
		r.pollWaiters.NotifySuccess(item)
		return grew, nil
	}

	switch r.policy {
	case Block:
		r.mu.Unlock()
		return OfferOutcome{}, fullErr(item)
	case Grow:
		if r.capacity > 0 {
			r.capacity *= 2
		}
		r.pushLocked(item)
		r.mu.Unlock()
		r.pollWaiters.NotifySuccess(item)
		return OfferOutcome{Kind: GrewTo, Capacity: r.capacity}, nil
	case DropOldest:
		r.popFrontLocked()
		r.pushLocked(item)
		r.mu.Unlock()
		r.pollWaiters.NotifySuccess(item)
		return OfferOutcome{Kind: DroppedOldest, Dropped: 1}, nil
	case DropNewest:
		// Evict the item currently at the back, then enqueue the new one.
		r.size--
		r.pushLocked(item)
		r.mu.Unlock()
		r.pollWaiters.NotifySuccess(item)
		return OfferOutcome{Kind: DroppedNewest, Dropped: 1}, nil
	default:
		r.mu.Unlock()
		return OfferOutcome{}, fullErr(item)
	}
}

// Poll dequeues the oldest item, or returns Empty/Disconnected.
func (r *Ring[T]) Poll() (T, error) {
	r.mu.Lock()
	var zero T
	if r.size == 0 {
		closed := r.closed
		r.mu.Unlock()
		if closed {
			return zero, disconnectedErr[T]()
		}
		return zero, emptyErr[T]()
	}
	item := r.popFrontLocked()
	r.mu.Unlock()
	r.offerWaiters.NotifySuccess(struct{}{})
	return item, nil
}

// Len reports the number of items currently queued.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Cap reports the configured capacity (0 == unbounded).
func (r *Ring[T]) Cap() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacity
}

// Close marks the queue closed: further Offers fail with Closed, pending
// data may still be drained via Poll until exhausted (then Disconnected),
// and every registered offer/poll waiter is completed with Disconnected.
func (r *Ring[T]) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.offerWaiters.NotifyErrorAll(disconnectedErr[struct{}]())
	r.pollWaiters.NotifyErrorAll(disconnectedErr[T]())
}

// OfferFuture registers a waiter that completes once capacity is available
// (or the queue closes), for blocking-policy callers that got Full back from
// Offer and want to await space rather than poll it themselves.
func (r *Ring[T]) OfferFuture() (*waitqueue.WaitShared[struct{}], error) {
	return r.offerWaiters.Register()
}

// PollFuture registers a waiter that completes once an item is available
// (or the queue closes), for consumers that got Empty back from Poll.
func (r *Ring[T]) PollFuture() (*waitqueue.WaitShared[T], error) {
	return r.pollWaiters.Register()
}
