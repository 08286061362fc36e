package queue

import "github.com/lguibr/bollywood/waitqueue"

// Unbounded is a growth-only FIFO: Offer never blocks or drops. It is a thin
// wrapper over Ring configured with the Grow policy and no capacity ceiling,
// matching spec.md §6's `unbounded` MailboxConfig policy.
type Unbounded[T any] struct {
	ring *Ring[T]
}

// NewUnbounded constructs an unbounded FIFO queue.
func NewUnbounded[T any]() *Unbounded[T] {
	return &Unbounded[T]{ring: NewRing[T](0, Grow)}
}

// Offer always succeeds for an unbounded queue (unless it has been closed).
func (u *Unbounded[T]) Offer(item T) (OfferOutcome, error) {
	return u.ring.Offer(item)
}

// Poll dequeues the oldest item, or returns Empty/Disconnected.
func (u *Unbounded[T]) Poll() (T, error) { return u.ring.Poll() }

// Len reports the number of items currently queued.
func (u *Unbounded[T]) Len() int { return u.ring.Len() }

// Close closes the underlying queue.
func (u *Unbounded[T]) Close() { u.ring.Close() }

// PollFuture registers a waiter for the next available item.
func (u *Unbounded[T]) PollFuture() (*waitqueue.WaitShared[T], error) {
	return u.ring.PollFuture()
}
