package waitqueue

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Register when the queue has been closed.
var ErrClosed = errors.New("waitqueue: closed")

// WaitQueue is a FIFO of shared waiter nodes. It is the building block every
// blocking primitive (bounded queue offer/poll, mailbox backpressure, delay
// futures) registers against.
type WaitQueue[T any] struct {
	mu     sync.Mutex
	nodes  []*WaiterNode[T]
	closed bool
}

// New returns an empty, open wait queue.
func New[T any]() *WaitQueue[T] {
	return &WaitQueue[T]{}
}

// Register appends a fresh waiter node and returns a WaitShared future
// wrapping it. Fails with ErrClosed if the queue has been closed.
func (q *WaitQueue[T]) Register() (*WaitShared[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrClosed
	}
	node := NewWaiterNode[T]()
	q.nodes = append(q.nodes, node)
	return newWaitShared(q, node), nil
}

// NotifySuccess pops the oldest still-Pending node (skipping any that were
// already Cancelled) and completes it with result. Returns whether any node
// was notified.
func (q *WaitQueue[T]) NotifySuccess(result T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.nodes) > 0 {
		node := q.nodes[0]
		q.nodes = q.nodes[1:]
		if node.Complete(result) {
			return true
		}
		// already cancelled: keep popping
	}
	return false
}

// NotifyErrorAll drains every node in the queue and completes each with err.
func (q *WaitQueue[T]) NotifyErrorAll(err error) {
	q.mu.Lock()
	nodes := q.nodes
	q.nodes = nil
	q.mu.Unlock()
	for _, node := range nodes {
		node.CompleteError(err)
	}
}

// Close marks the queue closed (further Register calls fail) and completes
// every currently-registered node with err.
func (q *WaitQueue[T]) Close(err error) {
	q.mu.Lock()
	q.closed = true
	nodes := q.nodes
	q.nodes = nil
	q.mu.Unlock()
	for _, node := range nodes {
		node.CompleteError(err)
	}
}

// Len reports the number of nodes still registered (Pending or not yet
// pruned). Intended for diagnostics, not for control flow.
func (q *WaitQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.nodes)
}

// remove drops a node from the queue's backing slice; called when a
// WaitShared is cancelled so the queue doesn't keep scanning dead nodes
// forever.
func (q *WaitQueue[T]) remove(target *WaiterNode[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, node := range q.nodes {
		if node == target {
			q.nodes = append(q.nodes[:i], q.nodes[i+1:]...)
			return
		}
	}
}
