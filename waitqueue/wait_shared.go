package waitqueue

import (
	"context"
	"errors"
)

// ErrCancelled is the error observed by a caller awaiting a WaitShared whose
// node was cancelled (directly, or via Close/NotifyErrorAll racing a
// cancellation).
var ErrCancelled = errors.New("waitqueue: cancelled")

// WaitShared is the future returned by WaitQueue.Register. Go has no
// destructors, so unlike the Rust original a dropped WaitShared does not
// auto-cancel its node; callers that abandon a WaitShared without awaiting
// it must call Cancel explicitly (typically via defer) to release it.
type WaitShared[T any] struct {
	queue *WaitQueue[T]
	node  *WaiterNode[T]
}

func newWaitShared[T any](q *WaitQueue[T], node *WaiterNode[T]) *WaitShared[T] {
	return &WaitShared[T]{queue: q, node: node}
}

// Cancel cancels the underlying node. Safe to call multiple times and safe
// to call after the node has already completed (it is then a no-op).
func (w *WaitShared[T]) Cancel() {
	w.node.Cancel()
	w.queue.remove(w.node)
}

// Poll returns (result, true, nil) if the node has completed successfully,
// (zero, true, err) if it completed with an error or was cancelled, and done
// == false with a nil error if it is still Pending.
func (w *WaitShared[T]) Poll() (result T, done bool, err error) {
	switch w.node.State() {
	case Completed:
		result, err = w.node.Result()
		return result, true, err
	case Cancelled:
		return result, true, ErrCancelled
	default:
		return result, false, nil
	}
}

// Await blocks (without spinning — it parks on a channel signalled by the
// node's waker) until the node completes, is cancelled, or ctx is done.
func (w *WaitShared[T]) Await(ctx context.Context) (T, error) {
	if result, done, err := w.Poll(); done {
		return result, err
	}
	signal := make(chan struct{}, 1)
	w.node.SetWaker(func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	})
	// Re-check after installing the waker: the node may have completed
	// between the first Poll and SetWaker.
	if result, done, err := w.Poll(); done {
		return result, err
	}
	select {
	case <-signal:
		result, _, err := w.Poll()
		return result, err
	case <-ctx.Done():
		w.Cancel()
		var zero T
		return zero, ctx.Err()
	}
}
