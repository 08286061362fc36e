package typed

import "github.com/lguibr/bollywood/queue"

// Stash is a bounded buffer a behavior can push messages into while it
// isn't ready to handle them, then replay once it is — spec.md §4.8's
// `.with_stash(capacity, builder)`.
type Stash[M any] struct {
	buffer *queue.Deque[M]
}

func newStash[M any](capacity int) *Stash[M] {
	return &Stash[M]{buffer: queue.NewDeque[M](capacity)}
}

// Buffer appends msg to the stash. Returns false if the stash is at
// capacity; the caller decides whether that's a failure worth surfacing.
func (s *Stash[M]) Buffer(msg M) bool {
	return s.buffer.PushBack(msg)
}

// Len reports how many messages are currently stashed.
func (s *Stash[M]) Len() int { return s.buffer.Len() }

// UnstashAll drains every stashed message in FIFO order, running each
// through handler to compute the next behavior. It stops at the first
// handler error or non-active-keeping transition, leaving any remaining
// messages stashed for a later UnstashAll call.
func (s *Stash[M]) UnstashAll(ctx Context[M], current Behavior[M], handler MessageHandler[M]) (Behavior[M], error) {
	next := current
	for {
		msg, ok := s.buffer.PopFront()
		if !ok {
			return next, nil
		}
		result, err := handler(ctx, msg)
		if err != nil {
			return next, err
		}
		switch result.kind {
		case same, ignore:
			// keep running with `next` as-is
		default:
			return result, nil
		}
	}
}
