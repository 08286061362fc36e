package queue_test

import (
	"testing"

	"github.com/lguibr/bollywood/queue"
	"pgregory.net/rapid"
)

// TestRingFIFOProperty checks spec.md §8's "FIFO within queue" invariant:
// for a single-producer queue with no overflow drops, Poll returns items in
// the order they were successfully Offered.
func TestRingFIFOProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(8, 64).Draw(rt, "capacity")
		r := queue.NewRing[int](capacity, queue.Block)

		var offered []int
		numOps := rapid.IntRange(0, 200).Draw(rt, "numOps")
		for i := 0; i < numOps; i++ {
			if rapid.Bool().Draw(rt, "offerOrPoll") && len(offered) < capacity {
				v := rapid.Int().Draw(rt, "value")
				_, err := r.Offer(v)
				if err == nil {
					offered = append(offered, v)
				}
			} else if len(offered) > 0 {
				got, err := r.Poll()
				if err == nil {
					if got != offered[0] {
						rt.Fatalf("FIFO violated: expected %d, got %d", offered[0], got)
					}
					offered = offered[1:]
				}
			}
		}

		// Drain the rest and confirm order holds to the end.
		for len(offered) > 0 {
			got, err := r.Poll()
			if err != nil {
				rt.Fatalf("expected more items, got error %v", err)
			}
			if got != offered[0] {
				rt.Fatalf("FIFO violated on drain: expected %d, got %d", offered[0], got)
			}
			offered = offered[1:]
		}
	})
}

// TestPriorityNonDecreasingPop checks that Pop always yields items in
// non-decreasing priority order, with ties broken by insertion sequence —
// the ordering the scheduler's overflow pool and ready-list depend on.
func TestPriorityNonDecreasingPop(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := queue.NewPriority[int]()
		n := rapid.IntRange(0, 100).Draw(rt, "n")
		for i := 0; i < n; i++ {
			pr := rapid.Int64Range(0, 1000).Draw(rt, "priority")
			p.Push(i, pr)
		}

		last := int64(-1)
		for {
			item, ok := p.Pop()
			if !ok {
				break
			}
			if item.Priority < last {
				rt.Fatalf("priority decreased: %d after %d", item.Priority, last)
			}
			last = item.Priority
		}
	})
}
