// Package actor implements the mailbox, dispatcher, actor cell/context,
// supervision, event stream, and top-level system that together form the
// untyped actor-runtime core.
package actor

import (
	"fmt"
	"sync/atomic"
)

// Pid is a stable actor identifier within a system: an index into the
// system's cell table plus an incarnation counter. Indexes are allocated
// monotonically and never reused, every cell is created with Incarnation 1,
// and a restart keeps the same Pid: the incarnation is not bumped. A lookup
// whose incarnation differs from the registered cell's fails.
type Pid struct {
	Index       uint32
	Incarnation uint32
}

// String renders a Pid for logging; it is not a path and carries no
// hierarchy information.
func (p Pid) String() string {
	return fmt.Sprintf("pid(%d#%d)", p.Index, p.Incarnation)
}

// pidAllocator mints fresh, monotonically increasing indexes for one
// ActorSystem. Grounded on the teacher's `Engine.nextPID`
// (atomic.AddUint64-based counter); generalized to a 32-bit index since Pid
// pairs it with a separate incarnation rather than baking both into one
// string.
type pidAllocator struct {
	next atomic.Uint32
}

func (a *pidAllocator) allocate() uint32 {
	return a.next.Add(1)
}
