package actor_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lguibr/bollywood/actor"
	"github.com/lguibr/bollywood/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopActor backs every test's guardians: it owns children and never
// receives application traffic of its own.
type noopActor struct{}

func (noopActor) Receive(actor.ActorContext, message.AnyMessageView) error { return nil }

func newInlineSystem(t *testing.T) *actor.ActorSystem {
	t.Helper()
	cfg := actor.NewConfig(
		actor.WithDispatcher("default", actor.DispatcherConfig{Kind: actor.DispatcherInline, ThroughputLimit: 30}),
		actor.WithSystemName("test-system"),
	)
	sys, err := actor.New(cfg, actor.PropsOf(func() actor.Actor { return noopActor{} }))
	require.NoError(t, err)
	return sys
}

// pongActor records every string it receives, in order.
type pongActor struct {
	mu       sync.Mutex
	received []string
}

func (p *pongActor) Receive(ctx actor.ActorContext, view message.AnyMessageView) error {
	if s, ok := message.As[string](view); ok {
		p.mu.Lock()
		p.received = append(p.received, s)
		p.mu.Unlock()
	}
	return nil
}

func (p *pongActor) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.received))
	copy(out, p.received)
	return out
}

type startPing struct {
	Target actor.ActorRef
	Count  int
}

type pingActor struct{}

func (pingActor) Receive(ctx actor.ActorContext, view message.AnyMessageView) error {
	sp, ok := message.As[startPing](view)
	if !ok {
		return nil
	}
	for i := 1; i <= sp.Count; i++ {
		_ = actor.Tell(sp.Target, fmt.Sprintf("ping-%d", i), nil)
	}
	return nil
}

// Ping-pong count (spec.md §8 scenario 1).
func TestPingPongCount(t *testing.T) {
	sys := newInlineSystem(t)
	pong := &pongActor{}
	pongRef, err := sys.Spawn(actor.PropsOf(func() actor.Actor { return pong }))
	require.NoError(t, err)
	pingRef, err := sys.Spawn(actor.PropsOf(func() actor.Actor { return pingActor{} }))
	require.NoError(t, err)

	require.NoError(t, actor.Tell(pingRef, startPing{Target: pongRef, Count: 3}, nil))

	assert.Equal(t, []string{"ping-1", "ping-2", "ping-3"}, pong.snapshot())
}

// boomActor always fails its receive with a recoverable error, and counts
// how many times it has been (re)constructed via pre_start.
type boomActor struct {
	counters *boomCounters
}

type boomCounters struct {
	mu        sync.Mutex
	preStarts int
}

func (a *boomActor) PreStart(ctx actor.ActorContext) error {
	a.counters.mu.Lock()
	a.counters.preStarts++
	a.counters.mu.Unlock()
	return nil
}

func (a *boomActor) Receive(ctx actor.ActorContext, view message.AnyMessageView) error {
	return actor.NewRecoverableError("boom")
}

func (c *boomCounters) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preStarts
}

// Supervised restart (spec.md §8 scenario 3): max_restarts=2 within 1s,
// always-restart decider. The third recoverable failure exhausts the
// restart budget and the actor is stopped.
func TestSupervisedRestartExhaustsBudget(t *testing.T) {
	sys := newInlineSystem(t)
	counters := &boomCounters{}

	terminated := &flagBox{}
	sub := sys.Events().Subscribe(actor.SubscriberFunc(func(e actor.EventStreamEvent) {
		if le, ok := e.(actor.LifecycleEvent); ok && le.Kind == actor.LifecycleTerminated {
			terminated.set()
		}
	}))
	defer sub.Cancel()

	props := actor.PropsOf(func() actor.Actor { return &boomActor{counters: counters} }).
		WithSupervisor(actor.SupervisorStrategy{
			Kind:        actor.OneForOne,
			MaxRestarts: 2,
			Within:      time.Second,
			Decider:     actor.RestartDecider,
		})
	ref, err := sys.Spawn(props)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, actor.Tell(ref, "go", nil))
	}

	assert.Equal(t, 3, counters.count(), "pre_start runs once per original start plus once per restart")
	assert.True(t, terminated.isSet(), "the third failure exhausts the restart budget and stops the actor")
}

// flagBox is a tiny test-local mutex-guarded flag, set from the event
// subscriber's own goroutine and read back from the test goroutine.
type flagBox struct {
	mu  sync.Mutex
	val bool
}

func (f *flagBox) set()        { f.mu.Lock(); f.val = true; f.mu.Unlock() }
func (f *flagBox) isSet() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.val }
