package typed_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lguibr/bollywood/actor"
	"github.com/lguibr/bollywood/message"
	"github.com/lguibr/bollywood/typed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAutomaticSystem(t *testing.T) *actor.ActorSystem {
	t.Helper()
	cfg := actor.NewConfig(
		actor.WithDispatcher("default", actor.DispatcherConfig{Kind: actor.DispatcherInline}),
		actor.WithTickDriver(actor.TickDriverConfig{Kind: actor.TickDriverAutomatic, Resolution: time.Millisecond}),
	)
	sys, err := actor.New(cfg, actor.PropsOf(func() actor.Actor {
		return guardianStub{}
	}))
	require.NoError(t, err)
	return sys
}

type guardianStub struct{}

func (guardianStub) Receive(actor.ActorContext, message.AnyMessageView) error { return nil }

// --- Adapter failure (spec.md §8 scenario 6) ---

type domainMsg struct{}
type externalMsg struct{}

func TestAdapterFailureTransitionsToStopped(t *testing.T) {
	sys := newAutomaticSystem(t)

	adapterRefCh := make(chan typed.AdapterRef[externalMsg], 1)
	var mu sync.Mutex
	messageCalled := false
	signalCount := 0

	initial := typed.Setup(func(ctx typed.Context[domainMsg]) typed.Behavior[domainMsg] {
		ref := typed.MessageAdapter(ctx, func(externalMsg) (domainMsg, *typed.AdapterFailure) {
			return domainMsg{}, typed.NewAdapterFailure("x")
		})
		adapterRefCh <- ref

		base := typed.ReceiveMessage(func(ctx typed.Context[domainMsg], msg domainMsg) (typed.Behavior[domainMsg], error) {
			mu.Lock()
			messageCalled = true
			mu.Unlock()
			return typed.Same[domainMsg](), nil
		})
		return typed.ReceiveSignal(base, func(ctx typed.Context[domainMsg], sig typed.Signal) (typed.Behavior[domainMsg], error) {
			if sig.Kind == typed.SignalAdapterFailed {
				mu.Lock()
				signalCount++
				mu.Unlock()
				return typed.Stopped[domainMsg](), nil
			}
			return typed.Same[domainMsg](), nil
		})
	})

	var terminated sync.WaitGroup
	terminated.Add(1)
	sub := sys.Events().Subscribe(actor.SubscriberFunc(func(e actor.EventStreamEvent) {
		if le, ok := e.(actor.LifecycleEvent); ok && le.Kind == actor.LifecycleTerminated {
			terminated.Done()
		}
	}))
	defer sub.Cancel()

	_, err := sys.Spawn(actor.PropsOf(func() actor.Actor { return typed.New(initial) }))
	require.NoError(t, err)

	ref := <-adapterRefCh
	require.NoError(t, ref.Tell(externalMsg{}))

	done := make(chan struct{})
	go func() { terminated.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("actor never terminated after the adapter failure signal")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, messageCalled, "receive_message must never run: the adapter always fails")
	assert.Equal(t, 1, signalCount, "exactly one AdapterFailed signal is delivered")
}

// --- Typed ask timeout (spec.md §8 scenario 5) ---

type askRequest struct {
	ReplyTo actor.ActorRef
}

type askResponse struct {
	Value string
}

// delayedReplyActor replies well after a short ask timeout, so the test can
// assert the late reply lands on an already-stopped responder.
type delayedReplyActor struct {
	delay    time.Duration
	lateErrs chan error
}

func (a *delayedReplyActor) Receive(ctx actor.ActorContext, view message.AnyMessageView) error {
	req, ok := message.As[askRequest](view)
	if !ok {
		return nil
	}
	replyTo := req.ReplyTo
	go func() {
		time.Sleep(a.delay)
		a.lateErrs <- actor.Tell(replyTo, askResponse{Value: "late"}, nil)
	}()
	return nil
}

func TestTypedAskTimeout(t *testing.T) {
	sys := newAutomaticSystem(t)
	lateErrs := make(chan error, 1)
	aRef, err := sys.Spawn(actor.PropsOf(func() actor.Actor {
		return &delayedReplyActor{delay: 150 * time.Millisecond, lateErrs: lateErrs}
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, askErr := typed.Ask[askRequest, askResponse](ctx, sys.Spawn, aRef, func(replyTo actor.ActorRef) askRequest {
		return askRequest{ReplyTo: replyTo}
	}, 50*time.Millisecond)

	require.Error(t, askErr)
	typedErr, ok := askErr.(*typed.TypedAskError)
	require.True(t, ok)
	assert.Equal(t, typed.AskTimeout, typedErr.Kind)

	select {
	case lateErr := <-lateErrs:
		require.Error(t, lateErr, "the eventual reply must fail: the responder already stopped")
		sendErr, ok := lateErr.(*actor.SendError)
		require.True(t, ok)
		assert.Equal(t, actor.SendClosed, sendErr.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the late reply attempt")
	}
}
