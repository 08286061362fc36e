package waitqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/lguibr/bollywood/waitqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifySuccessFIFO(t *testing.T) {
	q := waitqueue.New[int]()
	w1, err := q.Register()
	require.NoError(t, err)
	w2, err := q.Register()
	require.NoError(t, err)

	assert.True(t, q.NotifySuccess(1))
	assert.True(t, q.NotifySuccess(2))

	r1, _, _ := w1.Poll()
	r2, _, _ := w2.Poll()
	assert.Equal(t, 1, r1)
	assert.Equal(t, 2, r2)
}

func TestNotifySuccessSkipsCancelled(t *testing.T) {
	q := waitqueue.New[int]()
	w1, _ := q.Register()
	w2, _ := q.Register()
	w1.Cancel()

	assert.True(t, q.NotifySuccess(42))
	_, done2, err2 := w2.Poll()
	require.True(t, done2)
	require.NoError(t, err2)
}

func TestNotifySuccessFalseWhenEmpty(t *testing.T) {
	q := waitqueue.New[int]()
	assert.False(t, q.NotifySuccess(1))
}

func TestNotifyErrorAllDrains(t *testing.T) {
	q := waitqueue.New[int]()
	w1, _ := q.Register()
	w2, _ := q.Register()
	myErr := assert.AnError
	q.NotifyErrorAll(myErr)

	_, done1, err1 := w1.Poll()
	_, done2, err2 := w2.Poll()
	assert.True(t, done1)
	assert.Equal(t, myErr, err1)
	assert.True(t, done2)
	assert.Equal(t, myErr, err2)
	assert.Equal(t, 0, q.Len())
}

func TestCloseRejectsFurtherRegistration(t *testing.T) {
	q := waitqueue.New[int]()
	q.Close(waitqueue.ErrClosed)
	_, err := q.Register()
	assert.ErrorIs(t, err, waitqueue.ErrClosed)
}

func TestCancelIdempotent(t *testing.T) {
	q := waitqueue.New[int]()
	w, _ := q.Register()
	w.Cancel()
	w.Cancel() // second call must be a safe no-op
	_, done, err := w.Poll()
	assert.True(t, done)
	assert.ErrorIs(t, err, waitqueue.ErrCancelled)
}

func TestAwaitBlocksThenCompletes(t *testing.T) {
	q := waitqueue.New[string]()
	w, _ := q.Register()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.NotifySuccess("hello")
	}()

	result, err := w.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestAwaitContextCancelled(t *testing.T) {
	q := waitqueue.New[string]()
	w, _ := q.Register()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := w.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, done, perr := w.Poll()
	assert.True(t, done)
	assert.ErrorIs(t, perr, waitqueue.ErrCancelled)
}
