package toolbox_test

import (
	"testing"
	"time"

	"github.com/lguibr/bollywood/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostedMutexExcludes(t *testing.T) {
	tb := toolbox.Hosted()
	mu := tb.NewMutex()
	assert.True(t, mu.TryLock())
	assert.False(t, mu.TryLock())
	mu.Unlock()
	assert.True(t, mu.TryLock())
}

func TestSpinMutexExcludes(t *testing.T) {
	tb := toolbox.Spin()
	mu := tb.NewMutex()
	assert.True(t, mu.TryLock())
	assert.False(t, mu.TryLock())
	mu.Unlock()
	assert.True(t, mu.TryLock())
}

func testAsyncMutex(t *testing.T, tb toolbox.Toolbox) {
	t.Helper()
	m := tb.NewAsyncMutex()
	release, ok := m.TryAcquire()
	require.True(t, ok)
	_, ok = m.TryAcquire()
	require.False(t, ok)
	release()
	release2, ok := m.TryAcquire()
	require.True(t, ok)
	release2()
}

func TestHostedAsyncMutex(t *testing.T) { testAsyncMutex(t, toolbox.Hosted()) }
func TestSpinAsyncMutex(t *testing.T)   { testAsyncMutex(t, toolbox.Spin()) }

func testDelay(t *testing.T, tb toolbox.Toolbox) {
	t.Helper()
	start := tb.Clock.Now()
	c, stop := tb.Delay.After(10 * time.Millisecond)
	defer stop()
	fired := <-c
	assert.False(t, fired.Before(start))
}

func TestHostedDelay(t *testing.T) { testDelay(t, toolbox.Hosted()) }
func TestSpinDelay(t *testing.T)   { testDelay(t, toolbox.Spin()) }

func TestSpinDelayStopPreventsFire(t *testing.T) {
	tb := toolbox.Spin()
	c, stop := tb.Delay.After(50 * time.Millisecond)
	ok := stop()
	assert.True(t, ok)
	select {
	case <-c:
		t.Fatal("delay fired after stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRWMutexReadersConcurrent(t *testing.T) {
	for _, tb := range []toolbox.Toolbox{toolbox.Hosted(), toolbox.Spin()} {
		rw := tb.NewRWMutex()
		rw.RLock()
		rw.RLock()
		rw.RUnlock()
		rw.RUnlock()
		rw.Lock()
		rw.Unlock()
	}
}
