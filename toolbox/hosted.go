package toolbox

import (
	"sync"
	"time"
)

// Hosted returns the toolbox backed by OS primitives: sync.Mutex,
// sync.RWMutex, a channel-based async mutex, and the wall clock. This is the
// toolbox every standard-library deployment of the runtime uses.
func Hosted() Toolbox {
	return Toolbox{
		NewMutex:      func() Mutex { return &hostedMutex{} },
		NewRWMutex:    func() RWMutex { return &hostedRWMutex{} },
		NewAsyncMutex: func() AsyncMutex { return newHostedAsyncMutex() },
		Clock:         hostedClock{},
		Delay:         hostedDelay{},
	}
}

type hostedMutex struct{ mu sync.Mutex }

func (m *hostedMutex) Lock()         { m.mu.Lock() }
func (m *hostedMutex) Unlock()       { m.mu.Unlock() }
func (m *hostedMutex) TryLock() bool { return m.mu.TryLock() }

type hostedRWMutex struct{ mu sync.RWMutex }

func (m *hostedRWMutex) Lock()    { m.mu.Lock() }
func (m *hostedRWMutex) Unlock()  { m.mu.Unlock() }
func (m *hostedRWMutex) RLock()   { m.mu.RLock() }
func (m *hostedRWMutex) RUnlock() { m.mu.RUnlock() }

// hostedAsyncMutex is a 1-buffered channel used as a non-blocking-acquire
// binary semaphore, the idiomatic Go stand-in for an async mutex.
type hostedAsyncMutex struct {
	ch chan struct{}
}

func newHostedAsyncMutex() *hostedAsyncMutex {
	m := &hostedAsyncMutex{ch: make(chan struct{}, 1)}
	m.ch <- struct{}{}
	return m
}

func (m *hostedAsyncMutex) Acquire() (release func()) {
	<-m.ch
	var once sync.Once
	return func() { once.Do(func() { m.ch <- struct{}{} }) }
}

func (m *hostedAsyncMutex) TryAcquire() (release func(), ok bool) {
	select {
	case <-m.ch:
		var once sync.Once
		return func() { once.Do(func() { m.ch <- struct{}{} }) }, true
	default:
		return nil, false
	}
}

type hostedClock struct{}

func (hostedClock) Now() time.Time { return time.Now() }

type hostedDelay struct{}

func (hostedDelay) After(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}
