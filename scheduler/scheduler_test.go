package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/lguibr/bollywood/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWheelOneShotFiresAtDeadline(t *testing.T) {
	w := scheduler.NewWheel(nil)
	fired := 0
	_, err := w.ScheduleOnce(5, func() { fired++ })
	require.NoError(t, err)

	assert.Empty(t, w.Advance(4))
	got := w.Advance(1)
	require.Len(t, got, 1)
	got[0].Runnable()
	w.CompleteFiring(got[0])
	assert.Equal(t, 1, fired)
	assert.Equal(t, scheduler.Completed, got[0].State())
}

func TestWheelCancelBeforeFireNeverFires(t *testing.T) {
	w := scheduler.NewWheel(nil)
	fired := false
	id, err := w.ScheduleOnce(5, func() { fired = true })
	require.NoError(t, err)

	assert.True(t, w.Cancel(id))
	got := w.Advance(10)
	assert.Empty(t, got)
	assert.False(t, fired)
}

func TestWheelFixedDelayRearmsFromCompletion(t *testing.T) {
	w := scheduler.NewWheel(nil)
	var deadlines []int64
	id, err := w.ScheduleFixedDelay(2, 3, func() {})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		entries := w.Advance(3)
		for _, e := range entries {
			deadlines = append(deadlines, w.CurrentTick())
			e.Runnable()
			w.CompleteFiring(e)
		}
	}
	w.Cancel(id)
	require.Len(t, deadlines, 3)
	// Each fire is exactly `period` ticks after the previous one completed.
	assert.Equal(t, deadlines[1]-deadlines[0], int64(3))
	assert.Equal(t, deadlines[2]-deadlines[1], int64(3))
}

func TestWheelFixedRateCatchesUpPastBurstThreshold(t *testing.T) {
	w := scheduler.NewWheel(nil)
	_, err := w.ScheduleFixedRate(10, 10, 5, 2, func() {})
	require.NoError(t, err)

	fired := w.Advance(10)
	require.Len(t, fired, 1)
	entry := fired[0]
	entry.Runnable()

	// Stall: advance far past the next deadline (tick 20) before the
	// executing side gets around to completing the firing, simulating a
	// slow runnable or a delayed executor.
	w.Advance(35) // currentTick now 45; missed = (45-20)/10+1 = 3 > burst(2), <= backlog(5)
	w.CompleteFiring(entry)

	events, _ := w.Diagnostics().Dump()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, scheduler.CaughtUp, last.Kind)
	assert.Equal(t, int64(3), last.Missed)
}

func TestWheelFixedRateExceedsBacklogAndCancels(t *testing.T) {
	w := scheduler.NewWheel(nil)
	id, err := w.ScheduleFixedRate(10, 10, 5, 2, func() {})
	require.NoError(t, err)

	fired := w.Advance(10)
	require.Len(t, fired, 1)
	entry := fired[0]
	entry.Runnable()

	w.Advance(60) // currentTick now 70; missed = (70-20)/10+1 = 6 > backlogLimit(5)
	w.CompleteFiring(entry)

	assert.Equal(t, scheduler.Cancelled, entry.State())
	assert.False(t, w.Cancel(id), "entry should already be retired from the handle table")

	events, _ := w.Diagnostics().Dump()
	last := events[len(events)-1]
	assert.Equal(t, scheduler.BacklogExceeded, last.Kind)
	assert.Equal(t, int64(6), last.Missed)
}

func TestDiagnosticsDumpTracksOverflow(t *testing.T) {
	d := scheduler.NewDiagnostics(4)
	for i := 0; i < 10; i++ {
		d.Record(scheduler.DiagnosticEvent{Kind: scheduler.Fired, Tick: int64(i)})
	}
	events, overflow := d.Dump()
	assert.Len(t, events, 4)
	assert.Equal(t, 6, overflow)
	assert.Equal(t, int64(9), events[len(events)-1].Tick)
}

func TestSchedulerDelayAwaitsViaManualDriver(t *testing.T) {
	driver := scheduler.NewManualDriver(time.Millisecond)
	s := scheduler.New(nil, driver)
	s.Start()
	defer s.Stop()

	fut, err := s.Delay(5 * time.Millisecond)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- fut.Await(context.Background())
	}()

	driver.Advance(4)
	select {
	case <-done:
		t.Fatal("delay fired before its deadline")
	case <-time.After(10 * time.Millisecond):
	}

	driver.Advance(1)
	require.NoError(t, <-done)
}

func TestSchedulerFixedRateRunsViaManualDriver(t *testing.T) {
	driver := scheduler.NewManualDriver(time.Millisecond)
	s := scheduler.New(nil, driver)
	s.Start()
	defer s.Stop()

	count := 0
	_, err := s.ScheduleFixedRate(2*time.Millisecond, 2*time.Millisecond, 5, 2, func() { count++ })
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		driver.Advance(1)
	}
	assert.Equal(t, 3, count)
}

func TestOverflowPoolPromotesEntryIntoWheel(t *testing.T) {
	w := scheduler.NewWheel([]int{4, 4}) // total representable range = 16 ticks
	fired := false
	_, err := w.ScheduleOnce(20, func() { fired = true }) // beyond range -> overflow pool
	require.NoError(t, err)

	got := w.Advance(19)
	assert.Empty(t, got)
	got = w.Advance(1)
	require.Len(t, got, 1)
	got[0].Runnable()
	assert.True(t, fired)
}
