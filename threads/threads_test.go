package threads_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kienpl96/kannel/threads"
)

func TestSleepTimesOutWithoutWakeup(t *testing.T) {
	h := threads.Spawn(func(ws *threads.WakeSleeper) {
		woken := ws.Sleep(20 * time.Millisecond)
		require.False(t, woken)
	})
	h.Join()
}

func TestWakeupInterruptsSleep(t *testing.T) {
	started := make(chan struct{})
	woke := make(chan bool, 1)
	h := threads.Spawn(func(ws *threads.WakeSleeper) {
		close(started)
		woke <- ws.Sleep(time.Hour)
	})
	<-started
	time.Sleep(10 * time.Millisecond)
	h.Wakeup()
	h.Join()
	require.True(t, <-woke)
}

func TestSleepForeverBlocksUntilWakeup(t *testing.T) {
	done := make(chan struct{})
	h := threads.Spawn(func(ws *threads.WakeSleeper) {
		ws.SleepForever()
		close(done)
	})
	select {
	case <-done:
		t.Fatal("SleepForever returned before Wakeup")
	case <-time.After(20 * time.Millisecond):
	}
	h.Wakeup()
	h.Join()
}
