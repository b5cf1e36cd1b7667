// File: threads/threads.go
// Package threads adapts spec.md's "Thread Primitives" collaborator
// (spawn/join/sleep-with-wakeup/pollfd) onto goroutines.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on momentics-hioload-ws/core/concurrency/eventloop.go's
// quit/notify channel pattern: a background loop that either processes
// work or blocks on a timer race against a wake channel.

package threads

import (
	"sync"
	"time"
)

// Handle identifies a spawned goroutine and lets its owner wake or join it.
type Handle struct {
	wake chan struct{}
	done chan struct{}
}

// Spawn runs fn in a new goroutine, passing it a WakeSleeper it can use to
// sleep in a wake-interruptible way, and returns a Handle the caller uses
// to wake it early and to Join on exit.
func Spawn(fn func(ws *WakeSleeper)) *Handle {
	h := &Handle{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	ws := &WakeSleeper{wake: h.wake}
	go func() {
		defer close(h.done)
		fn(ws)
	}()
	return h
}

// Wakeup interrupts the spawned goroutine's current or next Sleep call.
// Non-blocking: if a wakeup is already pending, this is a no-op.
func (h *Handle) Wakeup() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Join blocks until the spawned goroutine returns.
func (h *Handle) Join() {
	<-h.done
}

// WakeSleeper lets a spawned goroutine sleep in a way that an owning
// Handle.Wakeup call can interrupt early.
type WakeSleeper struct {
	wake chan struct{}
}

// SleepForever blocks until Wakeup is called.
func (ws *WakeSleeper) SleepForever() {
	<-ws.wake
}

// Sleep blocks for d, or until Wakeup is called, whichever comes first.
// Returns true if it was woken early.
func (ws *WakeSleeper) Sleep(d time.Duration) (woken bool) {
	if d <= 0 {
		select {
		case <-ws.wake:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ws.wake:
		return true
	case <-timer.C:
		return false
	}
}

// Drain consumes a pending wakeup without sleeping, so a subsequent Sleep
// call isn't woken by a stale signal. Callers that check a condition
// themselves before sleeping should call this first.
func (ws *WakeSleeper) Drain() {
	select {
	case <-ws.wake:
	default:
	}
}

// Once runs fn exactly once, guarded by a sync.Once.
type Once struct {
	o sync.Once
}

// Do runs fn if it has not already run for this Once.
func (o *Once) Do(fn func()) {
	o.o.Do(fn)
}
