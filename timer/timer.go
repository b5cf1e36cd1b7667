// File: timer/timer.go
// Package timer implements spec.md's Timer Set: a min-heap of pending
// timers served by a background goroutine that produces expiry events onto
// a queue.EventQueue.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded line for line on gw/timers.c (Timerset/Timer, timerset_create/
// destroy, timer_create/destroy/start/stop, watch_timers, abort_elapsed).
// The mutex+wake-channel worker shape is grounded on
// momentics-hioload-ws/internal/concurrency/scheduler.go and
// core/concurrency/eventloop.go.

package timer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kienpl96/kannel/api"
	"github.com/kienpl96/kannel/queue"
	"github.com/kienpl96/kannel/threads"
)

// Set is a collection of timers served by one background worker goroutine,
// all producing onto the same output queue.
type Set struct {
	stopping atomic.Bool

	mu   sync.Mutex
	heap timerHeap

	out     *queue.EventQueue
	clone   api.Cloner
	destroy api.Destroyer

	worker *threads.Handle
}

// Timer is a single scheduled wake-up owned by a Set.
type Timer struct {
	owner *Set

	active    bool
	elapsesAt time.Time
	slot      int // index in owner.heap, or -1 if not active

	template api.Event
	inFlight api.Event // non-nil while a duplicate is (or may be) queued
}

// NewSet creates a Timerset bound to out, spawns its worker goroutine, and
// returns it. clone duplicates a template event for each firing; destroy
// (which may be nil for events needing no explicit release, e.g. plain Go
// values) releases a template or in-flight event that will never be used
// again.
func NewSet(out *queue.EventQueue, clone api.Cloner, destroy api.Destroyer) *Set {
	out.AddProducer()
	s := &Set{out: out, clone: clone, destroy: destroy}
	s.worker = threads.Spawn(s.watch)
	return s
}

// Close stops every active timer, joins the worker goroutine, and releases
// the set's producer reservation on the output queue. Individual Timer
// handles are not freed; the caller must have destroyed or abandoned them
// first. Close is safe to call on a nil *Set.
func (s *Set) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	for s.heap.Len() > 0 {
		top := s.heap[0]
		s.mu.Unlock()
		top.Stop()
		s.mu.Lock()
	}
	s.mu.Unlock()

	s.stopping.Store(true)
	s.worker.Wakeup()
	s.worker.Join()

	s.out.RemoveProducer()
}

// NewTimer allocates an inactive timer bound to s.
func (s *Set) NewTimer() *Timer {
	return &Timer{owner: s, slot: -1}
}

// PendingCount returns the number of timers currently armed. Intended for
// debug/metrics probes, not for control flow.
func (s *Set) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Len()
}

// Destroy stops t, releases its template event, and detaches it from its
// set. Destroy tolerates a nil *Timer.
func (t *Timer) Destroy() {
	if t == nil {
		return
	}
	t.Stop()
	t.owner.mu.Lock()
	tmpl := t.template
	t.template = nil
	t.owner.mu.Unlock()
	if tmpl != nil && t.owner.destroy != nil {
		t.owner.destroy(tmpl)
	}
}

// Start (re)arms t to fire interval from now. If event is non-nil it
// replaces t's template event (the previous template is released); if
// event is nil, t must already have a template from a previous Start call.
// Any prior firing of t that is still sitting unconsumed on the output
// queue is canceled first.
func (t *Timer) Start(interval time.Duration, event api.Event) {
	if event == nil && t.template == nil {
		panic("timer: Start called with no event and no existing template")
	}

	s := t.owner
	s.mu.Lock()

	deadline := time.Unix(time.Now().Unix()+int64(interval/time.Second), 0)
	wakeup := false

	if t.active {
		// Resetting an already-armed timer: move it to its new heap
		// position in place.
		if deadline.Before(t.elapsesAt) && t.slot == 0 {
			wakeup = true
		}
		t.elapsesAt = deadline
		if heapFixed(&s.heap, t) {
			wakeup = true
		}
	} else {
		// Arming a new timer, or re-arming one that already elapsed:
		// first pull back any duplicate still sitting on the queue.
		s.cancelInFlightLocked(t)
		t.elapsesAt = deadline
		t.active = true
		heapInsert(&s.heap, t)
		wakeup = t.slot == 0
	}

	var oldTemplate api.Event
	if event != nil {
		oldTemplate = t.template
		t.template = event
	}

	s.mu.Unlock()

	if oldTemplate != nil && s.destroy != nil {
		s.destroy(oldTemplate)
	}
	if wakeup {
		s.worker.Wakeup()
	}
}

// Stop removes t from the heap if present and cancels any in-flight
// duplicate still sitting on the output queue.
func (t *Timer) Stop() {
	s := t.owner
	s.mu.Lock()
	if t.active {
		t.active = false
		heapRemove(&s.heap, t)
	}
	s.cancelInFlightLocked(t)
	s.mu.Unlock()
}

// cancelInFlightLocked implements abort_elapsed: pull back any duplicate of
// t's template that is still sitting on the output queue, closing the race
// between the worker firing t and the caller restarting or stopping it
// before a consumer observed the firing. s.mu must be held.
func (s *Set) cancelInFlightLocked(t *Timer) {
	if t.inFlight == nil {
		return
	}
	ev := t.inFlight
	t.inFlight = nil
	if count := s.out.DeleteEqual(ev, queue.IdentityEqual); count > 0 && s.destroy != nil {
		s.destroy(ev)
	}
}

// watch is the worker goroutine body: peek the heap root, fire it if due,
// otherwise sleep until it's due or until woken by an insert/reorder/stop.
func (s *Set) watch(ws *threads.WakeSleeper) {
	for {
		if s.stopping.Load() {
			return
		}

		s.mu.Lock()
		if s.heap.Len() == 0 {
			s.mu.Unlock()
			ws.SleepForever()
			continue
		}

		top := s.heap[0]
		now := time.Now()
		if !top.elapsesAt.After(now) {
			heapRemove(&s.heap, top)
			top.active = false
			s.elapseLocked(top)
			s.mu.Unlock()
			continue
		}

		wait := top.elapsesAt.Sub(now)
		s.mu.Unlock()
		ws.Sleep(wait)
	}
}

// elapseLocked duplicates t's template and produces it onto the output
// queue. s.mu must be held; t has already been removed from the heap.
func (s *Set) elapseLocked(t *Timer) {
	dup := s.clone(t.template)
	t.inFlight = dup
	s.out.Produce(dup)
}
