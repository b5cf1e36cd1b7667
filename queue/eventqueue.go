// File: queue/eventqueue.go
// Package queue implements the thread-safe, ordered Event Queue that the
// timer set and its downstream consumers share.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Multiple producers may Produce concurrently; Consume blocks a single
// caller until an event is available or the queue is closed. DeleteEqual
// scans the queue and removes every element equal to a given value,
// mirroring gwlib's list_delete_equal so a timer can pull back an
// in-flight expiry event before a consumer observes it.

package queue

import (
	"sync"

	eapachequeue "github.com/eapache/queue"

	"github.com/kienpl96/kannel/api"
)

// EventQueue is a multi-producer, single-or-multi-consumer FIFO of opaque
// events, backed by an eapache/queue ring buffer.
type EventQueue struct {
	mu        sync.Mutex
	notEmpty  sync.Cond
	q         *eapachequeue.Queue
	producers int
	closed    bool
}

// New creates an empty EventQueue.
func New() *EventQueue {
	eq := &EventQueue{q: eapachequeue.New()}
	eq.notEmpty.L = &eq.mu
	return eq
}

// AddProducer registers the caller as a producer. A TimerSet calls this
// once, for its own lifetime, in NewSet.
func (eq *EventQueue) AddProducer() {
	eq.mu.Lock()
	eq.producers++
	eq.mu.Unlock()
}

// RemoveProducer releases a producer reservation taken by AddProducer.
func (eq *EventQueue) RemoveProducer() {
	eq.mu.Lock()
	eq.producers--
	eq.mu.Unlock()
}

// Produce appends an event and wakes one blocked Consume call, if any.
func (eq *EventQueue) Produce(ev api.Event) {
	eq.mu.Lock()
	eq.q.Add(ev)
	eq.mu.Unlock()
	eq.notEmpty.Signal()
}

// Len returns the number of events currently queued.
func (eq *EventQueue) Len() int {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	return eq.q.Length()
}

// TryConsume removes and returns the oldest event without blocking. ok is
// false if the queue is empty.
func (eq *EventQueue) TryConsume() (ev api.Event, ok bool) {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	if eq.q.Length() == 0 {
		return nil, false
	}
	return eq.q.Remove(), true
}

// Consume blocks until an event is available or the queue is closed, in
// which case ok is false.
func (eq *EventQueue) Consume() (ev api.Event, ok bool) {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	for eq.q.Length() == 0 && !eq.closed {
		eq.notEmpty.Wait()
	}
	if eq.q.Length() == 0 {
		return nil, false
	}
	return eq.q.Remove(), true
}

// DeleteEqual removes every queued event equal to target under eq, and
// returns how many were removed. Used by the timer set to cancel an
// in-flight duplicate before a consumer observes it.
func (eq *EventQueue) DeleteEqual(target api.Event, eq_ func(a, b api.Event) bool) int {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	n := eq.q.Length()
	if n == 0 {
		return 0
	}
	kept := make([]api.Event, 0, n)
	removed := 0
	for i := 0; i < n; i++ {
		v := eq.q.Remove()
		if eq_(v, target) {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	for _, v := range kept {
		eq.q.Add(v)
	}
	return removed
}

// Close marks the queue closed, waking every blocked Consume call. Producers
// already holding a reservation should call RemoveProducer separately;
// Close does not by itself invalidate outstanding AddProducer counts.
func (eq *EventQueue) Close() {
	eq.mu.Lock()
	eq.closed = true
	eq.mu.Unlock()
	eq.notEmpty.Broadcast()
}
