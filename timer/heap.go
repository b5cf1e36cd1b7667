// File: timer/heap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// timerHeap is a container/heap.Interface min-heap ordered by elapsesAt,
// with each Timer recording its own slot so removal is O(log n).
// Grounded directly on gw/timers.c's heap_insert/heap_delete/heap_adjust/
// heap_swap, and on momentics-hioload-ws/internal/concurrency/scheduler.go's
// (incomplete) container/heap-based taskHeap, completed here.

package timer

import "container/heap"

type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	return h[i].elapsesAt.Before(h[j].elapsesAt)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].slot = i
	h[j].slot = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.slot = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.slot = -1
	*h = old[:n-1]
	return t
}

// heapRemove deletes the timer at its recorded slot in O(log n), the way
// gw/timers.c's heap_delete swaps with the last element, shrinks, then
// sifts the swapped element into place.
func heapRemove(h *timerHeap, t *Timer) {
	heap.Remove(h, t.slot)
	t.slot = -1
}

// heapInsert adds t to the heap and restores heap order.
func heapInsert(h *timerHeap, t *Timer) {
	heap.Push(h, t)
}

// heapFixed re-establishes heap order after t.elapsesAt changed in place,
// mirroring heap_adjust. Returns true if the root changed as a result,
// which the caller uses to decide whether to wake the worker.
func heapFixed(h *timerHeap, t *Timer) (rootChanged bool) {
	var before *Timer
	if len(*h) > 0 {
		before = (*h)[0]
	}
	heap.Fix(h, t.slot)
	var after *Timer
	if len(*h) > 0 {
		after = (*h)[0]
	}
	return before != after
}
