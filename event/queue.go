package event

import "container/heap"

// Queue is a min-priority queue of events ordered by Time
// Equal times pop in insertion order, so a replay with the same pushes pops the same sequence
// Stale events are never removed; callers filter them with Event.Valid on Pop
// Not safe for concurrent use
type Queue struct {
	items eventHeap
	seq   uint64 // Next insertion stamp
}

type entry struct {
	ev  Event
	seq uint64
}

// NewQueue creates an empty queue with room for capacity events
func NewQueue(capacity int) *Queue {
	return &Queue{items: make(eventHeap, 0, capacity)}
}

// Push inserts ev. O(log n)
func (q *Queue) Push(ev Event) {
	heap.Push(&q.items, entry{ev: ev, seq: q.seq})
	q.seq++
}

// Pop removes and returns the earliest event, false when empty. O(log n)
func (q *Queue) Pop() (Event, bool) {
	if len(q.items) == 0 {
		return Event{}, false
	}
	return heap.Pop(&q.items).(entry).ev, true
}

// Peek returns the earliest event without removing it
func (q *Queue) Peek() (Event, bool) {
	if len(q.items) == 0 {
		return Event{}, false
	}
	return q.items[0].ev, true
}

// Len returns the number of pending events, stale ones included
func (q *Queue) Len() int {
	return len(q.items)
}

// Reset drops every pending event; the insertion stamp keeps counting
func (q *Queue) Reset() {
	clear(q.items)
	q.items = q.items[:0]
}

type eventHeap []entry

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].ev.Time != h[j].ev.Time {
		return h[i].ev.Time < h[j].ev.Time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(entry))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
