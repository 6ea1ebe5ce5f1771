package timing

import "container/heap"

// eventQueue keeps events ordered by fire time. Events sharing a fire time
// keep their request order.
type eventQueue struct {
	events eventHeap
}

func newEventQueue() *eventQueue {
	q := &eventQueue{events: make(eventHeap, 0)}
	heap.Init(&q.events)

	return q
}

func (q *eventQueue) Push(evt *Event) {
	heap.Push(&q.events, evt)
}

func (q *eventQueue) Pop() *Event {
	return heap.Pop(&q.events).(*Event)
}

func (q *eventQueue) Peek() *Event {
	return q.events[0]
}

func (q *eventQueue) Len() int {
	return q.events.Len()
}

func (q *eventQueue) Remove(evt *Event) {
	if evt.index < 0 || evt.index >= len(q.events) || q.events[evt.index] != evt {
		panic("timing: removing an event that is not queued")
	}

	heap.Remove(&q.events, evt.index)
}

type eventHeap []*Event

func (h eventHeap) Len() int {
	return len(h)
}

func (h eventHeap) Less(i, j int) bool {
	if c := h[i].Time.Compare(h[j].Time); c != 0 {
		return c < 0
	}

	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	evt := x.(*Event)
	evt.index = len(*h)
	*h = append(*h, evt)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	evt := old[n-1]
	old[n-1] = nil
	evt.index = -1
	*h = old[0 : n-1]

	return evt
}
