package workerpool

import (
	"container/heap"
)

// taskQueue is a max-heap of pending tasks ordered by priority, then by
// enqueue sequence so equal priorities leave in FIFO order.
// It is not safe for concurrent use; the pool guards it with its mutex.
type taskQueue struct {
	items taskHeap
	seq   uint64
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{items: make(taskHeap, 0, 64)}
	heap.Init(&q.items)
	return q
}

// Push inserts t and stamps it with the next sequence number.
func (q *taskQueue) Push(t Task) {
	q.seq++
	t.seq = q.seq
	heap.Push(&q.items, t)
}

// Peek returns the highest-priority task without removing it.
func (q *taskQueue) Peek() (Task, bool) {
	if len(q.items) == 0 {
		return Task{}, false
	}
	return q.items[0], true
}

// Pop removes and returns the highest-priority task.
func (q *taskQueue) Pop() (Task, bool) {
	if len(q.items) == 0 {
		return Task{}, false
	}
	return heap.Pop(&q.items).(Task), true
}

func (q *taskQueue) Len() int { return len(q.items) }

func (q *taskQueue) Empty() bool { return len(q.items) == 0 }

// Clear empties the queue and returns what it held, highest priority first.
func (q *taskQueue) Clear() []Task {
	if len(q.items) == 0 {
		return nil
	}
	drained := make([]Task, 0, len(q.items))
	for len(q.items) > 0 {
		drained = append(drained, heap.Pop(&q.items).(Task))
	}
	q.items = make(taskHeap, 0, 64)
	return drained
}

type taskHeap []Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(Task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = Task{}
	*h = old[:n-1]
	return t
}
