package pathfinding

import "errors"

// ErrEmptyQueue is returned by Dequeue when the queue holds no items.
var ErrEmptyQueue = errors.New("pathfinding: queue is empty")

type queueEntry[T any] struct {
	item     T
	priority float64
}

// PriorityQueue is an array-backed binary min-heap keyed by a float priority.
// It has no decrease-key; callers push duplicates and filter stale entries on pop.
type PriorityQueue[T any] struct {
	entries []queueEntry[T]
}

func NewPriorityQueue[T any](capacity int) *PriorityQueue[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &PriorityQueue[T]{entries: make([]queueEntry[T], 0, capacity)}
}

func (q *PriorityQueue[T]) Len() int {
	return len(q.entries)
}

// Reset drops every entry but keeps the backing array.
func (q *PriorityQueue[T]) Reset() {
	clear(q.entries)
	q.entries = q.entries[:0]
}

func (q *PriorityQueue[T]) Enqueue(item T, priority float64) {
	q.entries = append(q.entries, queueEntry[T]{item: item, priority: priority})
	child := len(q.entries) - 1
	for child > 0 {
		parent := (child - 1) / 2
		if q.entries[child].priority >= q.entries[parent].priority {
			break
		}
		q.entries[child], q.entries[parent] = q.entries[parent], q.entries[child]
		child = parent
	}
}

func (q *PriorityQueue[T]) Dequeue() (T, error) {
	var zero T
	n := len(q.entries)
	if n == 0 {
		return zero, ErrEmptyQueue
	}

	result := q.entries[0].item
	q.entries[0] = q.entries[n-1]
	q.entries[n-1] = queueEntry[T]{}
	q.entries = q.entries[:n-1]

	parent := 0
	for {
		left := 2*parent + 1
		right := left + 1
		smallest := parent
		if left < len(q.entries) && q.entries[left].priority < q.entries[smallest].priority {
			smallest = left
		}
		if right < len(q.entries) && q.entries[right].priority < q.entries[smallest].priority {
			smallest = right
		}
		if smallest == parent {
			break
		}
		q.entries[parent], q.entries[smallest] = q.entries[smallest], q.entries[parent]
		parent = smallest
	}

	return result, nil
}

// Peek returns the minimum-priority item without removing it.
func (q *PriorityQueue[T]) Peek() (T, float64, bool) {
	if len(q.entries) == 0 {
		var zero T
		return zero, 0, false
	}
	return q.entries[0].item, q.entries[0].priority, true
}
