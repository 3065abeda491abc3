// Package queue provides a bounded FIFO shared between the control loop and background writers.
package queue

import (
	"sync"
)

// Queue is a generic thread-safe FIFO. When a capacity is set, pushing onto a full queue
// evicts the oldest items so the newest data is kept.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	dropped  uint64
}

// New creates a new empty queue holding at most capacity items.
// A capacity of zero or less means unbounded.
func New[T any](capacity int) *Queue[T] {
	q := &Queue[T]{capacity: capacity}
	if capacity > 0 {
		q.items = make([]T, 0, capacity)
	}
	return q
}

// Push appends items and returns how many older items were evicted to make room.
func (q *Queue[T]) Push(items ...T) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, items...)
	if q.capacity <= 0 || len(q.items) <= q.capacity {
		return 0
	}

	evicted := len(q.items) - q.capacity
	q.items = append(q.items[:0], q.items[evicted:]...)
	q.dropped += uint64(evicted)
	return evicted
}

// PushFront puts items back at the front, ahead of everything queued, and returns how many
// were evicted. On overflow the oldest items, which are the front, go first.
func (q *Queue[T]) PushFront(items ...T) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(append(make([]T, 0, len(items)+len(q.items)), items...), q.items...)
	if q.capacity <= 0 || len(q.items) <= q.capacity {
		return 0
	}

	evicted := len(q.items) - q.capacity
	q.items = q.items[evicted:]
	q.dropped += uint64(evicted)
	return evicted
}

// Take removes and returns up to n items from the front. n <= 0 takes everything.
func (q *Queue[T]) Take(n int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n <= 0 || n > len(q.items) {
		n = len(q.items)
	}
	if n == 0 {
		return nil
	}

	result := make([]T, n)
	copy(result, q.items[:n])
	q.items = append(q.items[:0], q.items[n:]...)
	return result
}

// GetAndEmpty returns all items and clears the queue.
func (q *Queue[T]) GetAndEmpty() []T {
	return q.Take(0)
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the configured capacity, zero when unbounded.
func (q *Queue[T]) Cap() int {
	return max(q.capacity, 0)
}

// Dropped returns the total number of items evicted since creation.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
