package queue

import (
	"sync"
)

// Queue is a thread-safe, unbounded FIFO queue with at most one active
// consumer.
//
// Producers call [Queue.Enqueue] from any goroutine. The producer whose
// item lands in an idle queue claims the consumer role and is expected to
// start a goroutine that drains the queue with [Queue.Next]. When Next
// finds the queue empty it releases the claim, so no consumer outlives its
// work. After [Queue.Close], Enqueue is rejected but already queued items
// stay available until drained.
type Queue[T any] struct {
	mu     sync.Mutex
	idle   *sync.Cond
	items  []T
	active bool // a consumer holds the claim; true whenever items is non-empty
	closed bool
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{
		items: make([]T, 0, 16),
	}
	q.idle = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds an item to the back of the queue.
//
// accepted is false if the queue is closed. claimed is true if the queue
// had no active consumer; the caller must then start one.
func (q *Queue[T]) Enqueue(item T) (accepted, claimed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, false
	}

	q.items = append(q.items, item)

	if q.active {
		return true, false
	}
	q.active = true
	return true, true
}

// Next removes and returns the front item without blocking.
//
// When the queue is empty, Next releases the consumer claim and returns
// false; the consumer must stop. A later Enqueue claims it again.
func (q *Queue[T]) Next() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		q.active = false
		q.idle.Broadcast()
		return zero, false
	}

	item := q.items[0]

	// clear the slot so the backing array does not pin the item
	q.items[0] = zero

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return item, true
}

// Len returns the current number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Active reports whether a consumer currently holds the claim.
func (q *Queue[T]) Active() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

// WaitIdle blocks until the queue is empty and no consumer is active.
// It must not be called from the consumer goroutine.
func (q *Queue[T]) WaitIdle() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.active {
		q.idle.Wait()
	}
}

// Close rejects further Enqueue calls. Queued items are still delivered.
// Safe to call multiple times.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
