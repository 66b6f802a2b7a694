// Package queue provides the unbounded FIFO queue that feeds a Store's
// background dispatch worker.
//
// This package is internal to reflow. The queue never blocks producers:
// [Queue.Enqueue] appends under a mutex, so it is safe to call from inside
// subscriber callbacks and middleware that are themselves running on the
// worker goroutine.
//
// The consumer is started on demand. Enqueue reports when the caller has
// claimed the consumer role, and [Queue.Next] releases the claim once the
// queue is empty, so an idle queue holds no goroutine.
package queue
