package reflow

import "errors"

// DispatchAsync schedules actions on the store's background worker and
// returns immediately.
//
// The worker applies the actions exactly as [Store.Dispatch] would and, if
// they all succeed, broadcasts to subscribers. Calls are processed one at a
// time in the order they were made. DispatchAsync never blocks, so it is
// safe to call from subscriber callbacks and middleware.
//
// DispatchAsync is fire-and-forget: there is no handle to await completion.
// A failure is logged with its correlation ID and stack trace, and the
// batch stops at the failing action as described for [Store.Dispatch].
//
// The worker goroutine is started on demand and exits as soon as the queue
// is empty, so a store that is dropped without [Store.Close] leaks nothing.
//
// Returns [ErrStoreClosed] if [Store.Close] has been called.
func (s *Store[S, A]) DispatchAsync(actions ...A) error {
	// copy so the caller may reuse its slice
	batch := append([]A(nil), actions...)

	accepted, claimed := s.jobs.Enqueue(batch)
	if !accepted {
		return ErrStoreClosed
	}
	if claimed {
		go s.runWorker()
	}
	return nil
}

// Close stops accepting asynchronous dispatches and waits for queued
// batches to be applied and broadcast.
//
// Close is idempotent. Synchronous operations keep working after Close.
// Calling Close is optional; it only guarantees that queued work has
// finished.
//
// Close must not be called from a subscriber callback or middleware: it
// waits for the worker, which may itself be waiting on the caller.
func (s *Store[S, A]) Close() {
	s.jobs.Close()
	s.jobs.WaitIdle()
}

// runWorker applies queued batches until the queue is empty.
func (s *Store[S, A]) runWorker() {
	for {
		batch, ok := s.jobs.Next()
		if !ok {
			return
		}
		s.processAsync(batch)
	}
}

// processAsync applies one batch under the write lock and logs failures.
func (s *Store[S, A]) processAsync(batch []A) {
	err := s.Dispatch(batch...)
	if err == nil {
		return
	}

	attrs := []any{"error", err.Error(), "batch_size", len(batch)}
	var de *DispatchError
	if errors.As(err, &de) {
		attrs = append(attrs,
			"action_index", de.Index,
			"correlation_id", de.Cause.CorrelationID,
			"stack", string(de.Cause.Stack),
		)
	}
	s.logger.Error("async dispatch failed", attrs...)
}
