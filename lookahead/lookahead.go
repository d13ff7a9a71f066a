// Package lookahead decouples producing elements from consuming them: a
// background goroutine pulls elements from a source ahead of the
// consumer into a bounded buffer, so slow fetches (database batches,
// file reads) overlap with processing while order is preserved.
package lookahead

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Source pulls one element. ok=false ends the iteration; a non-nil error
// ends it as well and is surfaced through Iterator.Err.
type Source[T any] func() (value T, ok bool, err error)

// FromSlice adapts a slice into a Source, mostly for tests and small
// inputs.
func FromSlice[T any](values []T) Source[T] {
	i := 0
	return func() (T, bool, error) {
		if i >= len(values) {
			var zero T
			return zero, false, nil
		}
		v := values[i]
		i++
		return v, true, nil
	}
}

// Iterator hands out prefetched elements in source order.
type Iterator[T any] struct {
	results chan T
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	logger  logrus.FieldLogger
}

// Prefetch starts fetching from src in the background, keeping up to
// depth elements buffered ahead of the consumer. A depth below 1 is
// treated as 1. The iterator stops when src is exhausted, src fails, ctx
// is cancelled, or Stop is called.
func Prefetch[T any](ctx context.Context, src Source[T], depth int, logger logrus.FieldLogger) *Iterator[T] {
	if depth < 1 {
		depth = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	it := &Iterator[T]{
		results: make(chan T, depth),
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  logger,
	}

	go func() {
		defer close(it.results)
		defer close(it.done)
		for {
			v, ok, err := src()
			if err != nil {
				it.err = err
				return
			}
			if !ok {
				return
			}
			select {
			case it.results <- v:
			case <-ctx.Done():
				it.err = ctx.Err()
				return
			}
		}
	}()

	return it
}

// Next returns the next element in source order, blocking until one is
// buffered. ok is false once the iteration has ended; check Err for the
// cause.
func (it *Iterator[T]) Next() (T, bool) {
	start := time.Now()
	v, ok := <-it.results
	if it.logger != nil {
		it.logger.WithField("waited", time.Since(start)).Debug("lookahead wait")
	}
	if !ok {
		var zero T
		return zero, false
	}
	return v, true
}

// Err reports why the iteration ended: nil after normal exhaustion, the
// source error, or the context error after cancellation. Only valid
// after Next returned ok=false.
func (it *Iterator[T]) Err() error {
	select {
	case <-it.done:
		return it.err
	default:
		return nil
	}
}

// Stop aborts the background fetching and releases its goroutine. Safe
// to call multiple times and after exhaustion.
func (it *Iterator[T]) Stop() {
	it.cancel()
	// Drain so the producer's pending send never leaks.
	for range it.results {
	}
}
