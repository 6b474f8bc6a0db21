// Package streams provides a generic, pull-based stream iterator.
//
// A Stream lets the consumer pull items one at a time from a concurrent
// producer (usually a channel fed by a network reader) while keeping all
// transformation steps in the consumer's goroutine. Chaining Map calls does
// not start new goroutines or allocate intermediate channels: every stage is
// a closure that pulls from the stage before it.
//
//	events := streams.New(eventChan)
//	texts := streams.Map(events, func(e Event) string { return e.Text })
//	for {
//		text, ok, err := texts.NextContext(ctx)
//		if err != nil || !ok {
//			break
//		}
//		fmt.Print(text)
//	}
package streams

import (
	"context"
)

// Stream represents a lazy, pull-based iterator over a sequence of items of type T.
//
// The zero value of a Stream is not useful and will panic if Next() is called.
type Stream[T any] struct {
	// next returns the next item, whether it is valid, and a non-nil error only
	// if the context was canceled while waiting.
	next func(ctx context.Context) (T, bool, error)
}

// New creates a new Stream from a read-only channel.
//
// The returned Stream will produce items until the source channel is closed and drained.
func New[T any](sourceChan <-chan T) *Stream[T] {
	return &Stream[T]{
		next: func(ctx context.Context) (T, bool, error) {
			// Prefer a pending cancellation over a pending item.
			if err := ctx.Err(); err != nil {
				var zero T
				return zero, false, err
			}

			select {
			case <-ctx.Done():
				var zero T
				return zero, false, ctx.Err()
			case val, ok := <-sourceChan:
				return val, ok, nil
			}
		},
	}
}

// FromFunc creates a new Stream from a pull function, for sources that are
// already iterators. The function must return ok=false once exhausted.
func FromFunc[T any](next func(ctx context.Context) (T, bool, error)) *Stream[T] {
	return &Stream[T]{next: next}
}

// Map returns a new Stream that applies the conversion function `conv` to each
// item from a source Stream.
//
// The conversion function is not called until an item is pulled from the returned Stream.
func Map[T, U any](sourceStream *Stream[T], conv func(T) U) *Stream[U] {
	return &Stream[U]{
		next: func(ctx context.Context) (U, bool, error) {
			val, ok, err := sourceStream.NextContext(ctx)
			if err != nil || !ok {
				var zeroU U
				return zeroU, false, err
			}
			return conv(val), true, nil
		},
	}
}

// NextContext produces the next item from the stream, or returns the context's
// error if it is canceled before an item becomes available.
//
// ok is false once the stream is exhausted. The consumer MUST check both the
// error and ok to correctly terminate iteration.
func (s *Stream[T]) NextContext(ctx context.Context) (T, bool, error) {
	return s.next(ctx)
}

// Next produces the next item from the stream without any cancellation.
func (s *Stream[T]) Next() (T, bool) {
	val, ok, _ := s.next(context.Background())
	return val, ok
}

// Exhaust drains the stream and returns all its items.
// If the context is canceled before the stream ends, it returns nil and the context's error.
func (s *Stream[T]) Exhaust(ctx context.Context) ([]T, error) {
	var items []T
	for {
		item, ok, err := s.NextContext(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, item)
	}
}
