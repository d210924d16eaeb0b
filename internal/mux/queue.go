// Package mux provides the bounded multi-producer, single-consumer queue that
// interleaves frames from every channel worker into one output stream.
//
// Producers are anonymous: anything holding the queue may Push. The queue
// knows nothing about channels or scheduling, only about order of arrival.
package mux

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vk/amnis/internal/errs"
	"github.com/vk/amnis/internal/frame"
)

// DefaultSize is the queue capacity used when none is configured.
const DefaultSize = 128

// Queue is a bounded FIFO of frames. A full queue blocks producers.
type Queue struct {
	items     chan frame.Frame
	done      chan struct{}
	closeOnce sync.Once
	finished  atomic.Bool
}

// New creates a queue holding at most size frames. A size below 1 uses
// DefaultSize.
func New(size int) *Queue {
	if size < 1 {
		size = DefaultSize
	}
	return &Queue{
		items: make(chan frame.Frame, size),
		done:  make(chan struct{}),
	}
}

// Push enqueues f, blocking while the queue is full. It fails with
// errs.ErrClosed once the queue is closed, or with the context error.
func (q *Queue) Push(ctx context.Context, f frame.Frame) error {
	select {
	case <-q.done:
		return errs.ErrClosed
	default:
	}
	select {
	case q.items <- f:
		return nil
	case <-q.done:
		return errs.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream. Frames already enqueued are still delivered; after
// them the consumer sees end-of-stream. Close is idempotent.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// Next returns the next frame in enqueue order. It returns false once the
// queue is closed and drained, or when ctx is cancelled. After the first
// false every later call returns false too: the stream cannot be replayed.
func (q *Queue) Next(ctx context.Context) (frame.Frame, bool) {
	if q.finished.Load() {
		return frame.Frame{}, false
	}
	select {
	case f := <-q.items:
		return f, true
	default:
	}
	select {
	case f := <-q.items:
		return f, true
	case <-q.done:
		select {
		case f := <-q.items:
			return f, true
		default:
		}
	case <-ctx.Done():
	}
	q.finished.Store(true)
	return frame.Frame{}, false
}

// Len returns the number of buffered frames.
func (q *Queue) Len() int {
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.items)
}
