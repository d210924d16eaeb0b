package engine

import (
	"context"

	"github.com/vk/amnis/internal/frame"
	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/mux"
)

// Output is the consumer side of a session: a single, non-restartable
// sequence of frames.
type Output struct {
	queue  *mux.Queue
	cancel context.CancelFunc
	done   chan struct{}

	// Written before done is closed.
	err  error
	used gas.Gas
}

// Next returns the next frame. It returns false once the session has ended
// and every queued frame was delivered, or when ctx is done.
func (o *Output) Next(ctx context.Context) (frame.Frame, bool) {
	return o.queue.Next(ctx)
}

// Done is closed when the session has ended.
func (o *Output) Done() <-chan struct{} {
	return o.done
}

// Err returns the error that ended the session. It is nil while the session
// runs and after a clean end of input.
func (o *Output) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}

// Wait blocks until the session ends and returns Err. Frames must be
// drained concurrently or a full queue stalls the session.
func (o *Output) Wait() error {
	<-o.done
	return o.err
}

// Used returns the gas charged during the session, once it has ended.
func (o *Output) Used() gas.Gas {
	select {
	case <-o.done:
		return o.used
	default:
		return gas.Zero()
	}
}

// Close cancels the session and waits for it to stop. Frames still queued
// remain readable.
func (o *Output) Close() {
	o.cancel()
	<-o.done
}
