package engine

import (
	"context"
	"sync"

	"github.com/vk/amnis/internal/frame"
	"github.com/vk/amnis/internal/statement"
)

// job is either a statement to execute or a ready-made diagnostic frame.
// inputs are resolved when the statement is routed, so that a later release
// of an input cannot take it away; inputErr is set when that failed.
type job struct {
	st       *statement.Statement
	inputs   []*slot
	inputErr error
	diag     frame.Frame
}

// lane is the unbounded FIFO feeding one channel worker. The reader never
// blocks on it; backpressure is applied at the output queue only.
type lane struct {
	id     int
	mu     sync.Mutex
	jobs   []job
	closed bool
	wake   chan struct{}
}

func newLane(id int) *lane {
	return &lane{id: id, wake: make(chan struct{}, 1)}
}

func (l *lane) push(j job) {
	l.mu.Lock()
	l.jobs = append(l.jobs, j)
	l.mu.Unlock()
	l.signal()
}

func (l *lane) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.signal()
}

func (l *lane) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// pop waits for the next job. It returns false once the lane is closed and
// empty, or when ctx is done.
func (l *lane) pop(ctx context.Context) (job, bool) {
	for {
		l.mu.Lock()
		if len(l.jobs) > 0 {
			j := l.jobs[0]
			l.jobs[0] = job{}
			l.jobs = l.jobs[1:]
			l.mu.Unlock()
			return j, true
		}
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return job{}, false
		}
		select {
		case <-l.wake:
		case <-ctx.Done():
			return job{}, false
		}
	}
}
