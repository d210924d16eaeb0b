package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/ctxlog"
	"github.com/vk/amnis/internal/frame"
	"github.com/vk/amnis/internal/mux"
	"github.com/vk/amnis/internal/statement"
	"github.com/vk/amnis/internal/variable"
)

// op is a unit of work run by the coordinator.
type op func(st *state)

type session struct {
	cat      catalogue.Catalogue
	cost     CostFunc
	readSize int
	queue    *mux.Queue

	// state is touched only by the coordinator once run has started.
	state *state
	ops   chan op
	diag  *lane
	group *errgroup.Group

	// parseErr is set by the reader and read after the group has finished.
	parseErr error
}

func newSession(e *Engine, queue *mux.Queue) *session {
	s := &session{
		cat:      e.cat,
		cost:     e.opts.cost,
		readSize: e.opts.readSize,
		queue:    queue,
		state:    newState(e.plan),
		ops:      make(chan op),
		diag:     newLane(int(frame.SessionChannel)),
	}

	// The default channel goes first so that it owns id 1.
	def := s.state.declare(e.opts.defaultChannel)
	s.state.lane(def)
	for _, name := range e.opts.channels {
		s.state.declare(name)
	}
	for _, b := range e.opts.bindings {
		if b.Value.IsValid() {
			s.state.preset(b.Name, b.Value)
		}
	}
	return s
}

func (s *session) run(ctx context.Context, cancel context.CancelFunc, in io.Reader, out *Output) {
	defer close(out.done)
	defer cancel()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Session started.", "names", s.state.names.Len())

	g, gctx := errgroup.WithContext(ctx)
	s.group = g

	// Pre-seeded lanes start before the coordinator; their first call into
	// it simply waits.
	s.start(gctx, s.diag)
	for _, ln := range s.state.lanes {
		s.start(gctx, ln)
	}

	coordCtx, stop := context.WithCancel(gctx)
	coordDone := make(chan struct{})
	go func() {
		defer close(coordDone)
		s.coordinate(coordCtx)
	}()

	g.Go(func() error { return s.read(gctx, in) })

	err := g.Wait()
	stop()
	<-coordDone
	s.queue.Close()

	if err == nil {
		err = s.parseErr
	}
	if err == nil {
		err = ctx.Err()
	}
	out.err = err
	out.used = s.state.used
	if err != nil {
		logger.Warn("Session ended with error.", "error", err)
	} else {
		logger.Debug("Session finished.", "used", s.state.used)
	}
}

// coordinate serializes every change to the session state.
func (s *session) coordinate(ctx context.Context) {
	for {
		select {
		case fn := <-s.ops:
			fn(s.state)
		case <-ctx.Done():
			return
		}
	}
}

// do runs fn on the coordinator and waits for it to finish.
func (s *session) do(ctx context.Context, fn op) error {
	done := make(chan struct{})
	select {
	case s.ops <- func(st *state) { fn(st); close(done) }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) start(ctx context.Context, ln *lane) {
	s.group.Go(func() error { return s.work(ctx, ln) })
}

// chunk is one read from the input.
type chunk struct {
	data []byte
	err  error
}

// pump reads in a goroutine of its own so that the reader can give up on a
// blocked Read when the session is cancelled.
func pump(in io.Reader, size int, out chan<- chunk, done <-chan struct{}) {
	for {
		buf := make([]byte, size)
		n, err := in.Read(buf)
		select {
		case out <- chunk{data: buf[:n], err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// read parses the input and routes statements until end of input. Errors
// confined to one statement are reported on the session channel. A lexer
// error stops reading like the end of input does: statements already routed
// still run, and the error ends the session once they have.
func (s *session) read(ctx context.Context, in io.Reader) error {
	err := s.parse(ctx, in)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var perr *parseError
	if err != nil && !errors.As(err, &perr) {
		return err
	}
	if perr != nil {
		ctxlog.FromContext(ctx).Debug("Input rejected, draining channels.", "error", perr.err)
		s.parseErr = perr.err
	}
	return s.do(ctx, func(st *state) {
		st.closeLanes()
		s.diag.close()
	})
}

// parseError marks a lexer failure, which ends reading without cancelling
// the session.
type parseError struct{ err error }

func (e *parseError) Error() string { return e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

func (s *session) parse(ctx context.Context, in io.Reader) error {
	logger := ctxlog.FromContext(ctx)
	reads := make(chan chunk)
	go pump(in, s.readSize, reads, ctx.Done())

	parser := statement.NewParser(s.cat, &names{ctx: ctx, s: s})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-reads:
			if len(c.data) > 0 {
				lexErr := parser.Feed(c.data)
				if err := s.drain(ctx, parser); err != nil {
					return err
				}
				if lexErr != nil {
					return &parseError{fmt.Errorf("parsing input: %w", lexErr)}
				}
			}
			if c.err == nil {
				continue
			}
			if !errors.Is(c.err, io.EOF) {
				return fmt.Errorf("reading input: %w", c.err)
			}
			if err := parser.Close(); err != nil {
				return &parseError{fmt.Errorf("parsing input: %w", err)}
			}
			logger.Debug("End of input.", "line", parser.Line())
			return nil
		}
	}
}

func (s *session) drain(ctx context.Context, p *statement.Parser) error {
	for {
		st, ok, err := p.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var se *statement.StatementError
			line := int64(0)
			if errors.As(err, &se) {
				line = se.Line
			}
			ctxlog.FromContext(ctx).Debug("Statement rejected.", "line", line, "error", err)
			s.diag.push(job{diag: frame.Errorf(frame.SessionChannel, line, "%v", err)})
			continue
		}
		if !ok {
			return nil
		}
		if err := s.dispatch(ctx, st); err != nil {
			return err
		}
	}
}

func (s *session) dispatch(ctx context.Context, st *statement.Statement) error {
	var (
		ln      *lane
		created bool
		lerr    error
		j       = job{st: st}
	)
	err := s.do(ctx, func(state *state) {
		if ln, created, lerr = state.lane(st.Channel); lerr == nil {
			j.inputs, j.inputErr = state.slots(st.Inputs)
		}
	})
	if err != nil {
		return err
	}
	if lerr != nil {
		return lerr
	}
	if created {
		ctxlog.FromContext(ctx).Debug("Opened channel.", "channel", st.Channel)
		s.start(ctx, ln)
	}
	ln.push(j)
	return nil
}

// work executes the jobs of one lane in order.
func (s *session) work(ctx context.Context, ln *lane) error {
	logger := ctxlog.FromContext(ctx).With("channel", ln.id)
	logger.Debug("Worker started.")
	defer logger.Debug("Worker finished.")

	for {
		j, ok := ln.pop(ctx)
		if !ok {
			return nil
		}
		f := j.diag
		if j.st != nil {
			var err error
			if f, err = s.execute(ctx, j); err != nil {
				logger.Debug("Statement ended the session.", "line", j.st.Line, "error", err)
				return err
			}
		}
		if err := s.queue.Push(ctx, f); err != nil {
			return nil
		}
	}
}

// execute runs one statement and returns its frame. Failures confined to the
// statement become error frames; the returned error is fatal.
func (s *session) execute(ctx context.Context, j job) (frame.Frame, error) {
	st := j.st
	channel := int64(st.Channel)

	err := j.inputErr
	var inputs []variable.Variable
	if err == nil {
		inputs, err = await(ctx, j.inputs)
	}
	if err == nil && len(j.inputs) > 0 {
		var rerr error
		if err = s.do(ctx, func(state *state) { rerr = state.checkReleased(j.inputs, st.Line) }); err == nil {
			err = rerr
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return frame.Frame{}, ctx.Err()
		}
		if err := s.commit(ctx, Usage{Statement: st, Err: err}); err != nil {
			return frame.Frame{}, err
		}
		return frame.Errorf(channel, st.Line, "%v", err), nil
	}

	start := time.Now()
	res, err := s.cat.Invoke(ctx, st.Function, &catalogue.Call{
		Channel: channel,
		Line:    st.Line,
		Size:    st.Size,
		Inputs:  inputs,
		Body:    st.Body,
	})
	u := Usage{Statement: st, Inputs: inputs, Result: res, Err: err, Elapsed: time.Since(start)}
	switch {
	case err != nil:
		u.Result = nil
	case res == nil:
		res = &catalogue.Result{Frame: frame.New(channel, st.Line, st.Size, nil)}
		u.Result = res
	}
	if err := s.commit(ctx, u); err != nil {
		return frame.Frame{}, err
	}
	if u.Err != nil {
		if ctx.Err() != nil {
			return frame.Frame{}, ctx.Err()
		}
		return frame.Errorf(channel, st.Line, "%v", u.Err), nil
	}
	return res.Frame, nil
}

// await waits until every slot is bound and returns the values.
func await(ctx context.Context, slots []*slot) ([]variable.Variable, error) {
	values := make([]variable.Variable, len(slots))
	for i, sl := range slots {
		select {
		case <-sl.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if sl.state == slotFailed {
			return nil, fmt.Errorf("input %q: %w", sl.name, sl.err)
		}
		values[i] = sl.value
	}
	return values, nil
}

func (s *session) commit(ctx context.Context, u Usage) error {
	var cerr error
	if err := s.do(ctx, func(st *state) { cerr = st.commit(u, s.cost) }); err != nil {
		return err
	}
	return cerr
}

// names is the coordinator-backed name table handed to the parser.
type names struct {
	ctx context.Context
	s   *session
}

func (n *names) RequireID(name string) (id int, err error) {
	if derr := n.s.do(n.ctx, func(st *state) { id, err = st.names.RequireID(name) }); derr != nil {
		return 0, derr
	}
	return id, err
}

func (n *names) Register(name string) (id int, err error) {
	if derr := n.s.do(n.ctx, func(st *state) { id = st.register(name) }); derr != nil {
		return 0, derr
	}
	return id, nil
}
