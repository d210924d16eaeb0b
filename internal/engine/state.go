package engine

import (
	"fmt"

	"github.com/vk/amnis/internal/errs"
	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/namespace"
	"github.com/vk/amnis/internal/variable"
)

type slotState uint8

const (
	slotPending slotState = iota
	slotBound
	slotFailed
)

// slot holds the value of one output id. ready is closed once the slot
// leaves the pending state; value and err are immutable after that.
type slot struct {
	name  string
	state slotState
	value variable.Variable
	err   error
	ready chan struct{}

	// releasedAt is the line of the statement that released the slot, 0
	// while it is live. Only the coordinator touches it.
	releasedAt int64
}

func newSlot(name string) *slot {
	return &slot{name: name, ready: make(chan struct{})}
}

func (s *slot) bind(v variable.Variable) {
	if s.state != slotPending {
		return
	}
	s.value = v
	s.state = slotBound
	close(s.ready)
}

func (s *slot) fail(err error) {
	if s.state != slotPending {
		return
	}
	s.err = err
	s.state = slotFailed
	close(s.ready)
}

// state is everything the coordinator owns. None of its methods may be
// called from outside the coordinator goroutine once the session runs.
type state struct {
	plan   *gas.Plan
	names  *namespace.Namespace
	used   gas.Gas
	vars   map[int]*slot
	lanes  map[int]*lane
	closed bool

	// released remembers the names of released ids for error messages.
	released map[int]string
}

func newState(plan *gas.Plan) *state {
	return &state{
		plan:  plan,
		names: namespace.New(),
		used:  gas.Zero(),
		vars:  make(map[int]*slot),
		lanes: make(map[int]*lane),

		released: make(map[int]string),
	}
}

// declare registers name unless it is already known and returns its id.
func (st *state) declare(name string) int {
	if id, ok := st.names.ID(name); ok {
		return id
	}
	return st.names.Register(name)
}

// register allocates a fresh id for an output and a pending slot behind it.
func (st *state) register(name string) int {
	id := st.names.Register(name)
	st.vars[id] = newSlot(name)
	return id
}

// preset registers name and binds v to it straight away.
func (st *state) preset(name string, v variable.Variable) int {
	id := st.register(name)
	st.vars[id].bind(v)
	return id
}

// lane returns the lane of channel id, creating it on first use.
func (st *state) lane(id int) (ln *lane, created bool, err error) {
	if ln, ok := st.lanes[id]; ok {
		return ln, false, nil
	}
	if st.closed {
		return nil, false, fmt.Errorf("channel %d opened after end of input: %w", id, errs.ErrClosed)
	}
	ln = newLane(id)
	st.lanes[id] = ln
	return ln, true, nil
}

// closeLanes marks the end of input for every lane.
func (st *state) closeLanes() {
	st.closed = true
	for _, ln := range st.lanes {
		ln.close()
	}
}

// slots returns the slots behind ids. An id without a slot was either never
// an output (a channel name, say) or has been released.
func (st *state) slots(ids []int) ([]*slot, error) {
	out := make([]*slot, len(ids))
	for i, id := range ids {
		s, ok := st.vars[id]
		if ok {
			out[i] = s
			continue
		}
		if name, gone := st.released[id]; gone {
			return nil, fmt.Errorf("input %q (id %d) was released: %w", name, id, errs.ErrInvalidInput)
		}
		name, _ := st.names.Name(id)
		return nil, fmt.Errorf("input %q (id %d) is not bound to a value: %w", name, id, errs.ErrInvalidInput)
	}
	return out, nil
}

// release unbinds and unregisters ids on behalf of the statement at line.
// Statements read before that line keep the slots they were routed with.
func (st *state) release(ids []int, line int64) {
	for _, id := range ids {
		s, ok := st.vars[id]
		if !ok {
			continue
		}
		s.releasedAt = line
		st.released[id] = s.name
		delete(st.vars, id)
		st.names.UnregisterID(id)
	}
}

// checkReleased fails when one of slots was released by a statement read
// before line.
func (st *state) checkReleased(slots []*slot, line int64) error {
	for _, s := range slots {
		if s.releasedAt != 0 && s.releasedAt < line {
			return fmt.Errorf("input %q was released at line %d: %w", s.name, s.releasedAt, errs.ErrInvalidInput)
		}
	}
	return nil
}

// commit binds the outputs of a finished statement and only then charges
// its cost. The returned error is fatal to the session.
func (st *state) commit(u Usage, cost CostFunc) error {
	var values []variable.Variable
	if u.Err == nil && u.Result != nil {
		values = u.Result.Values
	}
	for i, id := range u.Statement.Outputs {
		s, ok := st.vars[id]
		if !ok {
			continue
		}
		switch {
		case u.Err != nil:
			s.fail(u.Err)
		case i < len(values) && values[i].IsValid():
			s.bind(values[i])
		default:
			s.fail(fmt.Errorf("no value produced for output %q", s.name))
		}
	}
	if u.Err == nil && u.Result != nil && u.Result.Release {
		st.release(u.Statement.Inputs, u.Statement.Line)
	}

	charge := cost(u)
	if u.Result != nil {
		var err error
		if charge, err = charge.Add(u.Result.Usage); err != nil {
			return err
		}
	}
	used, err := st.used.Add(charge)
	if err != nil {
		return err
	}
	st.used = used
	return st.plan.Check(used)
}
