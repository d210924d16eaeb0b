package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/errs"
	"github.com/vk/amnis/internal/frame"
	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/statement"
	"github.com/vk/amnis/internal/variable"
)

func TestState_CommitBindsBeforeCharging(t *testing.T) {
	plan, err := gas.NewPlan(gas.Int(0), gas.Limits{})
	require.NoError(t, err)
	st := newState(plan)
	out := st.register("x")

	u := Usage{
		Statement: &statement.Statement{Outputs: []int{out}},
		Result:    &catalogue.Result{Values: []variable.Variable{variable.I64(7)}},
	}
	err = st.commit(u, DefaultCost)
	require.ErrorIs(t, err, errs.ErrGasExhausted)

	s := st.vars[out]
	select {
	case <-s.ready:
	default:
		t.Fatal("output still pending after commit")
	}
	assert.Equal(t, slotBound, s.state)
	assert.Equal(t, variable.I64(7), s.value)
	assert.Equal(t, int64(1), st.used.Compute)
}

func TestState_CommitFailsMissingOutputs(t *testing.T) {
	st := newState(gas.Unrestricted())
	x, y := st.register("x"), st.register("y")

	u := Usage{
		Statement: &statement.Statement{Outputs: []int{x, y}},
		Result:    &catalogue.Result{Values: []variable.Variable{variable.Str("only one")}},
	}
	require.NoError(t, st.commit(u, DefaultCost))
	assert.Equal(t, slotBound, st.vars[x].state)
	assert.Equal(t, slotFailed, st.vars[y].state)
	assert.Contains(t, st.vars[y].err.Error(), `"y"`)

	boom := errors.New("boom")
	z := st.register("z")
	require.NoError(t, st.commit(Usage{Statement: &statement.Statement{Outputs: []int{z}}, Err: boom}, DefaultCost))
	assert.ErrorIs(t, st.vars[z].err, boom)
}

func TestState_Release(t *testing.T) {
	st := newState(gas.Unrestricted())
	a := st.preset("a", variable.Str("v"))

	u := Usage{
		Statement: &statement.Statement{Line: 2, Inputs: []int{a}},
		Result:    &catalogue.Result{Release: true},
	}
	held, err := st.slots([]int{a})
	require.NoError(t, err)
	require.NoError(t, st.commit(u, DefaultCost))

	_, ok := st.names.ID("a")
	assert.False(t, ok)
	_, err = st.slots([]int{a})
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Contains(t, err.Error(), `"a"`)
	assert.Contains(t, err.Error(), "was released")

	require.NoError(t, st.checkReleased(held, 1), "a statement read before the release keeps the slot")
	require.NoError(t, st.checkReleased(held, 2))
	err = st.checkReleased(held, 3)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 2")
}

func TestState_ShadowedIDKeepsItsValue(t *testing.T) {
	st := newState(gas.Unrestricted())
	old := st.preset("a", variable.I32(1))
	fresh := st.preset("a", variable.I32(2))

	slots, err := st.slots([]int{old, fresh})
	require.NoError(t, err)
	assert.Equal(t, variable.I32(1), slots[0].value)
	assert.Equal(t, variable.I32(2), slots[1].value)
}

func TestState_NoLanesAfterClose(t *testing.T) {
	st := newState(gas.Unrestricted())
	_, created, err := st.lane(1)
	require.NoError(t, err)
	assert.True(t, created)

	st.closeLanes()
	ln, created, err := st.lane(1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NotNil(t, ln)

	_, _, err = st.lane(2)
	require.ErrorIs(t, err, errs.ErrClosed)
}

func TestLane_FIFOAndClose(t *testing.T) {
	ln := newLane(1)
	for i := int64(1); i <= 3; i++ {
		ln.push(job{diag: frame.New(1, i, 0, nil)})
	}
	ln.close()

	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		j, ok := ln.pop(ctx)
		require.True(t, ok)
		assert.Equal(t, i, j.diag.Line)
	}
	_, ok := ln.pop(ctx)
	assert.False(t, ok)
}

func TestLane_PopWaitsForPush(t *testing.T) {
	ln := newLane(1)
	got := make(chan job, 1)
	go func() {
		j, _ := ln.pop(context.Background())
		got <- j
	}()

	time.Sleep(10 * time.Millisecond)
	ln.push(job{diag: frame.New(1, 42, 0, nil)})

	select {
	case j := <-got:
		assert.Equal(t, int64(42), j.diag.Line)
	case <-time.After(5 * time.Second):
		t.Fatal("pop did not wake up")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := ln.pop(ctx)
	assert.False(t, ok)
}

func TestDefaultCost(t *testing.T) {
	u := Usage{
		Statement: &statement.Statement{Outputs: []int{1, 2}, Body: []byte("abc")},
		Result: &catalogue.Result{
			Frame:  frame.New(1, 1, 3, []byte("payload")),
			Values: []variable.Variable{variable.Str("ab"), variable.I64(1)},
		},
		Elapsed: 3 * time.Millisecond,
	}

	g := DefaultCost(u)
	assert.Equal(t, int64(1), g.Compute)
	assert.Equal(t, int64(3), g.Time)
	assert.Equal(t, int64(2), g.Index)
	assert.Equal(t, int64(3), g.Upload)
	assert.Equal(t, int64(7), g.Blob)
	assert.Equal(t, variable.Str("ab").Size()+variable.I64(1).Size(), g.Memory)
	assert.Zero(t, g.Download)
}
