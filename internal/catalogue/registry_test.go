package catalogue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/amnis/internal/errs"
	"github.com/vk/amnis/internal/variable"
)

type testModule struct{}

func (testModule) Register(r *Registry) {
	r.RegisterFunction(&Func{FnName: "first", Fn: func(_ context.Context, c *Call) (*Result, error) {
		return &Result{Frame: c.Frame([]byte("one")), Values: c.Inputs}, nil
	}})
	r.RegisterFunction(&Func{FnName: "second", Binary: true, Fn: func(_ context.Context, c *Call) (*Result, error) {
		return nil, nil
	}})
	r.RegisterFunction(&Func{FnName: "broken", Fn: func(context.Context, *Call) (*Result, error) {
		return nil, errors.New("kaput")
	}})
}

func TestFunctionIDFromInt(t *testing.T) {
	testCases := []struct {
		name      string
		raw       int64
		expectErr bool
	}{
		{name: "zero", raw: 0},
		{name: "last", raw: 1},
		{name: "error - past end", raw: 2, expectErr: true},
		{name: "error - negative", raw: -1, expectErr: true},
		{name: "error - huge", raw: 1 << 40, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := FunctionIDFromInt(tc.raw, 2)
			if tc.expectErr {
				require.ErrorIs(t, err, errs.ErrFnIDInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, FunctionID(tc.raw), id)
		})
	}
}

func TestRegistry_ResolveAndDeclare(t *testing.T) {
	r := NewWithModules(testModule{})
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"first", "second", "broken"}, r.Names())

	id, err := r.Resolve("second")
	require.NoError(t, err)
	assert.Equal(t, FunctionID(1), id)
	assert.True(t, r.HasBinaryPayload(id))
	assert.False(t, r.HasBinaryPayload(0))
	assert.False(t, r.HasBinaryPayload(99))

	_, err = r.Resolve("missing")
	require.ErrorIs(t, err, errs.ErrFnNotFound)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewWithModules(testModule{})
	assert.Panics(t, func() { testModule{}.Register(r) })
}

func TestRegistry_Invoke(t *testing.T) {
	ctx := context.Background()
	r := NewWithModules(testModule{})
	call := &Call{Channel: 2, Line: 5, Inputs: []variable.Variable{variable.I64(1)}}

	res, err := r.Invoke(ctx, 0, call)
	require.NoError(t, err)
	assert.Equal(t, "one", string(res.Frame.Payload))
	assert.Equal(t, int64(2), res.Frame.Channel)
	assert.Equal(t, int64(5), res.Frame.Line)
	assert.Equal(t, call.Inputs, res.Values)

	res, err = r.Invoke(ctx, 1, call)
	require.NoError(t, err, "a nil result becomes an empty frame")
	assert.Empty(t, res.Frame.Payload)

	_, err = r.Invoke(ctx, 2, call)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: kaput")

	_, err = r.Invoke(ctx, 7, call)
	require.ErrorIs(t, err, errs.ErrFnNotFound)
	require.ErrorIs(t, err, errs.ErrFnIDInvalid)
}
