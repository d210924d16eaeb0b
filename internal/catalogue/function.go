package catalogue

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/amnis/internal/errs"
	"github.com/vk/amnis/internal/frame"
	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/variable"
)

// FunctionID is the dense numeric id of a registered function.
type FunctionID int32

// FunctionIDFromInt converts a raw integer into a FunctionID for a catalogue
// holding n functions. Anything outside [0, n) fails with ErrFnIDInvalid.
func FunctionIDFromInt(i int64, n int) (FunctionID, error) {
	if i < 0 || i >= int64(n) || i > math.MaxInt32 {
		return 0, fmt.Errorf("function id %d not in [0, %d): %w", i, n, errs.ErrFnIDInvalid)
	}
	return FunctionID(i), nil
}

// Call carries everything a function sees about one statement.
type Call struct {
	Channel int64
	Line    int64
	// Size is the declared length of Body, zero when there is none.
	Size   uint64
	Inputs []variable.Variable
	// Body is nil unless the function declares a binary payload.
	Body []byte
}

// Frame builds the data frame for this call.
func (c *Call) Frame(payload []byte) frame.Frame {
	return frame.New(c.Channel, c.Line, c.Size, payload)
}

// Result is what a function hands back to the engine.
type Result struct {
	Frame frame.Frame
	// Values are bound to the statement's outputs in order. Outputs past the
	// end of Values are left unbound.
	Values []variable.Variable
	// Usage is charged on top of the engine's cost policy, for resources only
	// the function can measure (network traffic, for example).
	Usage gas.Gas
	// Release asks the engine to unbind and unregister the statement's inputs.
	Release bool
}

// Function is one invocable catalogue entry.
type Function interface {
	Name() string
	// HasBinaryPayload reports whether statements calling this function are
	// followed by a body line.
	HasBinaryPayload() bool
	Invoke(ctx context.Context, call *Call) (*Result, error)
}

// Func adapts a plain Go function into a Function.
type Func struct {
	FnName string
	Binary bool
	Fn     func(ctx context.Context, call *Call) (*Result, error)
}

func (f *Func) Name() string           { return f.FnName }
func (f *Func) HasBinaryPayload() bool { return f.Binary }

func (f *Func) Invoke(ctx context.Context, call *Call) (*Result, error) {
	return f.Fn(ctx, call)
}

// Catalogue is the view of the function table consumed by the lexer, the
// assembler and the engine.
type Catalogue interface {
	Resolve(name string) (FunctionID, error)
	HasBinaryPayload(id FunctionID) bool
	Invoke(ctx context.Context, id FunctionID, call *Call) (*Result, error)
}
