// Package builtin provides the functions every session can rely on. They are
// registered first, so null is always id 0 and echo id 1.
package builtin

import (
	"context"
	"strings"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/ctxlog"
	"github.com/vk/amnis/internal/variable"
)

// Module implements the catalogue.Module interface for this package.
type Module struct{}

// Null does nothing and binds nothing.
func Null(_ context.Context, call *catalogue.Call) (*catalogue.Result, error) {
	return &catalogue.Result{Frame: call.Frame(nil)}, nil
}

// Echo writes its inputs separated by spaces and binds them, in order, to
// the statement's outputs.
func Echo(ctx context.Context, call *catalogue.Call) (*catalogue.Result, error) {
	words := make([]string, len(call.Inputs))
	for i, in := range call.Inputs {
		words[i] = in.String()
	}
	ctxlog.FromContext(ctx).Debug("Echoing inputs.", "count", len(words))
	return &catalogue.Result{
		Frame:  call.Frame([]byte(strings.Join(words, " "))),
		Values: call.Inputs,
	}, nil
}

// Bytes takes a body and binds it as raw bytes.
func Bytes(_ context.Context, call *catalogue.Call) (*catalogue.Result, error) {
	return &catalogue.Result{
		Frame:  call.Frame(call.Body),
		Values: []variable.Variable{variable.Bytes(call.Body)},
	}, nil
}

// Drop unbinds its inputs and removes their names from the session.
func Drop(_ context.Context, call *catalogue.Call) (*catalogue.Result, error) {
	return &catalogue.Result{Frame: call.Frame(nil), Release: true}, nil
}

// Register registers the builtin functions. Order matters.
func (m *Module) Register(r *catalogue.Registry) {
	r.RegisterFunction(&catalogue.Func{FnName: "null", Fn: Null})
	r.RegisterFunction(&catalogue.Func{FnName: "echo", Fn: Echo})
	r.RegisterFunction(&catalogue.Func{FnName: "bytes", Binary: true, Fn: Bytes})
	r.RegisterFunction(&catalogue.Func{FnName: "drop", Fn: Drop})
}
