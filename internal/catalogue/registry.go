package catalogue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/amnis/internal/errs"
)

// Module is the interface that every function module implements to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry is the concrete Catalogue.
type Registry struct {
	functions []Function
	byName    map[string]FunctionID
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[string]FunctionID)}
}

// NewWithModules creates a Registry and registers every module in order.
func NewWithModules(modules ...Module) *Registry {
	r := New()
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterFunction adds fn under the next free id and returns that id. It
// panics on a duplicate name: that is a wiring bug, not a runtime condition.
func (r *Registry) RegisterFunction(fn Function) FunctionID {
	name := fn.Name()
	if _, exists := r.byName[name]; exists {
		panic(fmt.Sprintf("function with name '%s' already registered", name))
	}
	id := FunctionID(len(r.functions))
	slog.Debug("Registering function.", "name", name, "id", id, "binary", fn.HasBinaryPayload())
	r.functions = append(r.functions, fn)
	r.byName[name] = id
	return id
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	return len(r.functions)
}

// Names lists the registered names in id order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.functions))
	for i, fn := range r.functions {
		names[i] = fn.Name()
	}
	return names
}

// Resolve returns the id registered for name.
func (r *Registry) Resolve(name string) (FunctionID, error) {
	id, ok := r.byName[name]
	if !ok {
		return 0, fmt.Errorf("function %q: %w", name, errs.ErrFnNotFound)
	}
	return id, nil
}

// Function returns the implementation behind id. An id outside the table
// fails with both ErrFnNotFound and ErrFnIDInvalid.
func (r *Registry) Function(id FunctionID) (Function, error) {
	checked, err := FunctionIDFromInt(int64(id), len(r.functions))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrFnNotFound, err)
	}
	return r.functions[checked], nil
}

// HasBinaryPayload reports the body declaration of id; unknown ids declare
// no body.
func (r *Registry) HasBinaryPayload(id FunctionID) bool {
	fn, err := r.Function(id)
	if err != nil {
		return false
	}
	return fn.HasBinaryPayload()
}

// Invoke runs the function behind id.
func (r *Registry) Invoke(ctx context.Context, id FunctionID, call *Call) (*Result, error) {
	fn, err := r.Function(id)
	if err != nil {
		return nil, err
	}
	res, err := fn.Invoke(ctx, call)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	if res == nil {
		res = &Result{Frame: call.Frame(nil)}
	}
	return res, nil
}
