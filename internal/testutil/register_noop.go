package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/variable"
)

// ErrScripted is returned by the "fail" function of ScriptedModule.
var ErrScripted = errors.New("scripted failure")

// ScriptedModule registers small deterministic functions for engine tests:
//
//   - "null" does nothing and binds nothing.
//   - "echo" joins its inputs with spaces and binds them back in order.
//   - "blob" takes a body, returns it as payload and binds it as bytes.
//   - "fail" always fails with ErrScripted.
//   - "spend" reports Usage as its own gas usage.
//   - "forget" releases its inputs.
//
// Every call is recorded in Calls.
type ScriptedModule struct {
	Usage gas.Gas

	mu    sync.Mutex
	calls []catalogue.Call
}

// Calls returns a copy of the recorded calls, in invocation order.
func (m *ScriptedModule) Calls() []catalogue.Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]catalogue.Call(nil), m.calls...)
}

func (m *ScriptedModule) record(call *catalogue.Call) {
	m.mu.Lock()
	m.calls = append(m.calls, *call)
	m.mu.Unlock()
}

func (m *ScriptedModule) fn(name string, binary bool, body func(*catalogue.Call) (*catalogue.Result, error)) *catalogue.Func {
	return &catalogue.Func{
		FnName: name,
		Binary: binary,
		Fn: func(_ context.Context, call *catalogue.Call) (*catalogue.Result, error) {
			m.record(call)
			return body(call)
		},
	}
}

// Register registers the scripted functions.
func (m *ScriptedModule) Register(r *catalogue.Registry) {
	r.RegisterFunction(m.fn("null", false, func(call *catalogue.Call) (*catalogue.Result, error) {
		return &catalogue.Result{Frame: call.Frame(nil)}, nil
	}))
	r.RegisterFunction(m.fn("echo", false, func(call *catalogue.Call) (*catalogue.Result, error) {
		words := make([]string, len(call.Inputs))
		for i, in := range call.Inputs {
			words[i] = in.String()
		}
		return &catalogue.Result{
			Frame:  call.Frame([]byte(strings.Join(words, " "))),
			Values: call.Inputs,
		}, nil
	}))
	r.RegisterFunction(m.fn("blob", true, func(call *catalogue.Call) (*catalogue.Result, error) {
		return &catalogue.Result{
			Frame:  call.Frame(call.Body),
			Values: []variable.Variable{variable.Bytes(call.Body)},
		}, nil
	}))
	r.RegisterFunction(m.fn("fail", false, func(*catalogue.Call) (*catalogue.Result, error) {
		return nil, ErrScripted
	}))
	r.RegisterFunction(m.fn("spend", false, func(call *catalogue.Call) (*catalogue.Result, error) {
		return &catalogue.Result{Frame: call.Frame([]byte("spent")), Usage: m.Usage}, nil
	}))
	r.RegisterFunction(m.fn("forget", false, func(call *catalogue.Call) (*catalogue.Result, error) {
		return &catalogue.Result{Frame: call.Frame(nil), Release: true}, nil
	}))
}
