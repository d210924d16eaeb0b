package config

import (
	"time"

	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/variable"
)

// Model is the unified representation of a session configuration.
type Model struct {
	Session   Session
	Gas       Gas
	Variables []*Variable
	Fetch     Fetch
	SocketIO  SocketIO
}

// Session holds engine settings. Zero values mean engine defaults.
type Session struct {
	QueueSize      int
	DefaultChannel string
	Channels       []string
}

// Gas is the budget as configured. When nothing is set the session runs
// unrestricted.
type Gas struct {
	All    *int64
	Limits gas.Limits
}

// IsSet reports whether any cap was configured.
func (g Gas) IsSet() bool {
	if g.All != nil {
		return true
	}
	for _, d := range gas.Dimensions() {
		if g.Limits.Get(d) != nil {
			return true
		}
	}
	return false
}

// Plan builds the gas plan, validating it.
func (g Gas) Plan() (*gas.Plan, error) {
	if !g.IsSet() {
		return gas.Unrestricted(), nil
	}
	return gas.NewPlan(g.All, g.Limits)
}

// Variable is a value bound before the first statement runs.
type Variable struct {
	Name  string
	Value variable.Variable
}

// Fetch configures the HTTP fetch function.
type Fetch struct {
	Timeout time.Duration
}

// SocketIO configures the Socket.IO emit function.
type SocketIO struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Merge overlays o on m: scalars set in o win, lists are appended.
func (m *Model) Merge(o *Model) {
	if o == nil {
		return
	}
	if o.Session.QueueSize != 0 {
		m.Session.QueueSize = o.Session.QueueSize
	}
	if o.Session.DefaultChannel != "" {
		m.Session.DefaultChannel = o.Session.DefaultChannel
	}
	m.Session.Channels = append(m.Session.Channels, o.Session.Channels...)

	if o.Gas.All != nil {
		m.Gas.All = o.Gas.All
	}
	for _, d := range gas.Dimensions() {
		if v := o.Gas.Limits.Get(d); v != nil {
			m.Gas.Limits.Set(d, v)
		}
	}

	m.Variables = append(m.Variables, o.Variables...)

	if o.Fetch.Timeout != 0 {
		m.Fetch.Timeout = o.Fetch.Timeout
	}
	if o.SocketIO.Timeout != 0 {
		m.SocketIO.Timeout = o.SocketIO.Timeout
	}
	m.SocketIO.InsecureSkipVerify = m.SocketIO.InsecureSkipVerify || o.SocketIO.InsecureSkipVerify
}
