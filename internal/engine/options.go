package engine

import (
	"log/slog"

	"github.com/vk/amnis/internal/mux"
	"github.com/vk/amnis/internal/variable"
)

// DefaultChannel is the channel name registered first in every session, so
// it always gets id 1.
const DefaultChannel = "1"

// DefaultReadSize is the size of a single read from the input.
const DefaultReadSize = 4096

// Binding is a value bound to a name before the first statement runs.
type Binding struct {
	Name  string
	Value variable.Variable
}

type options struct {
	queueSize      int
	defaultChannel string
	channels       []string
	bindings       []Binding
	cost           CostFunc
	readSize       int
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		queueSize:      mux.DefaultSize,
		defaultChannel: DefaultChannel,
		cost:           DefaultCost,
		readSize:       DefaultReadSize,
	}
}

// Option configures an Engine.
type Option func(*options)

// WithQueueSize bounds the output queue.
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithDefaultChannel renames the pre-registered default channel.
func WithDefaultChannel(name string) Option {
	return func(o *options) {
		if name != "" {
			o.defaultChannel = name
		}
	}
}

// WithChannels pre-registers extra channel names, after the default one.
func WithChannels(names ...string) Option {
	return func(o *options) { o.channels = append(o.channels, names...) }
}

// WithVariables binds values before the session starts. They are
// registered after the channels, in order.
func WithVariables(b ...Binding) Option {
	return func(o *options) { o.bindings = append(o.bindings, b...) }
}

// WithCost replaces DefaultCost.
func WithCost(fn CostFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.cost = fn
		}
	}
}

// WithReadSize sets the size of a single input read.
func WithReadSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readSize = n
		}
	}
}

// WithLogger sets the logger used when the session context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}
