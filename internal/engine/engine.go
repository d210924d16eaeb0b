package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/ctxlog"
	"github.com/vk/amnis/internal/errs"
	"github.com/vk/amnis/internal/gas"
	"github.com/vk/amnis/internal/mux"
)

// Engine starts sessions that share a gas plan and a function catalogue.
// Sessions share nothing else.
type Engine struct {
	plan *gas.Plan
	cat  catalogue.Catalogue
	opts options
}

// New validates plan and returns an Engine. A plan whose cap cannot be
// computed yields no engine. A nil plan means gas.Unrestricted.
func New(plan *gas.Plan, cat catalogue.Catalogue, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("engine needs a function catalogue: %w", errs.ErrInvalidInput)
	}
	if plan == nil {
		plan = gas.Unrestricted()
	}
	if _, err := plan.Cap(); err != nil {
		return nil, fmt.Errorf("invalid gas plan: %w", err)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{plan: plan, cat: cat, opts: o}, nil
}

// Plan returns the gas plan every session runs under.
func (e *Engine) Plan() *gas.Plan {
	return e.plan
}

// Handle starts a session reading statements from in. It returns at once;
// the caller drains the returned Output.
func (e *Engine) Handle(ctx context.Context, in io.Reader) *Output {
	if e.opts.logger != nil {
		ctx = ctxlog.WithLogger(ctx, e.opts.logger)
	}
	ctx, cancel := context.WithCancel(ctx)
	s := newSession(e, mux.New(e.opts.queueSize))
	out := &Output{
		queue:  s.queue,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx, cancel, in, out)
	return out
}
