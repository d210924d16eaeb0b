package gas

import (
	"fmt"
	"math"

	"github.com/vk/amnis/internal/errs"
)

// Limits holds the optional per-dimension caps of a Plan. A nil field means
// the dimension is not capped on its own.
type Limits struct {
	Time     *int64
	Compute  *int64
	Memory   *int64
	Index    *int64
	Blob     *int64
	Upload   *int64
	Download *int64
}

// Get returns the cap of d, nil when it has none.
func (l Limits) Get(d Dimension) *int64 {
	switch d {
	case Time:
		return l.Time
	case Compute:
		return l.Compute
	case Memory:
		return l.Memory
	case Index:
		return l.Index
	case Blob:
		return l.Blob
	case Upload:
		return l.Upload
	case Download:
		return l.Download
	}
	return nil
}

// Set caps d at a copy of *v, or removes the cap when v is nil.
func (l *Limits) Set(d Dimension, v *int64) {
	if v != nil {
		v = Int(*v)
	}
	switch d {
	case Time:
		l.Time = v
	case Compute:
		l.Compute = v
	case Memory:
		l.Memory = v
	case Index:
		l.Index = v
	case Blob:
		l.Blob = v
	case Upload:
		l.Upload = v
	case Download:
		l.Download = v
	}
}

// Rigorous reports whether every dimension has a cap.
func (l Limits) Rigorous() bool {
	for _, d := range Dimensions() {
		if l.Get(d) == nil {
			return false
		}
	}
	return true
}

// sum adds every dimension cap. It must only be called on rigorous limits.
func (l Limits) sum() (int64, error) {
	var total int64
	for _, d := range Dimensions() {
		v, ok := addInt64(total, *l.Get(d))
		if !ok {
			return 0, fmt.Errorf("summing dimension caps at %s: %w", d, errs.ErrGasPlanOverflow)
		}
		total = v
	}
	return total, nil
}

// Plan is an immutable spending cap for one session.
type Plan struct {
	all    *int64
	limits Limits
}

// Int returns a pointer to v, for building Limits literals.
func Int(v int64) *int64 {
	return &v
}

// NewPlan validates and builds a Plan. When all is nil every dimension of
// limits must be set, otherwise the plan would be uncapped and NewPlan fails
// with ErrInfGasPlan.
func NewPlan(all *int64, limits Limits) (*Plan, error) {
	if all == nil && !limits.Rigorous() {
		return nil, errs.ErrInfGasPlan
	}
	p := &Plan{limits: copyLimits(limits)}
	if all != nil {
		p.all = Int(*all)
	}
	return p, nil
}

// Unrestricted returns the plan used by default and debug sessions: an
// overall cap of math.MaxInt64 and no per-dimension caps.
func Unrestricted() *Plan {
	return &Plan{all: Int(math.MaxInt64)}
}

// All returns the overall cap, if one is set.
func (p *Plan) All() (int64, bool) {
	if p.all == nil {
		return 0, false
	}
	return *p.all, true
}

// Limits returns a copy of the per-dimension caps.
func (p *Plan) Limits() Limits {
	return copyLimits(p.limits)
}

// Cap returns the effective cap: the smaller of the overall cap and the sum
// of dimension caps when every dimension is capped, the overall cap otherwise.
func (p *Plan) Cap() (int64, error) {
	if !p.limits.Rigorous() {
		// NewPlan guarantees all is set here.
		return *p.all, nil
	}
	sum, err := p.limits.sum()
	if err != nil {
		return 0, err
	}
	if p.all != nil {
		return min(*p.all, sum), nil
	}
	return sum, nil
}

// Check compares a ledger against the plan. It fails with ErrGasExhausted
// when the total passes the effective cap or when a capped dimension passes
// its own cap.
func (p *Plan) Check(used Gas) error {
	limit, err := p.Cap()
	if err != nil {
		return err
	}
	total, err := used.Sum()
	if err != nil {
		return fmt.Errorf("usage total does not fit in int64: %w", errs.ErrGasExhausted)
	}
	if total > limit {
		return fmt.Errorf("used %d of %d: %w", total, limit, errs.ErrGasExhausted)
	}
	for _, d := range Dimensions() {
		if c := p.limits.Get(d); c != nil && used.Get(d) > *c {
			return fmt.Errorf("%s used %d of %d: %w", d, used.Get(d), *c, errs.ErrGasExhausted)
		}
	}
	return nil
}

func copyLimits(l Limits) Limits {
	var out Limits
	dup := func(v *int64) *int64 {
		if v == nil {
			return nil
		}
		return Int(*v)
	}
	out.Time = dup(l.Time)
	out.Compute = dup(l.Compute)
	out.Memory = dup(l.Memory)
	out.Index = dup(l.Index)
	out.Blob = dup(l.Blob)
	out.Upload = dup(l.Upload)
	out.Download = dup(l.Download)
	return out
}
