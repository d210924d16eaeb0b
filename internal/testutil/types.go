package testutil

import "time"

// ExecutionRecord holds when one statement's function ran.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether r and o ran at the same time.
func (r *ExecutionRecord) Overlaps(o *ExecutionRecord) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}
