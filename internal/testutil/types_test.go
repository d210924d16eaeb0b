package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecutionRecord_Overlaps(t *testing.T) {
	t0 := time.Now()
	rec := func(from, to int) *ExecutionRecord {
		return &ExecutionRecord{Start: t0.Add(time.Duration(from) * time.Millisecond), End: t0.Add(time.Duration(to) * time.Millisecond)}
	}

	assert.True(t, rec(0, 10).Overlaps(rec(5, 15)))
	assert.True(t, rec(5, 15).Overlaps(rec(0, 10)))
	assert.False(t, rec(0, 10).Overlaps(rec(10, 20)))
	assert.False(t, rec(10, 20).Overlaps(rec(0, 5)))
}
