package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/variable"
)

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// It registers "sleep", which waits, records when it ran and echoes its
// inputs.
type MockSleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// RecordKey names the record of the statement at line on channel.
func RecordKey(channel, line int64) string {
	return fmt.Sprintf("%d:%d", channel, line)
}

// Record returns the execution record of one statement.
func (m *MockSleeperModule) Record(channel, line int64) (*ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ExecutionTimes[RecordKey(channel, line)]
	return r, ok
}

// Register registers the "sleep" function.
func (m *MockSleeperModule) Register(r *catalogue.Registry) {
	r.RegisterFunction(&catalogue.Func{
		FnName: "sleep",
		Fn: func(ctx context.Context, call *catalogue.Call) (*catalogue.Result, error) {
			startTime := time.Now()
			select {
			case <-time.After(m.sleepDuration):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			endTime := time.Now()

			key := RecordKey(call.Channel, call.Line)
			m.mu.Lock()
			m.ExecutionTimes[key] = &ExecutionRecord{Start: startTime, End: endTime}
			m.mu.Unlock()

			if m.completionChan != nil {
				m.completionChan <- key
			}
			words := make([]string, len(call.Inputs))
			for i, in := range call.Inputs {
				words[i] = in.String()
			}
			payload := strings.Join(words, " ")
			return &catalogue.Result{
				Frame:  call.Frame([]byte(payload)),
				Values: []variable.Variable{variable.Str(payload)},
			}, nil
		},
	})
}
