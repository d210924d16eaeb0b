package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/engine"
	"github.com/vk/amnis/internal/frame"
	"github.com/vk/amnis/internal/gas"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcome of one session.
type HarnessResult struct {
	Frames    []frame.Frame
	Err       error
	Used      gas.Gas
	LogOutput string
}

// ByChannel groups frames by channel, keeping their order.
func (r *HarnessResult) ByChannel() map[int64][]frame.Frame {
	out := make(map[int64][]frame.Frame)
	for _, f := range r.Frames {
		out[f.Channel] = append(out[f.Channel], f)
	}
	return out
}

// Payloads returns the payloads of every frame, in delivery order.
func (r *HarnessResult) Payloads() []string {
	out := make([]string, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = string(f.Payload)
	}
	return out
}

// RunSession runs input through a fresh engine and collects every frame.
// A nil plan runs unrestricted.
func RunSession(t *testing.T, plan *gas.Plan, cat catalogue.Catalogue, input string, opts ...engine.Option) *HarnessResult {
	t.Helper()
	return RunSessionWithContext(context.Background(), t, plan, cat, input, opts...)
}

// RunSessionWithContext is RunSession under a caller supplied context.
func RunSessionWithContext(ctx context.Context, t *testing.T, plan *gas.Plan, cat catalogue.Catalogue, input string, opts ...engine.Option) *HarnessResult {
	t.Helper()

	logBuffer := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts = append([]engine.Option{engine.WithLogger(logger)}, opts...)

	e, err := engine.New(plan, cat, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out := e.Handle(ctx, strings.NewReader(input))
	var frames []frame.Frame
	for {
		f, ok := out.Next(ctx)
		if !ok {
			break
		}
		frames = append(frames, f)
	}
	runErr := out.Wait()

	if os.Getenv("AMNIS_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		Frames:    frames,
		Err:       runErr,
		Used:      out.Used(),
		LogOutput: logBuffer.String(),
	}
}
