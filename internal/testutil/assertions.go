package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/amnis/internal/frame"
)

// AssertChannelOrder checks that the frames of channel arrived with the
// given source lines, in that order. Frames of other channels are ignored.
func AssertChannelOrder(t *testing.T, result *HarnessResult, channel int64, lines ...int64) {
	t.Helper()

	var got []int64
	for _, f := range result.Frames {
		if f.Channel == channel {
			got = append(got, f.Line)
		}
	}
	require.Equal(t, lines, got, "frame order on channel %d", channel)
}

// RequireErrorFrame finds the first error frame on channel and returns it.
func RequireErrorFrame(t *testing.T, result *HarnessResult, channel int64) frame.Frame {
	t.Helper()

	for _, f := range result.Frames {
		if f.Channel == channel && f.IsError() {
			return f
		}
	}
	require.Failf(t, "missing error frame", "no error frame on channel %d among %d frames", channel, len(result.Frames))
	return frame.Frame{}
}
