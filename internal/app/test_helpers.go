package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/hclconfig"
	"github.com/vk/amnis/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. Frames go to
// the first buffer and debug logs to the second.
func SetupAppTest(t *testing.T, cfg *Config, modules ...catalogue.Module) (*App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()

	outBuffer := &testutil.SafeBuffer{}
	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp, err := NewApp(outBuffer, logBuffer, cfg, hclconfig.NewLoader(), modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("AMNIS_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, outBuffer, logBuffer
}
