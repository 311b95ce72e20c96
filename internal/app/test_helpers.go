package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/autoregister/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing, logging at
// debug level into the returned buffer. Set AUTOREGISTER_TEST_LOGS=true to
// dump the log of every test.
func SetupAppTest(t *testing.T, appConfig Config) (*App, *testutil.SafeBuffer) {
	t.Helper()

	if appConfig.LogFormat == "" {
		appConfig.LogFormat = "text"
	}
	appConfig.LogLevel = "debug"
	cfg, err := NewConfig(appConfig)
	require.NoError(t, err)

	logBuffer := &testutil.SafeBuffer{}
	testApp, err := NewApp(logBuffer, cfg, DefaultLoader())
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("AUTOREGISTER_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return testApp, logBuffer
}
