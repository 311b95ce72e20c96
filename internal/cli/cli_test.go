package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Flags(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{
		"-r", "rules.hcl", "--rules", "more.yaml",
		"-i", "classes", "-o", "out.jar",
		"--mode", "streaming", "--workers", "3",
		"--reserved-prefix", "com.vendor.",
		"--log-format", "text", "--log-level", "debug",
	}, out)
	require.NoError(t, err)
	require.False(t, shouldExit)

	assert.Equal(t, []string{"rules.hcl", "more.yaml"}, cfg.RulesPaths)
	assert.Equal(t, "classes", cfg.Input)
	assert.Equal(t, "out.jar", cfg.Output)
	assert.Equal(t, "streaming", cfg.Mode)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, []string{"com/vendor/"}, cfg.ReservedPrefixes)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Watch)
}

func TestParse_Environment(t *testing.T) {
	t.Setenv("AUTOREGISTER_LOG_LEVEL", "warn")
	t.Setenv("AUTOREGISTER_WATCH", "true")
	t.Setenv("AUTOREGISTER_HEALTHCHECK_PORT", "9090")

	cfg, _, err := Parse([]string{"-r", "rules.hcl", "-i", "in", "-o", "out"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Watch)
	assert.Equal(t, 9090, cfg.HealthcheckPort)
}

func TestParse_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoregister.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: [a.hcl, b.hcl]\ninput: in\noutput: out\nmode: streaming\n"), 0o644))

	cfg, _, err := Parse([]string{"--config", path}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.hcl", "b.hcl"}, cfg.RulesPaths)
	assert.Equal(t, "streaming", cfg.Mode)
}

func TestParse_Help(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {}} {
		out := &bytes.Buffer{}
		cfg, shouldExit, err := Parse(args, out)
		require.NoError(t, err)
		assert.True(t, shouldExit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string][]string{
		"unknown flag":   {"--nope"},
		"positional arg": {"-r", "r.hcl", "-i", "in", "-o", "out", "extra"},
		"bad log level":  {"-r", "r.hcl", "-i", "in", "-o", "out", "--log-level", "loud"},
		"missing output": {"-r", "r.hcl", "-i", "in"},
		"bad mode":       {"-r", "r.hcl", "-i", "in", "-o", "out", "--mode", "eager"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}

func TestParse_OwnNamespace(t *testing.T) {
	base := []string{"-r", "rules.hcl", "-i", "in", "-o", "out"}

	cfg, _, err := Parse(base, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Nil(t, cfg.OwnNamespace)

	cfg, _, err = Parse(append(base, "--own-namespace", "com.app."), &bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, cfg.OwnNamespace)
	assert.Equal(t, "com/app/", *cfg.OwnNamespace)

	cfg, _, err = Parse(append(base, "--own-namespace="), &bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, cfg.OwnNamespace)
	assert.Empty(t, *cfg.OwnNamespace)
}

func TestParse_RejectsOutputInsideInput(t *testing.T) {
	_, _, err := Parse([]string{"-r", "rules.hcl", "-i", "classes", "-o", "classes/out"}, &bytes.Buffer{})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Message, "inside input")
}
