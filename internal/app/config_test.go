package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/autoregister/internal/engine"
	"github.com/vk/autoregister/internal/registry"
)

func validConfig() Config {
	return Config{
		RulesPaths: []string{"rules.hcl"},
		Input:      "classes",
		Output:     "out",
		LogFormat:  "TEXT",
		LogLevel:   "Info",
	}
}

func TestNewConfig(t *testing.T) {
	cfg := validConfig()
	cfg.ReservedPrefixes = []string{"com.vendor."}
	ns := "com.app."
	cfg.OwnNamespace = &ns

	got, err := NewConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "text", got.LogFormat)
	assert.Equal(t, "info", got.LogLevel)
	assert.Equal(t, []string{"com/vendor/"}, got.ReservedPrefixes)
	require.NotNil(t, got.OwnNamespace)
	assert.Equal(t, "com/app/", *got.OwnNamespace)
	assert.Equal(t, "com.app.", ns, "the caller's value is not rewritten")
}

func TestNewConfig_Invalid(t *testing.T) {
	cases := map[string]func(*Config){
		"no rules":         func(c *Config) { c.RulesPaths = nil },
		"no input":         func(c *Config) { c.Input = "" },
		"no output":        func(c *Config) { c.Output = "" },
		"in place":         func(c *Config) { c.Output = c.Input },
		"bad mode":         func(c *Config) { c.Mode = "eager" },
		"bad format":       func(c *Config) { c.LogFormat = "xml" },
		"bad level":        func(c *Config) { c.LogLevel = "trace" },
		"negative workers": func(c *Config) { c.Workers = -1 },
		"health, no watch": func(c *Config) { c.HealthcheckPort = 8080 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			_, err := NewConfig(cfg)
			require.Error(t, err)
		})
	}
}

func TestNewConfig_RejectsOverlappingInputAndOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "classes")
	sep := string(filepath.Separator)
	cases := map[string]struct{ input, output string }{
		"trailing separator":  {in, in + sep},
		"dot segment":         {in, dir + sep + "." + sep + "classes"},
		"relative and dotted": {"classes", "./classes"},
		"output inside input": {in, filepath.Join(in, "out")},
		"jar inside input":    {in, filepath.Join(in, "app.jar")},
		"input inside output": {filepath.Join(dir, "out", "classes"), filepath.Join(dir, "out")},
		"parent segment":      {in, in + sep + "sub" + sep + ".."},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Input, cfg.Output = tc.input, tc.output
			_, err := NewConfig(cfg)
			require.Error(t, err)
		})
	}
}

func TestNewConfig_AcceptsSiblingPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig()
	cfg.Input = filepath.Join(dir, "classes")
	cfg.Output = filepath.Join(dir, "classes-out")
	_, err := NewConfig(cfg)
	require.NoError(t, err)

	cfg.Input = filepath.Join(dir, "app.jar")
	cfg.Output = filepath.Join(dir, "app-registered.jar")
	_, err = NewConfig(cfg)
	require.NoError(t, err)
}

func TestEngineOptions_OwnNamespace(t *testing.T) {
	offered := func(ns *string) bool {
		cfg := validConfig()
		cfg.OwnNamespace = ns
		got, err := NewConfig(cfg)
		require.NoError(t, err)
		// com/billy/ sits below a reserved prefix here, so only the own
		// namespace can offer it.
		got.ReservedPrefixes = []string{"com/"}
		return engine.New(registry.New(), got.engineOptions()...).Offered("com/billy/Plugin")
	}
	empty := ""
	assert.True(t, offered(nil), "unset keeps the default namespace")
	assert.False(t, offered(&empty), "empty disables the default namespace")
}
