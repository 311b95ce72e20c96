package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/autoregister/internal/engine"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	RulesPaths []string // .hcl/.yaml files or directories
	Input      string   // class directory or jar
	Output     string   // class directory or jar

	Mode             string
	Workers          int
	ReservedPrefixes []string
	OwnNamespace     *string // nil keeps the engine default, empty disables it

	LogFormat       string
	LogLevel        string
	Trace           bool
	TraceEndpoint   string // OTLP gRPC collector; empty writes spans to the log output
	Watch           bool
	HealthcheckPort int
}

// NewConfig validates cfg and returns a copy with names normalized.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.RulesPaths) == 0 {
		return nil, errors.New("at least one rules path is required")
	}
	if cfg.Input == "" {
		return nil, errors.New("input is a required configuration field and cannot be empty")
	}
	if cfg.Output == "" {
		return nil, errors.New("output is a required configuration field and cannot be empty")
	}
	if err := checkSeparate(cfg.Input, cfg.Output); err != nil {
		return nil, err
	}

	cfg.Mode = strings.ToLower(cfg.Mode)
	if _, err := engine.ParseMode(cfg.Mode); err != nil {
		return nil, err
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.HealthcheckPort > 0 && !cfg.Watch {
		return nil, errors.New("the health check server is only available in watch mode")
	}
	for i, p := range cfg.ReservedPrefixes {
		cfg.ReservedPrefixes[i] = strings.ReplaceAll(p, ".", "/")
	}
	if cfg.OwnNamespace != nil {
		ns := strings.ReplaceAll(*cfg.OwnNamespace, ".", "/")
		cfg.OwnNamespace = &ns
	}
	return &cfg, nil
}

// checkSeparate rejects an output that is the input or lies inside it, and an
// input inside the output. Either way a build would read its own results.
func checkSeparate(input, output string) error {
	in, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("failed to resolve input %s: %w", input, err)
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("failed to resolve output %s: %w", output, err)
	}
	switch {
	case in == out:
		return errors.New("output must differ from input")
	case within(out, in):
		return fmt.Errorf("output %s must not be inside input %s", output, input)
	case within(in, out):
		return fmt.Errorf("input %s must not be inside output %s", input, output)
	}
	return nil
}

// engineOptions maps the config onto engine options.
func (c *Config) engineOptions() []engine.Option {
	mode, _ := engine.ParseMode(c.Mode)
	opts := []engine.Option{engine.WithMode(mode), engine.WithWorkers(c.Workers)}
	if len(c.ReservedPrefixes) > 0 {
		opts = append(opts, engine.WithReservedPrefixes(c.ReservedPrefixes...))
	}
	if c.OwnNamespace != nil {
		opts = append(opts, engine.WithOwnNamespace(*c.OwnNamespace))
	}
	return opts
}
