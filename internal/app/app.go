package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vk/autoregister/internal/config"
	"github.com/vk/autoregister/internal/ctxlog"
	"github.com/vk/autoregister/internal/engine"
	"github.com/vk/autoregister/internal/registry"
	"github.com/vk/autoregister/internal/tracing"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   config.Loader
	registry *registry.Registry
	engine   *engine.Engine
	tracing  *tracing.Provider

	httpServer *http.Server

	mu   sync.Mutex
	last BuildStatus
}

// BuildStatus is the outcome of the most recent build.
type BuildStatus struct {
	Count int
	Stats engine.Stats
	Err   error
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own logger, registry and engine. Rule
// files are read on every build, not here.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	tp, err := tracing.Setup(appConfig.Trace, appConfig.TraceEndpoint, outW)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	reg := registry.New()
	opts := append(appConfig.engineOptions(), engine.WithTracer(tp.Tracer()))

	return &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		loader:   loader,
		registry: reg,
		engine:   engine.New(reg, opts...),
		tracing:  tp,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Engine returns the application's engine. This is primarily for testing.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Close flushes pending spans.
func (a *App) Close(ctx context.Context) error {
	return a.tracing.Shutdown(ctxlog.WithLogger(ctx, a.logger))
}

func (a *App) recordBuild(stats engine.Stats, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = BuildStatus{Count: a.last.Count + 1, Stats: stats, Err: err}
}

// LastBuild returns the outcome of the most recent build.
func (a *App) LastBuild() BuildStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}
