package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/autoregister/internal/archive"
	"github.com/vk/autoregister/internal/config"
	"github.com/vk/autoregister/internal/ctxlog"
	"github.com/vk/autoregister/internal/engine"
)

// Run performs one build, then keeps rebuilding on changes when watch mode
// is enabled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if _, err := a.Build(ctx); err != nil {
		if !a.config.Watch {
			return err
		}
		a.logger.Error("Initial build failed, waiting for changes.", "error", err)
	}
	if !a.config.Watch {
		a.logger.Debug("App.Run method finished.")
		return nil
	}

	if a.config.HealthcheckPort > 0 {
		a.healthCheckServer(ctx)
		defer a.closeHealthCheckServer(ctx)
	}
	return a.watch(ctx)
}

// Build runs one complete build invocation: it reads the rule files,
// configures the engine (resetting the registry entries of the active
// rules), and rewrites Input into Output.
func (a *App) Build(ctx context.Context) (stats engine.Stats, err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	defer func() { a.recordBuild(stats, err) }()

	model, err := a.loader.Load(ctx, a.config.RulesPaths...)
	if err != nil {
		return stats, fmt.Errorf("failed to load rules: %w", err)
	}
	rules := config.Convert(ctx, model)
	if len(model.Descriptors) > 0 && len(rules) == 0 {
		return stats, fmt.Errorf("%w: none of %d descriptors names both scanInterface and codeInsertToClassName", engine.ErrNoValidRules, len(model.Descriptors))
	}
	if len(rules) == 0 {
		a.logger.Warn("No registration rules configured, copying input unchanged.")
	}

	if err := a.engine.Configure(ctx, rules); err != nil {
		return stats, err
	}
	defer a.engine.Finish()

	src, err := archive.Open(a.config.Input)
	if err != nil {
		return stats, fmt.Errorf("failed to open input: %w", err)
	}
	defer src.Close()

	sink, err := archive.Create(a.config.Output)
	if err != nil {
		return stats, fmt.Errorf("failed to create output: %w", err)
	}

	a.logger.Info("Build started.", "input", a.config.Input, "output", a.config.Output, "rules", len(rules))
	stats, err = a.engine.Run(ctx, src, sink)
	if closeErr := sink.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to write output: %w", closeErr))
	}
	if err != nil {
		return stats, fmt.Errorf("build failed: %w", err)
	}

	for _, r := range rules {
		a.logger.Info("Rule applied.",
			"interface", r.InterfaceName,
			"target", r.InitClassName+"."+r.InitMethodName,
			"registered", stats.Registered[r.ID],
		)
	}
	a.logger.Info("Build finished.", "units", stats.Units, "modified", stats.Modified, "failed", stats.Failed)
	return stats, nil
}
