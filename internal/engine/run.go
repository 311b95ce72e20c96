package engine

import (
	"context"
	"sync/atomic"

	"github.com/vk/autoregister/internal/archive"
	"github.com/vk/autoregister/internal/ctxlog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Stats summarizes one Run.
type Stats struct {
	// Units counts every unit read from the source.
	Units int
	// Classes counts the units holding class files.
	Classes int
	// Modified counts the units whose bytes changed.
	Modified int
	// Failed counts the units passed through after a decode or rewrite error.
	Failed int
	// Registered holds the number of classes recorded per rule ID.
	Registered map[string]int
}

type counters struct {
	units, classes, modified, failed atomic.Int64
}

func (c *counters) record(u archive.Unit, o outcome) {
	c.units.Add(1)
	if u.IsClass() {
		c.classes.Add(1)
	}
	switch o {
	case modified:
		c.modified.Add(1)
	case failed:
		c.failed.Add(1)
	}
}

// Run reads every unit from src, processes it according to the engine's mode
// and writes the result to sink. Per-unit failures are counted and logged;
// only source, sink and context errors abort the run. The sink is not closed.
func (e *Engine) Run(ctx context.Context, src archive.Source, sink archive.Sink) (Stats, error) {
	p, err := e.visiting()
	if err != nil {
		return Stats{}, err
	}
	logger := ctxlog.FromContext(ctx)

	ctx, span := e.tracer.Start(ctx, "engine.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("mode", e.mode.String()),
		attribute.Int("rules", len(p.rules)),
		attribute.Int("workers", e.workers),
	)

	var c counters
	switch e.mode {
	case Streaming:
		err = e.runStreaming(ctx, p, src, sink, &c)
	default:
		err = e.runBarrier(ctx, p, src, sink, &c)
	}

	stats := Stats{
		Units:      int(c.units.Load()),
		Classes:    int(c.classes.Load()),
		Modified:   int(c.modified.Load()),
		Failed:     int(c.failed.Load()),
		Registered: make(map[string]int, len(p.rules)),
	}
	for _, r := range p.rules {
		stats.Registered[r.ID] = e.registry.Len(r.ID)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Build aborted.", "error", err)
		return stats, err
	}
	logger.Info("Build finished.",
		"units", stats.Units,
		"classes", stats.Classes,
		"modified", stats.Modified,
		"failed", stats.Failed,
	)
	return stats, nil
}

// runStreaming visits each unit once, scanning and injecting together.
func (e *Engine) runStreaming(ctx context.Context, p *plan, src archive.Source, sink archive.Sink, c *counters) error {
	return e.forEach(ctx, walkFeed(src), func(ctx context.Context, u archive.Unit) error {
		out, o := e.process(ctx, p.full, u)
		c.record(u, o)
		return sink.Put(out)
	})
}

// runBarrier loads every unit, scans all of them, and only then injects.
func (e *Engine) runBarrier(ctx context.Context, p *plan, src archive.Source, sink archive.Sink, c *counters) error {
	logger := ctxlog.FromContext(ctx)

	var units []archive.Unit
	if err := src.Walk(ctx, func(u archive.Unit) error {
		units = append(units, u)
		return nil
	}); err != nil {
		return err
	}
	logger.Debug("Units loaded.", "count", len(units))

	// Scanning runs in source order so registration order is reproducible.
	// Units that fail to decode here are not decoded again.
	broken := make(map[string]bool)
	scanCtx, scanSpan := e.tracer.Start(ctx, "engine.scan")
	for _, u := range units {
		if err := scanCtx.Err(); err != nil {
			scanSpan.End()
			return err
		}
		if _, o := e.process(scanCtx, p.scanOnly, u); o == failed {
			broken[u.Path] = true
		}
	}
	scanSpan.End()
	logger.Debug("Scan phase finished.")

	injectCtx, injectSpan := e.tracer.Start(ctx, "engine.inject")
	defer injectSpan.End()
	return e.forEach(injectCtx, sliceFeed(units), func(ctx context.Context, u archive.Unit) error {
		if broken[u.Path] {
			c.record(u, failed)
			return sink.Put(u)
		}
		out, o := e.process(ctx, p.injectOnly, u)
		c.record(u, o)
		return sink.Put(out)
	})
}

type feedFunc func(ctx context.Context, units chan<- archive.Unit) error

func walkFeed(src archive.Source) feedFunc {
	return func(ctx context.Context, units chan<- archive.Unit) error {
		return src.Walk(ctx, func(u archive.Unit) error {
			select {
			case units <- u:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
}

func sliceFeed(all []archive.Unit) feedFunc {
	return func(ctx context.Context, units chan<- archive.Unit) error {
		for _, u := range all {
			select {
			case units <- u:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
}

// forEach hands every fed unit to one of e.workers workers and stops at the
// first error.
func (e *Engine) forEach(ctx context.Context, feed feedFunc, work func(context.Context, archive.Unit) error) error {
	g, ctx := errgroup.WithContext(ctx)
	units := make(chan archive.Unit)

	g.Go(func() error {
		defer close(units)
		return feed(ctx, units)
	})
	for i := 0; i < e.workers; i++ {
		workerID := i
		g.Go(func() error {
			return worker(ctx, units, workerID, work)
		})
	}
	return g.Wait()
}

// worker is the processing loop for a single concurrent worker.
func worker(ctx context.Context, units <-chan archive.Unit, workerID int, work func(context.Context, archive.Unit) error) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for u := range units {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := work(ctx, u); err != nil {
			logger.Error("Worker stopped.", "workerID", workerID, "unit", u.Path, "error", err)
			return err
		}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
	return nil
}
