package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/vk/autoregister/internal/archive"
	"github.com/vk/autoregister/internal/ctxlog"
	"github.com/vk/autoregister/internal/inject"
	"github.com/vk/autoregister/internal/pipeline"
	"github.com/vk/autoregister/internal/registry"
	"github.com/vk/autoregister/internal/rule"
	"github.com/vk/autoregister/internal/scan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vk/autoregister/internal/engine"

var (
	// ErrNoValidRules is returned by Configure when rules were given but none
	// of them survived validation.
	ErrNoValidRules = errors.New("engine: no valid rules")
	// ErrNotConfigured is returned when visiting before Configure.
	ErrNotConfigured = errors.New("engine: not configured")
	// ErrBusy is returned by Configure outside the Idle state.
	ErrBusy = errors.New("engine: configure requires the idle state")
)

// plan is the frozen result of Configure.
type plan struct {
	rules      []rule.Rule
	targets    map[string]struct{}
	scanOnly   *pipeline.Pipeline
	injectOnly *pipeline.Pipeline
	full       *pipeline.Pipeline
}

// Engine owns the passes of one build and the registry they share.
type Engine struct {
	registry     *registry.Registry
	workers      int
	mode         Mode
	reserved     []string
	ownNamespace string
	tracer       trace.Tracer

	state atomic.Int32
	plan  atomic.Pointer[plan]
}

// New creates an idle engine writing matches to reg.
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:     reg,
		workers:      defaultWorkers(),
		mode:         Barrier,
		reserved:     DefaultReservedPrefixes,
		ownNamespace: DefaultOwnNamespace,
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current lifecycle phase.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Mode returns the processing mode Run uses.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Rules returns the rules frozen by the last Configure.
func (e *Engine) Rules() []rule.Rule {
	p := e.plan.Load()
	if p == nil {
		return nil
	}
	return append([]rule.Rule(nil), p.rules...)
}

// Configure normalizes and validates rules, drops the invalid ones, resets
// the registry entries of the survivors and moves the engine to Visiting.
// An empty rule list is accepted and makes every visit a pass-through.
func (e *Engine) Configure(ctx context.Context, rules []rule.Rule) error {
	logger := ctxlog.FromContext(ctx)
	if !e.state.CompareAndSwap(int32(Idle), int32(Configuring)) {
		return fmt.Errorf("%w: engine is %s", ErrBusy, e.State())
	}

	valid := make([]rule.Rule, 0, len(rules))
	for _, r := range rules {
		n := r.Normalize()
		if !n.Validate() {
			logger.Debug("Dropping invalid rule.", "interface", n.InterfaceName, "init_class", n.InitClassName)
			continue
		}
		valid = append(valid, n)
	}
	if len(rules) > 0 && len(valid) == 0 {
		e.state.Store(int32(Idle))
		return ErrNoValidRules
	}

	ids := make([]string, 0, len(valid))
	targets := make(map[string]struct{}, len(valid))
	for _, r := range valid {
		ids = append(ids, r.ID)
		targets[r.InitClassName] = struct{}{}
	}
	e.registry.Reset(ids...)

	scanPass := scan.New(valid, e.registry)
	injectPass := inject.New(valid, e.registry)
	e.plan.Store(&plan{
		rules:      valid,
		targets:    targets,
		scanOnly:   &pipeline.Pipeline{HeaderStages: []pipeline.HeaderStage{scanPass}},
		injectOnly: &pipeline.Pipeline{MethodStages: []pipeline.MethodStage{injectPass}},
		full: &pipeline.Pipeline{
			HeaderStages: []pipeline.HeaderStage{scanPass},
			MethodStages: []pipeline.MethodStage{injectPass},
		},
	})
	e.state.Store(int32(Visiting))

	logger.Info("Engine configured.", "rules", len(valid), "dropped", len(rules)-len(valid), "mode", e.mode.String())
	return nil
}

// Finish returns the engine to Idle. The registry keeps its contents until
// the next Configure resets them.
func (e *Engine) Finish() {
	e.state.CompareAndSwap(int32(Visiting), int32(Idle))
}

// Offered reports whether a class is handed to the passes at all. Injection
// targets and the own namespace are always offered; reserved platform
// namespaces never are.
func (e *Engine) Offered(className string) bool {
	if p := e.plan.Load(); p != nil {
		if _, ok := p.targets[className]; ok {
			return true
		}
	}
	if e.ownNamespace != "" && strings.HasPrefix(className, e.ownNamespace) {
		return true
	}
	for _, prefix := range e.reserved {
		if strings.HasPrefix(className, prefix) {
			return false
		}
	}
	return true
}

// Visit runs one unit through scanning and injection in a single pass.
// Units that fail to decode or rewrite are logged and returned unchanged.
func (e *Engine) Visit(ctx context.Context, u archive.Unit) (archive.Unit, error) {
	p, err := e.visiting()
	if err != nil {
		return u, err
	}
	out, _ := e.process(ctx, p.full, u)
	return out, nil
}

func (e *Engine) visiting() (*plan, error) {
	p := e.plan.Load()
	if e.State() != Visiting || p == nil {
		return nil, ErrNotConfigured
	}
	return p, nil
}

type outcome int

const (
	passed outcome = iota
	modified
	failed
)

// process transforms one unit with the given pipeline. Units that are not
// class files or not offered pass through untouched.
func (e *Engine) process(ctx context.Context, p *pipeline.Pipeline, u archive.Unit) (archive.Unit, outcome) {
	if !u.IsClass() || !e.Offered(u.ClassName()) {
		return u, passed
	}

	ctx, span := e.tracer.Start(ctx, "engine.unit", trace.WithAttributes(attribute.String("unit", u.Path)))
	defer span.End()
	logger := ctxlog.FromContext(ctx)

	out, err := p.Transform(ctx, u.Data)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, pipeline.ErrMalformedUnit) {
			logger.Warn("Unit could not be decoded, passing it through.", "unit", u.Path, "error", err)
		} else {
			logger.Warn("Unit could not be rewritten, passing it through.", "unit", u.Path, "error", err)
		}
		return u, failed
	}
	if !out.Modified {
		return u, passed
	}
	span.SetAttributes(attribute.StringSlice("methods", out.Methods))
	logger.Info("Registration code injected.", "unit", u.Path, "methods", out.Methods)
	return archive.Unit{Path: u.Path, Data: out.Data}, modified
}
