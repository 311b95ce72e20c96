package engine

import (
	"runtime"

	"go.opentelemetry.io/otel/trace"
)

// DefaultReservedPrefixes are platform namespaces never offered to the engine.
var DefaultReservedPrefixes = []string{
	"android/",
	"com/android/",
	"com/google/",
	"org/jetbrains/",
	"kotlin/",
	"android/support/",
}

// DefaultOwnNamespace is always offered, so the engine's own library classes
// can take part in registration.
const DefaultOwnNamespace = "com/billy/"

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds the number of units processed concurrently. Values
// below one are ignored.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithMode selects barrier or streaming processing.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithReservedPrefixes replaces the reserved namespace list. Prefixes are in
// slash form.
func WithReservedPrefixes(prefixes ...string) Option {
	return func(e *Engine) { e.reserved = append([]string(nil), prefixes...) }
}

// WithOwnNamespace replaces the always-offered namespace. An empty value
// disables it.
func WithOwnNamespace(ns string) Option {
	return func(e *Engine) { e.ownNamespace = ns }
}

// WithTracer sets the tracer used for run, phase and unit spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

func defaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}
