// Package telemetry defines the structured logging, metrics, and tracing
// surface every other package in this module is instrumented against.
// Grounded on runtime/agents/telemetry.Logger/Metrics/Tracer/Span: the
// interfaces are kept intentionally small so call sites can be tested with
// the Noop implementation without configuring an OpenTelemetry provider.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger captures structured logging used throughout the module.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// Metrics exposes counter, timer, and gauge helpers.
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer abstracts span creation so call sites remain agnostic of the
// underlying OpenTelemetry provider.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	Span(ctx context.Context) Span
}

// Span represents an in-flight tracing span.
type Span interface {
	End(opts ...trace.SpanEndOption)
	AddEvent(name string, attrs ...any)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}

// Bundle groups the three telemetry ports so they can be constructed and
// passed around together, e.g. as a single field on Manager/AgentInstance.
type Bundle struct {
	Logger  Logger
	Metrics Metrics
	Tracer  Tracer
}

// NewNoopBundle builds a Bundle whose three ports all discard their input,
// suitable for tests and for running without an OTEL collector configured.
func NewNoopBundle() Bundle {
	return Bundle{Logger: NewNoopLogger(), Metrics: NewNoopMetrics(), Tracer: NewNoopTracer()}
}

// NewClueBundle builds a Bundle that delegates to goa.design/clue/log and
// the global OpenTelemetry providers. Callers are expected to have already
// called clue.ConfigureOpenTelemetry before using it.
func NewClueBundle() Bundle {
	return Bundle{Logger: NewClueLogger(), Metrics: NewClueMetrics(), Tracer: NewClueTracer()}
}
