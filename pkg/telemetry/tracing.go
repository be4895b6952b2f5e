package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/toastkit/pkg/toast"
)

// Default tracer name for toast spans.
const defaultTracerName = "toastkit"

// TracingConfig configures the OpenTelemetry observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "toastkit").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// IncludeContent records the toast content as a span attribute.
	// Content may contain user data - disabled by default.
	IncludeContent bool
}

// TracingOption configures the OpenTelemetry observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeContent enables recording toast content on spans.
func WithIncludeContent(include bool) TracingOption {
	return func(c *TracingConfig) {
		c.IncludeContent = include
	}
}

// Tracer is a toast.Observer that records one span per toast.
//
// The span starts when the toast is added and ends when its exit
// transition completes. Updates, phase changes, auto-dismissal and removal
// are recorded as span events. A toast whose removal is seen before any
// lifecycle phase (a Manager without a Stage) ends its span at removal.
type Tracer struct {
	toast.NopObserver

	tracer         trace.Tracer
	includeContent bool

	mu    sync.Mutex
	spans map[toastKey]*toastSpan
}

type toastSpan struct {
	span    trace.Span
	staged  bool
	removed bool
}

// Tracing creates a Tracer.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	cfg := toast.DefaultConfig()
//	cfg.Observer = telemetry.Tracing(telemetry.WithTracerProvider(tp))
func Tracing(opts ...TracingOption) *Tracer {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Tracer{
		tracer:         tp.Tracer(config.TracerName),
		includeContent: config.IncludeContent,
		spans:          make(map[toastKey]*toastSpan),
	}
}

// ToastAdded implements toast.Observer.
func (t *Tracer) ToastAdded(channel string, rec toast.Record) {
	attrs := []attribute.KeyValue{
		attribute.String("toast.channel", channel),
		attribute.String("toast.id", string(rec.ID)),
		attribute.String("toast.appearance", string(rec.Appearance)),
		attribute.String("toast.auto_dismiss", rec.AutoDismiss.String()),
	}
	if t.includeContent {
		attrs = append(attrs, attribute.String("toast.content", contentString(rec.Content)))
	}

	_, span := t.tracer.Start(context.Background(), "toast",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)

	key := toastKey{channel, rec.ID}
	t.mu.Lock()
	prev := t.spans[key]
	t.spans[key] = &toastSpan{span: span}
	t.mu.Unlock()

	// An earlier toast with this id was still exiting.
	if prev != nil {
		prev.span.End()
	}
}

// ToastUpdated implements toast.Observer.
func (t *Tracer) ToastUpdated(channel string, rec toast.Record) {
	if ts := t.lookup(channel, rec.ID); ts != nil {
		ts.span.AddEvent("toast.updated", trace.WithAttributes(
			attribute.String("toast.appearance", string(rec.Appearance)),
			attribute.String("toast.auto_dismiss", rec.AutoDismiss.String()),
		))
	}
}

// ToastAutoDismissed implements toast.Observer.
func (t *Tracer) ToastAutoDismissed(channel string, id toast.ID) {
	if ts := t.lookup(channel, id); ts != nil {
		ts.span.AddEvent("toast.auto_dismissed")
		ts.span.SetAttributes(attribute.Bool("toast.auto_dismissed", true))
	}
}

// ToastRemoved implements toast.Observer.
func (t *Tracer) ToastRemoved(channel string, rec toast.Record) {
	key := toastKey{channel, rec.ID}

	t.mu.Lock()
	ts := t.spans[key]
	if ts == nil {
		t.mu.Unlock()
		return
	}
	ts.removed = true
	end := !ts.staged
	if end {
		delete(t.spans, key)
	}
	t.mu.Unlock()

	ts.span.AddEvent("toast.removed")
	if end {
		ts.span.SetStatus(codes.Ok, "")
		ts.span.End()
	}
}

// ToastPhase implements toast.Observer.
func (t *Tracer) ToastPhase(channel string, id toast.ID, phase toast.Phase) {
	key := toastKey{channel, id}

	t.mu.Lock()
	ts := t.spans[key]
	// Exit phases of a live toast belong to an earlier toast with the
	// same id whose span already ended.
	if ts == nil || (phase >= toast.PhaseExiting && !ts.removed) {
		t.mu.Unlock()
		return
	}
	ts.staged = true
	end := phase == toast.PhaseExited
	if end {
		delete(t.spans, key)
	}
	t.mu.Unlock()

	ts.span.AddEvent("toast."+phase.String(), trace.WithAttributes(
		attribute.String("toast.phase", phase.String()),
	))
	if end {
		ts.span.SetStatus(codes.Ok, "")
		ts.span.End()
	}
}

// Flush ends every open span. Call it when providers are closed, since
// closing a provider discards toasts without their exit phases.
func (t *Tracer) Flush() {
	t.mu.Lock()
	spans := t.spans
	t.spans = make(map[toastKey]*toastSpan)
	t.mu.Unlock()

	for _, ts := range spans {
		ts.span.AddEvent("toast.flushed")
		ts.span.End()
	}
}

func (t *Tracer) lookup(channel string, id toast.ID) *toastSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spans[toastKey{channel, id}]
}

func contentString(content any) string {
	if s, ok := content.(string); ok {
		return s
	}
	return fmt.Sprint(content)
}
