// Package tracing records observation hooks as OpenTelemetry span events.
//
// A Tracer runs a unit of work inside a span and installs an observer for
// the current goroutine, so every track and trigger made by the work shows
// up on the span:
//
//	tr := tracing.New(tracing.WithTracerName("my-app"))
//	err := tr.Run(ctx, "recompute", func(ctx context.Context) error {
//	    total := state.Get("total")
//	    ...
//	})
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// passed with WithTracer. Configure the provider in main():
//
//	otel.SetTracerProvider(tp)
package tracing

import (
	"context"
	"strconv"

	"github.com/vango-dev/observe/pkg/observe"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name.
const defaultTracerName = "observe"

// Config configures the Tracer.
type Config struct {
	// TracerName is the name of the tracer (default: "observe").
	TracerName string

	// IncludeTracks adds a span event for every track. Tracks are far more
	// frequent than triggers, so this can be turned off to keep spans small.
	// Enabled by default.
	IncludeTracks bool

	// Next receives every hook after it has been recorded on the span.
	Next observe.Observer

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// Option configures the Tracer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithTracer uses tracer instead of one from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Config) {
		c.tracer = tracer
	}
}

// WithIncludeTracks enables/disables span events for tracks.
func WithIncludeTracks(include bool) Option {
	return func(c *Config) {
		c.IncludeTracks = include
	}
}

// WithNext chains another observer after the span observer.
func WithNext(next observe.Observer) Option {
	return func(c *Config) {
		c.Next = next
	}
}

func defaultConfig() Config {
	return Config{
		TracerName:    defaultTracerName,
		IncludeTracks: true,
	}
}

// Tracer runs work inside spans that collect observation events.
type Tracer struct {
	config Config
}

// New creates a Tracer.
func New(opts ...Option) *Tracer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.tracer == nil {
		config.tracer = otel.Tracer(config.TracerName)
	}
	return &Tracer{config: config}
}

// Run starts a span named name, runs fn with a SpanObserver installed on
// the current goroutine and ends the span. The span gets the number of
// tracks and triggers as attributes, and an error status if fn fails.
func (t *Tracer) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return t.RunWith(ctx, name, t.config.Next, fn)
}

// RunWith is Run with next receiving the hooks instead of the configured
// Next observer.
func (t *Tracer) RunWith(ctx context.Context, name string, next observe.Observer, fn func(ctx context.Context) error) error {
	spanCtx, span := t.config.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	so := NewSpanObserver(span, next)
	so.includeTracks = t.config.IncludeTracks

	var err error
	observe.WithObserver(so, func() {
		err = fn(spanCtx)
	})

	span.SetAttributes(
		attribute.Int("observe.track_count", so.tracks),
		attribute.Int("observe.trigger_count", so.triggers),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// SpanObserver adds an event to span for every hook. It is meant for a
// single goroutine, like the span it writes to.
type SpanObserver struct {
	span          trace.Span
	next          observe.Observer
	includeTracks bool
	tracks        int
	triggers      int
}

// NewSpanObserver creates a SpanObserver writing to span and forwarding to
// next when non-nil.
func NewSpanObserver(span trace.Span, next observe.Observer) *SpanObserver {
	return &SpanObserver{span: span, next: next, includeTracks: true}
}

// Track adds an "observe.track" event.
func (s *SpanObserver) Track(target *observe.Object, op observe.TrackOp, key observe.Key) {
	s.tracks++
	if s.includeTracks {
		s.span.AddEvent("observe.track", trace.WithAttributes(eventAttributes(target, op.String(), key)...))
	}
	if s.next != nil {
		s.next.Track(target, op, key)
	}
}

// Trigger adds an "observe.trigger" event.
func (s *SpanObserver) Trigger(target *observe.Object, op observe.TriggerOp, key observe.Key) {
	s.triggers++
	s.span.AddEvent("observe.trigger", trace.WithAttributes(eventAttributes(target, op.String(), key)...))
	if s.next != nil {
		s.next.Trigger(target, op, key)
	}
}

func eventAttributes(target *observe.Object, op string, key observe.Key) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("observe.op", op),
		attribute.String("observe.key", key.String()),
		attribute.String("observe.target", strconv.FormatUint(target.ID(), 10)),
	}
}
