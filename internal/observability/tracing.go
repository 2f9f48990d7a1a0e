// Package observability wires OpenTelemetry tracing for skillgap.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for all skillgap spans.
const TracerName = "github.com/felixgeelhaar/skillgap"

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	ServiceName    string  `yaml:"service_name"`
	ServiceVersion string  `yaml:"-"`
	Environment    string  `yaml:"environment"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint"` // empty disables export
	SampleRate     float64 `yaml:"sample_rate"`
	Insecure       bool    `yaml:"insecure"`
}

// DefaultTracingConfig returns tracing disabled, full sampling when enabled.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "skillgap",
		Environment: "development",
		SampleRate:  1.0,
		Insecure:    true,
	}
}

// TracerProvider wraps the SDK provider so callers can shut it down.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing installs the global tracer provider. With no endpoint the
// global no-op provider stays in place.
func InitTracing(ctx context.Context, cfg TracingConfig) (*TracerProvider, error) {
	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{tracer: otel.Tracer(TracerName)}, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

// Shutdown flushes pending spans
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Enabled reports whether spans are exported
func (tp *TracerProvider) Enabled() bool {
	return tp.provider != nil
}

// StartAnalysisSpan starts a span for one gap analysis run.
func StartAnalysisSpan(ctx context.Context, assessmentID, role string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "analysis.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("skillgap.assessment_id", assessmentID),
			attribute.String("skillgap.role", role),
		),
	)
}

// RecordAnalysisResult annotates an analysis span with the report summary.
func RecordAnalysisResult(span trace.Span, gaps, strengths, readiness int, revision uint64) {
	span.SetAttributes(
		attribute.Int("skillgap.gaps", gaps),
		attribute.Int("skillgap.strengths", strengths),
		attribute.Int("skillgap.readiness", readiness),
		attribute.Int64("skillgap.catalog_revision", int64(revision)),
	)
}

// StartRefreshSpan starts a span for a catalog refresh.
func StartRefreshSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "catalog.refresh",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("skillgap.catalog_source", source)),
	)
}

// RecordRefreshResult annotates a refresh span with the loaded catalog size.
func RecordRefreshResult(span trace.Span, skills, relations, roles int) {
	span.SetAttributes(
		attribute.Int("skillgap.catalog.skills", skills),
		attribute.Int("skillgap.catalog.relations", relations),
		attribute.Int("skillgap.catalog.roles", roles),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
