package observability

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const defaultServiceName = "marketplace-api"

// Tracer starts every application span. It is a no-op until InitTracing
// installs a real provider.
var Tracer trace.Tracer = otel.Tracer(defaultServiceName)

// Span attribute keys shared by the moderation engine and HTTP middleware.
var (
	AttrEntity   = attribute.Key("marketplace.entity")
	AttrEntityID = attribute.Key("marketplace.entity.id")
	AttrAction   = attribute.Key("marketplace.action")
	AttrActor    = attribute.Key("marketplace.actor")
	AttrBatch    = attribute.Key("marketplace.batch_size")
)

// TracingConfig selects the exporter and sampling for InitTracing.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Enabled        bool
	// Exporter is "stdout", "otlp" or "none".
	Exporter     string
	OTLPEndpoint string
	SamplerRatio float64
}

func (c TracingConfig) serviceName() string {
	if c.ServiceName == "" {
		return defaultServiceName
	}
	return c.ServiceName
}

// sampler honours the parent's decision and samples root spans at
// SamplerRatio. Out of range ratios are clamped.
func (c TracingConfig) sampler() sdktrace.Sampler {
	switch {
	case c.SamplerRatio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case c.SamplerRatio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SamplerRatio))
	}
}

func newExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Exporter)) {
	case "otlp":
		if cfg.OTLPEndpoint == "" {
			return nil, fmt.Errorf("otlp exporter requires TRACING_OTLP_ENDPOINT")
		}
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
	case "none":
		return nil, nil
	case "", "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", cfg.Exporter)
	}
}

// NewTracerProvider builds a provider for cfg. A nil exporter yields a
// provider that samples but exports nothing.
func NewTracerProvider(cfg TracingConfig, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.serviceName()),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.sampler()),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	return sdktrace.NewTracerProvider(opts...), nil
}

// InitTracing installs the global tracer provider and W3C propagators.
// The returned function flushes pending spans.
func InitTracing(cfg TracingConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		Tracer = otel.Tracer(cfg.serviceName())
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := newExporter(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracing exporter: %w", err)
	}
	tp, err := NewTracerProvider(cfg, exporter)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	Tracer = tp.Tracer(cfg.serviceName())

	return tp.Shutdown, nil
}

// Span wraps a trace.Span so callers need not import the otel API.
type Span struct {
	span trace.Span
}

// NewSpan starts an internal span as a child of ctx.
func NewSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (*Span, context.Context) {
	ctx, span := Tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	return &Span{span: span}, ctx
}

// ModerationSpan starts the span for one workflow action on an entity type.
// id is omitted when zero.
func ModerationSpan(ctx context.Context, entity, action string, id uint) (*Span, context.Context) {
	attrs := []attribute.KeyValue{AttrEntity.String(entity), AttrAction.String(action)}
	if id != 0 {
		attrs = append(attrs, AttrEntityID.Int64(int64(id)))
	}
	return NewSpan(ctx, "moderation."+action, attrs...)
}

func (s *Span) AddAttributes(attrs ...attribute.KeyValue) {
	if s.span != nil {
		s.span.SetAttributes(attrs...)
	}
}

// SetError records err and marks the span failed. A nil err is ignored.
func (s *Span) SetError(err error) {
	if s.span != nil && err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
}

func (s *Span) End() {
	if s.span != nil {
		s.span.End()
	}
}

// TraceID is empty for spans that were not sampled.
func (s *Span) TraceID() string {
	if s.span == nil || !s.span.SpanContext().HasTraceID() {
		return ""
	}
	return s.span.SpanContext().TraceID().String()
}
