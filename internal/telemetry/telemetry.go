package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"

	"github.com/postcrab/postcrab/internal/errdef"
	"github.com/postcrab/postcrab/internal/request"
)

var (
	tracerName     = "github.com/postcrab/postcrab/internal/telemetry"
	httpHostKey    = attribute.Key("http.host")
	contentTypeKey = attribute.Key("postcrab.request.content_type")
	requestIDKey   = attribute.Key("postcrab.request.id")
	hasBodyKey     = attribute.Key("postcrab.request.has_body")
	bodySizeKey    = attribute.Key("http.response.body.size")
)

type Instrumenter interface {
	Start(ctx context.Context, info RequestStart) (context.Context, RequestSpan)
	Shutdown(ctx context.Context) error
}

type RequestStart struct {
	Spec        request.Spec
	HTTPRequest *http.Request
	RequestID   string
}

type RequestResult struct {
	Err        error
	StatusCode int
	BodyBytes  int
}

type RequestSpan interface {
	End(result RequestResult)
}

type providerOptions struct {
	spanProcessors []sdktrace.SpanProcessor
}

type Option func(*providerOptions)

func WithSpanProcessor(proc sdktrace.SpanProcessor) Option {
	return func(opts *providerOptions) {
		if proc != nil {
			opts.spanProcessors = append(opts.spanProcessors, proc)
		}
	}
}

type manager struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	shutdown sync.Once
}

func New(cfg Config, opts ...Option) (Instrumenter, error) {
	builder := providerOptions{}
	for _, opt := range opts {
		opt(&builder)
	}

	if !cfg.Enabled() && len(builder.spanProcessors) == 0 {
		return Noop(), nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(buildResourceAttributes(cfg)...),
	)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeTelemetry, err, "build resource")
	}

	var exporter sdktrace.SpanExporter
	if cfg.Enabled() {
		exporter, err = newExporter(cfg)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeTelemetry, err, "create exporter")
		}
	}

	var tpOpts []sdktrace.TracerProviderOption
	tpOpts = append(tpOpts, sdktrace.WithResource(res))
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	for _, proc := range builder.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(proc))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	return &manager{tracer: tp.Tracer(tracerName), provider: tp}, nil
}

// Start opens a client span. Without an HTTPRequest (the URL could not be
// turned into one) the span is described from the spec alone.
func (m *manager) Start(ctx context.Context, info RequestStart) (context.Context, RequestSpan) {
	ctx, span := m.tracer.Start(
		ctx,
		spanNameFor(info),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(buildSpanAttributes(info)...),
	)
	return ctx, &requestSpan{span: span}
}

func (m *manager) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	var shutdownErr error
	m.shutdown.Do(func() {
		shutdownErr = m.provider.Shutdown(ctx)
	})
	return shutdownErr
}

type requestSpan struct {
	span trace.Span
}

// End closes the span. HTTP error statuses mark the span as failed even though
// the dispatch outcome itself is a success.
func (rs *requestSpan) End(result RequestResult) {
	if rs == nil || rs.span == nil {
		return
	}

	if result.StatusCode > 0 {
		rs.span.SetAttributes(semconv.HTTPResponseStatusCode(result.StatusCode))
	}
	if result.BodyBytes > 0 {
		rs.span.SetAttributes(bodySizeKey.Int(result.BodyBytes))
	}

	statusCode := codes.Ok
	statusMsg := "OK"
	switch {
	case result.Err != nil:
		rs.span.RecordError(result.Err)
		statusCode = codes.Error
		statusMsg = result.Err.Error()
	case result.StatusCode >= 400:
		statusCode = codes.Error
		statusMsg = fmt.Sprintf("HTTP %d", result.StatusCode)
	}

	rs.span.SetStatus(statusCode, statusMsg)
	rs.span.End()
}

func Noop() Instrumenter {
	return noopInstrumenter{}
}

type noopInstrumenter struct{}

type noopSpan struct{}

func (noopInstrumenter) Start(ctx context.Context, _ RequestStart) (context.Context, RequestSpan) {
	return ctx, noopSpan{}
}

func (noopInstrumenter) Shutdown(context.Context) error { return nil }

func (noopSpan) End(RequestResult) {}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("telemetry endpoint is required")
	}

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	userAgent := "postcrab"
	if v := strings.TrimSpace(cfg.Version); v != "" {
		userAgent += "/" + v
	}
	clientOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithDialOption(grpc.WithUserAgent(userAgent)),
	}
	if cfg.Insecure {
		clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		clientOpts = append(clientOpts, otlptracegrpc.WithHeaders(cfg.Headers))
	}

	client := otlptracegrpc.NewClient(clientOpts...)
	return otlptrace.New(ctx, client)
}

func buildResourceAttributes(cfg Config) []attribute.KeyValue {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = defaultServiceName
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(name),
	}
	if strings.TrimSpace(cfg.Version) != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.Version))
	}
	return attrs
}

func buildSpanAttributes(info RequestStart) []attribute.KeyValue {
	req := info.HTTPRequest
	method := info.Spec.Method.String()
	if req != nil && req.Method != "" {
		method = req.Method
	}
	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(method),
		contentTypeKey.String(info.Spec.ContentType.String()),
		hasBodyKey.Bool(info.Spec.Method.HasBody() && info.Spec.Body != nil),
	}
	if id := strings.TrimSpace(info.RequestID); id != "" {
		attrs = append(attrs, requestIDKey.String(id))
	}
	if req == nil || req.URL == nil {
		if raw := strings.TrimSpace(info.Spec.URL); raw != "" {
			attrs = append(attrs, semconv.URLFull(raw))
		}
		return attrs
	}
	if host := req.URL.Host; host != "" {
		attrs = append(attrs, httpHostKey.String(host))
	}
	if full := req.URL.String(); full != "" {
		attrs = append(attrs, semconv.URLFull(full))
	}
	return attrs
}

func spanNameFor(info RequestStart) string {
	req := info.HTTPRequest
	if req == nil {
		return info.Spec.Method.String()
	}
	if req.Method != "" {
		if req.URL != nil && req.URL.Host != "" {
			return fmt.Sprintf("%s %s", req.Method, req.URL.Host)
		}
		return req.Method
	}
	return "http.request"
}
