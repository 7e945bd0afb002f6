package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rhuss/pinpoint/pkg/api"
	"github.com/rhuss/pinpoint/pkg/debug"
	"github.com/rhuss/pinpoint/pkg/normalize"
	"github.com/rhuss/pinpoint/pkg/observability"
	"github.com/rhuss/pinpoint/pkg/provider"
	"github.com/rhuss/pinpoint/pkg/transport"
)

// Stages of a dispatch, used in failure logs.
const (
	StageValidate = "validate"
	StageLookup   = "lookup"
	StageBuild    = "build"
	StageInvoke   = "invoke"
	StageExtract  = "extract"
)

// Gateway dispatches annotation requests to provider adapters.
type Gateway struct {
	registry *provider.Registry
	active   string
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Ensure Gateway implements transport.Annotator at compile time.
var _ transport.Annotator = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger for stage failures. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithTracer sets the tracer used for upstream spans. Defaults to the
// global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(g *Gateway) { g.tracer = t }
}

// New creates a Gateway over registry. active names the provider Annotate
// dispatches to; it is resolved per request, so an unregistered name
// yields unknown_provider rather than a construction error.
func New(registry *provider.Registry, active string, opts ...Option) (*Gateway, error) {
	if registry == nil {
		return nil, fmt.Errorf("gateway: registry must not be nil")
	}
	g := &Gateway{
		registry: registry,
		active:   active,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer("pinpoint/gateway")
	}
	return g, nil
}

// Active returns the provider identifier Annotate dispatches to.
func (g *Gateway) Active() string {
	return g.active
}

// Annotate handles req with the configured active provider.
func (g *Gateway) Annotate(ctx context.Context, req *api.AnnotationRequest) (*api.Result, error) {
	return g.Handle(ctx, req, g.active)
}

// Handle dispatches req to the provider registered as providerID and
// returns the normalized result.
func (g *Gateway) Handle(ctx context.Context, req *api.AnnotationRequest, providerID string) (*api.Result, error) {
	if req == nil {
		return nil, g.fail(ctx, providerID, StageValidate, api.NewInvalidRequestError("", "request is required"))
	}
	if apiErr := req.Validate(); apiErr != nil {
		return nil, g.fail(ctx, providerID, StageValidate, apiErr)
	}
	if req.Prompt == "" {
		g.logger.WarnContext(ctx, "empty prompt", "provider", providerID, "request_id", transport.RequestIDFromContext(ctx))
	}

	p, ok := g.registry.Lookup(providerID)
	if !ok {
		return nil, g.fail(ctx, providerID, StageLookup, api.NewUnknownProviderError(providerID))
	}

	payload, err := p.BuildPayload(req)
	if err != nil {
		return nil, g.fail(ctx, providerID, StageBuild, err)
	}

	raw, err := g.invoke(ctx, p, payload)
	if err != nil {
		return nil, g.fail(ctx, providerID, StageInvoke, err)
	}

	g.logger.InfoContext(ctx, "backend reply",
		"provider", providerID,
		"request_id", transport.RequestIDFromContext(ctx),
		"bytes", len(raw),
		"body", debug.Truncate(raw.String(), 512),
	)
	debug.Raw("providers", raw.String())

	text, err := p.ExtractText(raw)
	if err != nil {
		return nil, g.fail(ctx, providerID, StageExtract, err)
	}

	res := normalize.Normalize(text, p.AxisOrder())
	observability.AnnotationsTotal.WithLabelValues(providerID, string(res.Outcome())).Inc()
	debug.Log("normalize", "normalized reply",
		"provider", providerID,
		"outcome", res.Outcome(),
		"annotations", len(res.Annotations),
	)
	return res, nil
}

// invoke performs the single upstream call inside a span and records
// provider metrics.
func (g *Gateway) invoke(ctx context.Context, p provider.Provider, payload provider.Payload) (provider.RawResponse, error) {
	ctx, span := g.tracer.Start(ctx, "provider.invoke",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("pinpoint.provider", p.Name()),
			attribute.String("pinpoint.request_id", transport.RequestIDFromContext(ctx)),
		),
	)
	defer span.End()

	start := time.Now()
	raw, err := p.Invoke(ctx, payload)
	observability.ProviderLatency.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.ProviderRequestsTotal.WithLabelValues(p.Name(), string(transport.AsAPIError(err).Type)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	observability.ProviderRequestsTotal.WithLabelValues(p.Name(), "ok").Inc()
	span.SetAttributes(attribute.Int("pinpoint.response_bytes", len(raw)))
	return raw, nil
}

// fail logs a stage failure and returns err unchanged.
func (g *Gateway) fail(ctx context.Context, providerID, stage string, err error) error {
	g.logger.LogAttrs(ctx, slog.LevelError, "annotation stage failed",
		slog.String("provider", providerID),
		slog.String("stage", stage),
		slog.String("request_id", transport.RequestIDFromContext(ctx)),
		slog.String("error", err.Error()),
	)
	return err
}
