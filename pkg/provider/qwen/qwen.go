package qwen

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/rhuss/pinpoint/pkg/api"
	"github.com/rhuss/pinpoint/pkg/provider"
	"github.com/rhuss/pinpoint/pkg/provider/upstream"
)

// Name is the identifier used in configuration.
const Name = "qwen"

// textPath locates the answer in a generate reply.
const textPath = "response"

// Provider implements provider.Provider for Qwen behind Ollama.
type Provider struct {
	cfg    Config
	client *upstream.Client
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)

// New creates a new Qwen provider.
func New(cfg Config) (*Provider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("qwen: Model is required")
	}
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	return &Provider{
		cfg:    cfg,
		client: upstream.NewClient(Name, cfg.Timeout),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return Name
}

// AxisOrder returns api.AxisColumnRow: Qwen answers in (x, y).
func (p *Provider) AxisOrder() api.AxisOrder {
	return api.AxisColumnRow
}

// BuildPayload sends the image as a single-element images list.
func (p *Provider) BuildPayload(req *api.AnnotationRequest) (provider.Payload, error) {
	return &generateRequest{
		Model:  p.cfg.Model,
		Prompt: req.Prompt,
		Stream: p.cfg.Stream,
		Images: []string{req.Image},
	}, nil
}

// Invoke posts the payload. A streamed reply is folded into a single
// {"response": ..., "done": true} body so extraction works the same way
// for both modes.
func (p *Provider) Invoke(ctx context.Context, payload provider.Payload) (provider.RawResponse, error) {
	body, err := p.client.PostJSON(ctx, p.cfg.URL, nil, payload)
	if err != nil {
		return nil, err
	}

	if req, ok := payload.(*generateRequest); ok && req.Stream {
		return foldStream(body)
	}

	if !gjson.ValidBytes(body) {
		return nil, api.NewUpstreamError(Name, "failed to parse backend response", fmt.Errorf("invalid JSON body (%d bytes)", len(body)))
	}
	return provider.RawResponse(body), nil
}

// ExtractText returns the top-level "response" field.
func (p *Provider) ExtractText(raw provider.RawResponse) (string, error) {
	text := gjson.GetBytes(raw, textPath)
	if text.Type != gjson.String {
		return "", api.NewNoTextFoundError(Name, textPath)
	}
	return text.Str, nil
}

// Close releases idle connections.
func (p *Provider) Close() error {
	p.client.Close()
	return nil
}
