package gemini

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rhuss/pinpoint/pkg/api"
	"github.com/rhuss/pinpoint/pkg/provider"
	"github.com/rhuss/pinpoint/pkg/provider/upstream"
)

// Name is the identifier used in configuration.
const Name = "gemini"

// CredentialName is the setting operators provide the API key through.
const CredentialName = "GEMINI_API_KEY"

// textPath locates the answer: first candidate, its content, first part, text.
const textPath = "candidates.0.content.parts.0.text"

// Provider implements provider.Provider for the Gemini generateContent API.
type Provider struct {
	cfg      Config
	endpoint string
	client   *upstream.Client
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)

// New creates a new Gemini provider. A missing API key is not a
// construction error; it is reported per request.
func New(cfg Config) (*Provider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini: Model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.MIMEType == "" {
		cfg.MIMEType = defaultMIMEType
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Provider{
		cfg:      cfg,
		endpoint: fmt.Sprintf("%s/%s/models/%s:generateContent", cfg.BaseURL, cfg.APIVersion, url.PathEscape(cfg.Model)),
		client:   upstream.NewClient(Name, cfg.Timeout),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return Name
}

// AxisOrder returns api.AxisRowColumn: Gemini answers in (y, x).
func (p *Provider) AxisOrder() api.AxisOrder {
	return api.AxisRowColumn
}

// Endpoint returns the generateContent URL, without credentials.
func (p *Provider) Endpoint() string {
	return p.endpoint
}

// BuildPayload embeds the image inline next to the prompt and attaches the
// configured generation parameters.
func (p *Provider) BuildPayload(req *api.AnnotationRequest) (provider.Payload, error) {
	if p.cfg.APIKey == "" {
		return nil, api.NewMissingCredentialError(Name, CredentialName)
	}
	prompt := req.Prompt
	return &generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{MIMEType: p.cfg.MIMEType, Data: req.Image}},
				{Text: &prompt},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature: p.cfg.Temperature,
			ThinkingConfig: thinkingConfig{
				ThinkingBudget: p.cfg.ThinkingBudget,
			},
		},
	}, nil
}

// Invoke posts the payload with the API key as a query parameter.
func (p *Provider) Invoke(ctx context.Context, payload provider.Payload) (provider.RawResponse, error) {
	if p.cfg.APIKey == "" {
		return nil, api.NewMissingCredentialError(Name, CredentialName)
	}

	body, err := p.client.PostJSON(ctx, p.endpoint, url.Values{"key": {p.cfg.APIKey}}, payload)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, api.NewUpstreamError(Name, "failed to parse backend response", fmt.Errorf("invalid JSON body (%d bytes)", len(body)))
	}
	return provider.RawResponse(body), nil
}

// ExtractText returns candidates[0].content.parts[0].text.
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
