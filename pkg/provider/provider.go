package provider

import (
	"context"

	"github.com/rhuss/pinpoint/pkg/api"
)

// Payload is a backend-specific request body. Adapters produce it in
// BuildPayload and consume it in Invoke; it must marshal to JSON.
type Payload any

// RawResponse is the JSON body a backend replied with. It is request scoped
// and never persisted.
type RawResponse []byte

// String returns the body as text for logging.
func (r RawResponse) String() string { return string(r) }

// Provider abstracts a vision-understanding backend.
//
// Implementations must be safe for concurrent use by multiple goroutines
// and must not mutate their configuration after construction.
type Provider interface {
	// Name returns the provider identifier used in configuration
	// (e.g., "gemini", "qwen").
	Name() string

	// AxisOrder reports the order in which this backend emits point
	// components. The gateway swaps every point of a backend that does not
	// use api.AxisRowColumn.
	AxisOrder() api.AxisOrder

	// BuildPayload converts an annotation request into the backend's
	// request body. It performs no I/O.
	BuildPayload(req *api.AnnotationRequest) (Payload, error)

	// Invoke sends the payload to the backend and returns the raw reply.
	// Transport failures and non-2xx statuses are returned as
	// *api.APIError of type upstream_unavailable.
	Invoke(ctx context.Context, payload Payload) (RawResponse, error)

	// ExtractText locates the model's answer text in a raw reply. A reply
	// without text at the expected path yields an *api.APIError of type
	// no_text_found.
	ExtractText(raw RawResponse) (string, error)
}
