package transport

import (
	"context"

	"github.com/rhuss/pinpoint/pkg/api"
)

// Annotator handles the core annotate operation: an image and prompt go in,
// a normalized result comes out. A raw-text fallback is a successful
// result, not an error.
type Annotator interface {
	Annotate(ctx context.Context, req *api.AnnotationRequest) (*api.Result, error)
}

// AnnotatorFunc is an adapter that allows using an ordinary function
// as an Annotator.
type AnnotatorFunc func(ctx context.Context, req *api.AnnotationRequest) (*api.Result, error)

// Annotate calls f(ctx, req).
func (f AnnotatorFunc) Annotate(ctx context.Context, req *api.AnnotationRequest) (*api.Result, error) {
	return f(ctx, req)
}
