package transport

import (
	"context"
	"testing"

	"github.com/rhuss/pinpoint/pkg/api"
)

func TestAnnotatorFuncAdapter(t *testing.T) {
	called := false
	var receivedReq *api.AnnotationRequest

	fn := AnnotatorFunc(func(ctx context.Context, req *api.AnnotationRequest) (*api.Result, error) {
		called = true
		receivedReq = req
		return api.Structured(nil), nil
	})

	// Verify it satisfies the interface.
	var _ Annotator = fn

	req := &api.AnnotationRequest{Image: "aGVsbG8=", Prompt: "find cups"}
	res, err := fn.Annotate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected function to be called")
	}
	if receivedReq.Prompt != "find cups" {
		t.Errorf("expected prompt %q, got %q", "find cups", receivedReq.Prompt)
	}
	if res.IsRaw() {
		t.Error("expected structured result")
	}
}

func TestAnnotatorFuncReturnsError(t *testing.T) {
	fn := AnnotatorFunc(func(ctx context.Context, req *api.AnnotationRequest) (*api.Result, error) {
		return nil, api.NewServerError("test error")
	})

	_, err := fn.Annotate(context.Background(), &api.AnnotationRequest{})
	if err == nil {
		t.Fatal("expected error but got nil")
	}

	apiErr, ok := err.(*api.APIError)
	if !ok {
		t.Fatalf("expected *api.APIError, got %T", err)
	}
	if apiErr.Type != api.ErrorTypeServerError {
		t.Errorf("expected error type %q, got %q", api.ErrorTypeServerError, apiErr.Type)
	}
}
