package transport

import (
	"context"
	"fmt"

	"github.com/rhuss/pinpoint/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server errors. The server continues to accept new
// requests after a panic is recovered.
func Recovery() Middleware {
	return func(next Annotator) Annotator {
		return AnnotatorFunc(func(ctx context.Context, req *api.AnnotationRequest) (res *api.Result, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					res = nil
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.Annotate(ctx, req)
		})
	}
}
