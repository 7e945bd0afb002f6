package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/pinpoint/pkg/api"
)

// Logging returns middleware that emits one structured log entry per
// annotate call with the request ID, input sizes, duration and either the
// outcome or the error. Image bytes and prompt text are never logged.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Annotator) Annotator {
		return AnnotatorFunc(func(ctx context.Context, req *api.AnnotationRequest) (*api.Result, error) {
			start := time.Now()
			requestID := RequestIDFromContext(ctx)

			res, err := next.Annotate(ctx, req)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.Int("image_chars", len(req.Image)),
				slog.Int("prompt_chars", len(req.Prompt)),
				slog.Duration("duration", time.Since(start)),
			}
			if total := SinceReceived(ctx); total > 0 {
				attrs = append(attrs, slog.Duration("since_received", total))
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "annotate failed", attrs...)
				return res, err
			}

			if res != nil {
				attrs = append(attrs,
					slog.String("outcome", string(res.Outcome())),
					slog.Int("annotations", len(res.Annotations)),
				)
			}
			logger.LogAttrs(ctx, slog.LevelInfo, "annotate completed", attrs...)
			return res, nil
		})
	}
}
