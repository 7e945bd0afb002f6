package transport

import (
	"context"
	"time"
)

// Middleware decorates an Annotator.
type Middleware func(Annotator) Annotator

// Chain folds middlewares into one. The first argument ends up outermost,
// so Chain(a, b)(h) runs a, then b, then h. Nil entries are skipped, which
// lets callers switch a layer off without rebuilding the list.
func Chain(middlewares ...Middleware) Middleware {
	return func(h Annotator) Annotator {
		for i := range middlewares {
			if mw := middlewares[len(middlewares)-1-i]; mw != nil {
				h = mw(h)
			}
		}
		return h
	}
}

// requestInfo travels with an annotate call from the HTTP edge inwards.
type requestInfo struct {
	id       string
	received time.Time
}

type requestInfoKey struct{}

// ContextWithRequestID attaches id to ctx. The receive time recorded by an
// earlier call is kept, otherwise now is used.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	info := requestInfo{id: id, received: time.Now()}
	if prev, ok := ctx.Value(requestInfoKey{}).(requestInfo); ok && !prev.received.IsZero() {
		info.received = prev.received
	}
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestIDFromContext returns the request ID, or "" when none is set.
func RequestIDFromContext(ctx context.Context) string {
	info, _ := ctx.Value(requestInfoKey{}).(requestInfo)
	return info.id
}

// SinceReceived reports how long ago the request entered the gateway, or
// zero when ctx carries no request.
func SinceReceived(ctx context.Context) time.Duration {
	info, ok := ctx.Value(requestInfoKey{}).(requestInfo)
	if !ok || info.received.IsZero() {
		return 0
	}
	return time.Since(info.received)
}
