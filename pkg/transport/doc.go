// Package transport defines the handler interface and middleware chain for
// the pinpoint HTTP transport layer.
//
// The transport layer bridges external clients and the annotation gateway.
// It deserializes incoming requests into the types defined in pkg/api,
// dispatches them for processing, and serializes results back to the
// client either as a JSON annotation array or as the backend's raw text.
//
// # Handler Interface
//
// Annotator is the contract between the transport layer and the gateway.
// AnnotatorFunc adapts plain functions, which keeps tests short.
//
// # Middleware
//
// The middleware chain wraps Annotator with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID) and structured logging via log/slog.
//
// # Errors
//
// Failures travel as *api.APIError. HTTPStatusFromError maps each error
// type to a status code and WriteAPIError renders the JSON error body.
package transport
