// Package api defines the core types shared by every layer of the pinpoint
// gateway: the inbound annotation request, the canonical annotation the
// gateway returns regardless of which backend answered, the result wrapper
// that distinguishes structured annotations from the raw-text fallback, and
// the structured error taxonomy.
//
// The package performs no I/O.
//
// Core types:
//   - [AnnotationRequest]: image (base64) plus prompt, as received from a client
//   - [Annotation]: a (row, column) point and a label
//   - [Result]: either a list of annotations or the backend's raw text
//   - [APIError]: typed error carrying the provider and the underlying cause
package api
