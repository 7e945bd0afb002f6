// Package gateway implements the dispatch core of pinpoint. The Gateway
// looks up the provider adapter for a request, builds the backend payload,
// performs exactly one upstream call, extracts the answer text and
// normalizes it into annotations with the adapter's axis order applied.
// Failures surface unchanged as *api.APIError; a reply that cannot be
// parsed is returned as raw text rather than an error.
//
// Gateway implements transport.Annotator for the configured active
// provider.
package gateway
