package qwen

import "time"

const defaultURL = "http://localhost:11434/api/generate"

// Config holds configuration for the Qwen provider adapter.
type Config struct {
	// URL is the full generate endpoint. Defaults to Ollama's local
	// "http://localhost:11434/api/generate".
	URL string

	// Model is the model tag (e.g., "qwen2.5vl:7b"). Required.
	Model string

	// Stream asks the backend for newline-delimited chunks.
	Stream bool

	// Timeout for individual HTTP requests. Zero means no client-side timeout.
	Timeout time.Duration
}
