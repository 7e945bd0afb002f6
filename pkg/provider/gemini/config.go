package gemini

import "time"

const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com"
	defaultAPIVersion = "v1beta"
	defaultMIMEType   = "image/png"
)

// Config holds configuration for the Gemini provider adapter.
type Config struct {
	// BaseURL is the API root (e.g., "https://generativelanguage.googleapis.com").
	BaseURL string

	// APIVersion is the path segment after the base URL. Defaults to "v1beta".
	APIVersion string

	// Model is the Gemini model name (e.g., "gemini-2.5-flash"). Required.
	Model string

	// Temperature is passed through as generationConfig.temperature.
	Temperature float64

	// ThinkingBudget caps extended reasoning tokens. Zero disables it.
	ThinkingBudget int

	// MIMEType of the inline image. Defaults to "image/png".
	MIMEType string

	// APIKey is read from the environment by the caller. When empty, every
	// call fails with missing_credential before touching the network.
	APIKey string

	// Timeout for individual HTTP requests. Zero means no client-side timeout.
	Timeout time.Duration
}
