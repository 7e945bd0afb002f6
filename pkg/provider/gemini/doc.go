// Package gemini implements the provider adapter for Google's Gemini
// generateContent API. The image travels inline as base64 data next to the
// prompt, the API key is passed as the "key" query parameter, and points in
// the model's answer are already in (row, column) order.
package gemini
