// Package qwen implements the provider adapter for a locally hosted Qwen
// vision model served through Ollama's /api/generate endpoint.
//
// Qwen reports points as (x, y), so the adapter declares
// api.AxisColumnRow and the gateway swaps every point it returns.
package qwen
