// Package provider defines the capability every vision backend adapter
// implements. Each adapter (gemini, qwen) knows how to build its own request
// payload, call its backend, locate the answer text in the reply, and which
// axis order its points use. The gateway only ever talks to this interface,
// so adding a backend never adds provider conditionals to the dispatch path.
package provider
