package qwen

// generateRequest is the /api/generate request body.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Stream bool     `json:"stream"`
	Images []string `json:"images"`
}

// foldedReply is a whole streamed reply. Response stays nil when no chunk
// carried text.
type foldedReply struct {
	Model    string  `json:"model"`
	Response *string `json:"response,omitempty"`
	Done     bool    `json:"done"`
}

// generateChunk is one line of a streamed reply.
type generateChunk struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}
