package gemini

// generateContentRequest is the generateContent request body.
type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

// part holds exactly one of InlineData or Text.
type part struct {
	InlineData *inlineData `json:"inlineData,omitempty"`
	Text       *string     `json:"text,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature    float64        `json:"temperature"`
	ThinkingConfig thinkingConfig `json:"thinkingConfig"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}
