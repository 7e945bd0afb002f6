// Command mock-backend runs a deterministic vision backend for local runs
// and end-to-end checks. It speaks both the Gemini generateContent API and
// the Ollama /api/generate API and always answers with the same canned
// detections, optionally wrapped in prose.
//
// Configuration:
//
//	MOCK_PORT   - Listen port (default: 9090)
//	MOCK_PROSE  - "true" wraps the detection array in a sentence
//	MOCK_ANSWER - Replaces the canned answer text entirely
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

// cannedRowColumn is the answer in (y, x) order, as Gemini reports points.
const cannedRowColumn = `[{"point":[120,340],"label":"cup"},{"point":[410,95],"label":"plate"}]`

// cannedColumnRow is the same detections in (x, y) order, as Qwen reports them.
const cannedColumnRow = `[{"point":[340,120],"label":"cup"},{"point":[95,410],"label":"plate"}]`

type mock struct {
	prose  bool
	answer string
}

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	m := &mock{
		prose:  strings.EqualFold(os.Getenv("MOCK_PROSE"), "true"),
		answer: os.Getenv("MOCK_ANSWER"),
	}

	srv := &http.Server{Addr: ":" + port, Handler: m.routes()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port, "prose", m.prose)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func (m *mock) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{version}/models/{action}", m.handleGenerateContent)
	mux.HandleFunc("POST /api/generate", m.handleOllamaGenerate)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}

// text returns the answer for a backend with the given canned detections.
func (m *mock) text(canned string) string {
	if m.answer != "" {
		return m.answer
	}
	if m.prose {
		return "Sure! Here are the detections I found: " + canned + " Let me know if you need more."
	}
	return canned
}

// --- Gemini ---

type geminiRequest struct {
	Contents []struct {
		Parts []struct {
			InlineData *struct {
				MIMEType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData,omitempty"`
			Text *string `json:"text,omitempty"`
		} `json:"parts"`
	} `json:"contents"`
}

func (m *mock) handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.PathValue("action"), ":generateContent") {
		writeGeminiError(w, http.StatusNotFound, "NOT_FOUND", "unknown method")
		return
	}
	if r.URL.Query().Get("key") == "" {
		writeGeminiError(w, http.StatusForbidden, "PERMISSION_DENIED", "Method doesn't allow unregistered callers. Please use an API key.")
		return
	}

	var req geminiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGeminiError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid JSON payload")
		return
	}
	if !hasInlineImage(&req) {
		writeGeminiError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "request carries no inline image")
		return
	}

	resp := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": m.text(cannedRowColumn)}},
				},
				"finishReason": "STOP",
			},
		},
		"modelVersion": strings.TrimSuffix(r.PathValue("action"), ":generateContent"),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func hasInlineImage(req *geminiRequest) bool {
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				return true
			}
		}
	}
	return false
}

func writeGeminiError(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": message, "status": status},
	})
}

// --- Ollama ---

type ollamaRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Stream bool     `json:"stream"`
	Images []string `json:"images"`
}

type ollamaChunk struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

func (m *mock) handleOllamaGenerate(w http.ResponseWriter, r *http.Request) {
	var req ollamaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Model == "" {
		http.Error(w, `{"error":"model is required"}`, http.StatusBadRequest)
		return
	}

	text := m.text(cannedColumnRow)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	if !req.Stream {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ollamaChunk{Model: req.Model, CreatedAt: now, Response: text, Done: true})
		return
	}

	// Streaming: one NDJSON line per fragment, then a final done line.
	w.Header().Set("Content-Type", "application/x-ndjson")
	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	for _, frag := range fragments(text, 16) {
		enc.Encode(ollamaChunk{Model: req.Model, CreatedAt: now, Response: frag})
		if flusher != nil {
			flusher.Flush()
		}
	}
	enc.Encode(ollamaChunk{Model: req.Model, CreatedAt: now, Done: true})
}

// fragments splits s into pieces of at most n bytes.
func fragments(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
