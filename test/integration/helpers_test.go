// Package integration provides end-to-end tests for the pinpoint HTTP API.
//
// Tests run against real pinpoint HTTP servers backed by a mock vision
// backend that speaks both the Gemini and the Ollama wire formats. All
// servers are started in-process using net/http/httptest.
package integration

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rhuss/pinpoint/pkg/gateway"
	"github.com/rhuss/pinpoint/pkg/provider"
	"github.com/rhuss/pinpoint/pkg/provider/gemini"
	"github.com/rhuss/pinpoint/pkg/provider/qwen"
	"github.com/rhuss/pinpoint/pkg/storage"
	"github.com/rhuss/pinpoint/pkg/storage/memory"
	"github.com/rhuss/pinpoint/pkg/transport"
	transporthttp "github.com/rhuss/pinpoint/pkg/transport/http"
)

// testEnv holds the shared servers for all integration tests.
var testEnv *TestEnvironment

// testImage is a tiny PNG header, enough for the mock to see an image.
var testImage = base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n0000"))

// Canned detections. Gemini reports (row, column), Qwen reports
// (column, row); both normalize to the same canonical points.
const (
	cannedRowColumn = `[{"point":[120,340],"label":"cup"},{"point":[410,95],"label":"plate"}]`
	cannedColumnRow = `[{"point":[340,120],"label":"cup"},{"point":[95,410],"label":"plate"}]`
	describedScene  = "A cup stands next to a plate on a wooden table."
)

// TestEnvironment holds the pinpoint servers and the mock backend.
type TestEnvironment struct {
	// GeminiServer has gemini active and an in-memory upload store.
	GeminiServer *httptest.Server
	// QwenServer has qwen active with streaming enabled.
	QwenServer *httptest.Server
	// KeylessServer has gemini active without an API key.
	KeylessServer *httptest.Server
	MockBackend   *httptest.Server
}

// TestMain starts the mock backend and pinpoint servers before running tests.
func TestMain(m *testing.M) {
	testEnv = setupTestEnvironment()
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

// setupTestEnvironment creates a mock backend and pinpoint servers wired to it.
func setupTestEnvironment() *TestEnvironment {
	mockBackend := startMockBackend()

	geminiProv := mustGemini(mockBackend.URL, "test-key")
	qwenProv, err := qwen.New(qwen.Config{
		URL:    mockBackend.URL + "/api/generate",
		Model:  "qwen2.5vl:7b",
		Stream: true,
	})
	if err != nil {
		panic(fmt.Sprintf("creating qwen provider: %v", err))
	}

	registry, err := provider.NewRegistry(geminiProv, qwenProv)
	if err != nil {
		panic(fmt.Sprintf("creating registry: %v", err))
	}

	keyless, err := provider.NewRegistry(mustGemini(mockBackend.URL, ""))
	if err != nil {
		panic(fmt.Sprintf("creating keyless registry: %v", err))
	}

	return &TestEnvironment{
		GeminiServer:  startPinpoint(registry, gemini.Name, memory.New(100)),
		QwenServer:    startPinpoint(registry, qwen.Name, nil),
		KeylessServer: startPinpoint(keyless, gemini.Name, nil),
		MockBackend:   mockBackend,
	}
}

func mustGemini(baseURL, key string) *gemini.Provider {
	p, err := gemini.New(gemini.Config{
		BaseURL: baseURL,
		Model:   "gemini-2.5-flash",
		APIKey:  key,
	})
	if err != nil {
		panic(fmt.Sprintf("creating gemini provider: %v", err))
	}
	return p
}

// startPinpoint builds the production handler stack around a gateway.
func startPinpoint(registry *provider.Registry, active string, uploads storage.UploadStore) *httptest.Server {
	gw, err := gateway.New(registry, active)
	if err != nil {
		panic(fmt.Sprintf("creating gateway: %v", err))
	}

	cfg := transporthttp.DefaultConfig()
	cfg.StaticDir = os.TempDir()

	adapter := transporthttp.NewAdapter(gw, uploads, cfg, transport.Recovery(), transport.RequestID())
	return httptest.NewServer(adapter.Handler())
}

// Teardown stops all servers.
func (env *TestEnvironment) Teardown() {
	for _, srv := range []*httptest.Server{env.GeminiServer, env.QwenServer, env.KeylessServer, env.MockBackend} {
		if srv != nil {
			srv.Close()
		}
	}
}

// --- HTTP helpers ---

// postJSON sends a POST request with JSON body and returns the response.
func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

// send posts an annotation request to the /send route of base.
func send(t *testing.T, base, prompt string) *http.Response {
	t.Helper()
	return postJSON(t, base+"/send", map[string]string{
		"imageBase64": testImage,
		"prompt":      prompt,
	})
}

// getURL sends a GET request and returns the response.
func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return string(body)
}

// decodeJSON reads the response body and decodes it into the target.
func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
}

// --- Mock backend ---

// startMockBackend creates an httptest server that mimics both the Gemini
// generateContent API and the Ollama generate API. Trigger words in the
// prompt select the reply:
//
//	"prose"    - canned detections wrapped in a sentence
//	"describe" - a plain description without any JSON
//	"overload" - HTTP 503
//	"silent"   - a Gemini reply without any candidate text
func startMockBackend() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1beta/models/{action}", handleMockGenerateContent)
	mux.HandleFunc("POST /api/generate", handleMockOllama)
	return httptest.NewServer(mux)
}

// replyText picks the answer text for a prompt.
func replyText(prompt, canned string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "prose"):
		return "Sure! Here is what I found: " + canned + " Let me know if you need more."
	case strings.Contains(lower, "describe"):
		return describedScene
	default:
		return canned
	}
}

func handleMockGenerateContent(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("key") == "" {
		http.Error(w, `{"error":{"code":403,"status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
		return
	}

	var req struct {
		Contents []struct {
			Parts []struct {
				InlineData *struct {
					Data string `json:"data"`
				} `json:"inlineData"`
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"code":400,"status":"INVALID_ARGUMENT"}}`, http.StatusBadRequest)
		return
	}

	var prompt string
	var hasImage bool
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				hasImage = true
			}
			if p.Text != nil {
				prompt = *p.Text
			}
		}
	}
	if !hasImage {
		http.Error(w, `{"error":{"code":400,"status":"INVALID_ARGUMENT"}}`, http.StatusBadRequest)
		return
	}

	lower := strings.ToLower(prompt)
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.Contains(lower, "overload"):
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":{"code":503,"status":"UNAVAILABLE","message":"The model is overloaded."}}`)
	case strings.Contains(lower, "silent"):
		io.WriteString(w, `{"candidates":[{"finishReason":"SAFETY"}]}`)
	default:
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"role":  "model",
						"parts": []any{map[string]any{"text": replyText(prompt, cannedRowColumn)}},
					},
					"finishReason": "STOP",
				},
			},
		})
	}
}

func handleMockOllama(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model  string   `json:"model"`
		Prompt string   `json:"prompt"`
		Stream bool     `json:"stream"`
		Images []string `json:"images"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Images) != 1 {
		http.Error(w, `{"error":"invalid request"}`, http.StatusBadRequest)
		return
	}

	lower := strings.ToLower(req.Prompt)
	if strings.Contains(lower, "overload") {
		http.Error(w, `{"error":"server busy"}`, http.StatusServiceUnavailable)
		return
	}

	enc := json.NewEncoder(w)
	text := replyText(req.Prompt, cannedColumnRow)
	if !req.Stream {
		w.Header().Set("Content-Type", "application/json")
		enc.Encode(map[string]any{"model": req.Model, "response": text, "done": true})
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	for len(text) > 0 {
		n := min(len(text), 10)
		enc.Encode(map[string]any{"model": req.Model, "response": text[:n], "done": false})
		text = text[n:]
	}
	enc.Encode(map[string]any{"model": req.Model, "response": "", "done": true})
}
