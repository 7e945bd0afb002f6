package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rhuss/pinpoint/pkg/api"
	"github.com/rhuss/pinpoint/pkg/storage"
	"github.com/rhuss/pinpoint/pkg/storage/memory"
	"github.com/rhuss/pinpoint/pkg/transport"
)

// mockAnnotator is a configurable Annotator for testing.
type mockAnnotator struct {
	result *api.Result
	err    error
	got    *api.AnnotationRequest
	calls  int
}

func (m *mockAnnotator) Annotate(ctx context.Context, req *api.AnnotationRequest) (*api.Result, error) {
	m.calls++
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// failingStore is an UploadStore whose Save always fails.
type failingStore struct{ err error }

func (f failingStore) Save(context.Context, storage.Upload) (string, error) { return "", f.err }
func (f failingStore) Get(context.Context, string) ([]byte, error)          { return nil, f.err }

func newTestAdapter(t *testing.T, annotator transport.Annotator, uploads storage.UploadStore) (*Adapter, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.StaticDir = dir
	cfg.MaxBodySize = 1024
	return NewAdapter(annotator, uploads, cfg), dir
}

func sendJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/send", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSend_StructuredResult(t *testing.T) {
	a1, _ := api.NewAnnotation(10, 20, "cup")
	a2, _ := api.NewAnnotation(30, 40, "cup")
	mock := &mockAnnotator{result: api.Structured([]api.Annotation{a1, a2})}
	adapter, _ := newTestAdapter(t, mock, nil)

	rec := sendJSON(t, adapter.Handler(), `{"imageBase64":"aW1n","prompt":"find cups"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `[{"point":[10,20],"label":"cup"},{"point":[30,40],"label":"cup"}]` {
		t.Errorf("body = %s", got)
	}
	if mock.got.Image != "aW1n" || mock.got.Prompt != "find cups" {
		t.Errorf("annotator received %+v", mock.got)
	}
}

func TestSend_EmptyResultIsArray(t *testing.T) {
	adapter, _ := newTestAdapter(t, &mockAnnotator{result: api.Structured(nil)}, nil)

	rec := sendJSON(t, adapter.Handler(), `{"imageBase64":"aW1n","prompt":"find dogs"}`)

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestSend_RawFallback(t *testing.T) {
	text := "I could not find any cups, sorry."
	adapter, _ := newTestAdapter(t, &mockAnnotator{result: api.RawText(text)}, nil)

	rec := sendJSON(t, adapter.Handler(), `{"imageBase64":"aW1n","prompt":"find cups"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if rec.Body.String() != text {
		t.Errorf("body = %q, want %q", rec.Body.String(), text)
	}
}

func TestSend_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   api.ErrorType
	}{
		{"unknown provider", api.NewUnknownProviderError("llava"), http.StatusInternalServerError, api.ErrorTypeUnknownProvider},
		{"missing credential", api.NewMissingCredentialError("gemini", "GEMINI_API_KEY"), http.StatusBadRequest, api.ErrorTypeMissingCredential},
		{"upstream", api.NewUpstreamError("qwen", "backend unreachable", nil), http.StatusBadGateway, api.ErrorTypeUpstreamUnavailable},
		{"no text", api.NewNoTextFoundError("gemini", "candidates.0.content.parts.0.text"), http.StatusBadGateway, api.ErrorTypeNoTextFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, api.ErrorTypeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, _ := newTestAdapter(t, &mockAnnotator{err: tt.err}, nil)
			rec := sendJSON(t, adapter.Handler(), `{"imageBase64":"aW1n","prompt":"x"}`)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp api.ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if resp.Error.Type != tt.wantType {
				t.Errorf("error type = %q, want %q", resp.Error.Type, tt.wantType)
			}
		})
	}
}

func TestSend_RequestValidation(t *testing.T) {
	mock := &mockAnnotator{result: api.Structured(nil)}
	adapter, _ := newTestAdapter(t, mock, nil)
	h := adapter.Handler()

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/send", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnsupportedMediaType {
			t.Errorf("status = %d, want 415", rec.Code)
		}
	})

	t.Run("json with charset accepted", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/send", strings.NewReader(`{"imageBase64":"aW1n","prompt":"x"}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		rec := sendJSON(t, h, `{"imageBase64":`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("body too large", func(t *testing.T) {
		rec := sendJSON(t, h, `{"imageBase64":"`+strings.Repeat("A", 2048)+`","prompt":"x"}`)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/send", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}

func TestRequestIDHeader(t *testing.T) {
	var seen string
	annotator := transport.AnnotatorFunc(func(ctx context.Context, req *api.AnnotationRequest) (*api.Result, error) {
		seen = transport.RequestIDFromContext(ctx)
		return api.Structured(nil), nil
	})
	adapter, _ := newTestAdapter(t, annotator, nil)

	req := httptest.NewRequest("POST", "/send", strings.NewReader(`{"imageBase64":"aW1n","prompt":"x"}`))
	req.Header.Set("X-Request-ID", "client-id-1")
	rec := httptest.NewRecorder()
	adapter.Handler().ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "client-id-1" {
		t.Errorf("X-Request-ID = %q, want client-id-1", rec.Header().Get("X-Request-ID"))
	}
	if seen != "client-id-1" {
		t.Errorf("annotator saw request id %q", seen)
	}

	rec = httptest.NewRecorder()
	adapter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID")
	}
}

func TestUpload(t *testing.T) {
	store := memory.New(0)
	adapter, _ := newTestAdapter(t, &mockAnnotator{}, store)
	h := adapter.Handler()

	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	req := httptest.NewRequest("POST", "/upload", bytes.NewReader(png))
	req.Header.Set("Content-Type", "image/png")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "Saved upload_") || !strings.HasSuffix(body, ".png") {
		t.Fatalf("body = %q", body)
	}
	name := strings.TrimPrefix(body, "Saved ")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/uploads/"+name, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET upload status = %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), png) {
		t.Errorf("GET upload body = %v, want %v", rec.Body.Bytes(), png)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("GET upload Content-Type = %q", ct)
	}
}

func TestUpload_Extensions(t *testing.T) {
	tests := []struct {
		contentType string
		wantSuffix  string
	}{
		{"image/jpeg", ".jpg"},
		{"image/gif", ".gif"},
		{"", ".bin"},
		{"application/pdf", ".bin"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			adapter, _ := newTestAdapter(t, &mockAnnotator{}, memory.New(0))
			req := httptest.NewRequest("POST", "/upload", strings.NewReader("data"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			adapter.Handler().ServeHTTP(rec, req)
			if !strings.HasSuffix(rec.Body.String(), tt.wantSuffix) {
				t.Errorf("body = %q, want suffix %q", rec.Body.String(), tt.wantSuffix)
			}
		})
	}
}

func TestUpload_Errors(t *testing.T) {
	t.Run("no store", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, &mockAnnotator{}, nil)
		rec := httptest.NewRecorder()
		adapter.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/upload", strings.NewReader("x")))
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("status = %d, want 501", rec.Code)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, &mockAnnotator{}, memory.New(0))
		rec := httptest.NewRecorder()
		adapter.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/upload", strings.NewReader("")))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("too large", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, &mockAnnotator{}, memory.New(0))
		rec := httptest.NewRecorder()
		adapter.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/upload", strings.NewReader(strings.Repeat("x", 4096))))
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, &mockAnnotator{}, failingStore{err: errors.New("disk full")})
		rec := httptest.NewRecorder()
		adapter.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/upload", strings.NewReader("x")))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})

	t.Run("unknown upload", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, &mockAnnotator{}, memory.New(0))
		rec := httptest.NewRecorder()
		adapter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/uploads/upload_1_deadbeef.png", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestIndexAndStatic(t *testing.T) {
	adapter, dir := newTestAdapter(t, &mockAnnotator{}, nil)
	h := adapter.Handler()

	// Missing index.html.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing index status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "index.html not found") {
		t.Errorf("missing index body = %q", rec.Body.String())
	}

	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>pinpoint</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "<h1>pinpoint</h1>" {
		t.Errorf("index = %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("index Content-Type = %q", ct)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/static/app.js", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "console.log(1)" {
		t.Errorf("static = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	adapter, _ := newTestAdapter(t, &mockAnnotator{result: api.Structured(nil)}, nil)
	h := adapter.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	sendJSON(t, h, `{"imageBase64":"aW1n","prompt":"x"}`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `pinpoint_requests_total{method="POST",route="POST /send",status="2xx"}`) {
		t.Errorf("metrics missing /send request counter")
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MetricsPath = ""
	adapter := NewAdapter(&mockAnnotator{}, nil, cfg)

	rec := httptest.NewRecorder()
	adapter.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("metrics status = %d, want 404 when disabled", rec.Code)
	}
}
