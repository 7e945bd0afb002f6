package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/pinpoint/pkg/api"
	"github.com/rhuss/pinpoint/pkg/observability"
	"github.com/rhuss/pinpoint/pkg/storage"
	"github.com/rhuss/pinpoint/pkg/transport"
)

// Adapter serves the annotation API and the bundled frontend over HTTP.
// It routes requests to the appropriate handler and serializes results.
type Adapter struct {
	annotator transport.Annotator
	uploads   storage.UploadStore // nil disables /upload
	mux       *http.ServeMux
	config    Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
	// StaticDir holds index.html and the files served under /static/.
	StaticDir string
	// MetricsPath exposes Prometheus metrics when non-empty.
	MetricsPath string
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 20 << 20, // 20 MB
		StaticDir:   "frontend",
		MetricsPath: "/metrics",
	}
}

// NewAdapter creates an HTTP adapter around annotator. The upload store is
// optional; when nil, POST /upload answers 501.
// Middleware is applied to the Annotator in the given order.
func NewAdapter(annotator transport.Annotator, uploads storage.UploadStore, cfg Config, middlewares ...transport.Middleware) *Adapter {
	// Apply middleware chain to the annotator.
	if len(middlewares) > 0 {
		annotator = transport.Chain(middlewares...)(annotator)
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}

	a := &Adapter{
		annotator: annotator,
		uploads:   uploads,
		mux:       http.NewServeMux(),
		config:    cfg,
	}

	a.mux.HandleFunc("POST /send", a.handleSend)
	a.mux.HandleFunc("POST /upload", a.handleUpload)
	a.mux.HandleFunc("GET /uploads/{name}", a.handleGetUpload)
	a.mux.HandleFunc("GET /{$}", a.handleIndex)
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	a.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	if cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// HTTP-level middleware for request ID propagation and request metrics.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(observability.MetricsMiddleware(a.mux))
}

// httpRequestIDMiddleware is HTTP-level middleware that owns the
// X-Request-ID header. A client-supplied ID is reused, otherwise a new one
// is generated; either way it is placed in the context and echoed on the
// response.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		r = r.WithContext(transport.ContextWithRequestID(r.Context(), id))
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// handleSend handles POST /send.
func (a *Adapter) handleSend(w http.ResponseWriter, r *http.Request) {
	// Validate Content-Type.
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
				http.StatusUnsupportedMediaType,
			)
			return
		}
	}

	// Limit body size.
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	// Decode request.
	var req api.AnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	res, err := a.annotator.Annotate(r.Context(), &req)
	if err != nil {
		transport.WriteAPIError(w, transport.AsAPIError(err))
		return
	}

	// Unparsable model output is still a success, returned verbatim.
	if res.IsRaw() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, res.Raw)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(res.Annotations)
}

// handleUpload handles POST /upload. The body is the raw image.
func (a *Adapter) handleUpload(w http.ResponseWriter, r *http.Request) {
	if a.uploads == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "uploads are not available (no store configured)"),
			http.StatusNotImplemented,
		)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		observability.UploadsTotal.WithLabelValues("error").Inc()
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("upload too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "reading upload: "+err.Error()),
			http.StatusBadRequest,
		)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	name, err := a.uploads.Save(r.Context(), storage.Upload{Data: data, ContentType: contentType})
	if err != nil {
		observability.UploadsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, storage.ErrEmpty) {
			transport.WriteAPIError(w, api.NewInvalidRequestError("body", "upload body is empty"))
			return
		}
		transport.WriteAPIError(w, api.NewServerError("failed to save upload: "+err.Error()))
		return
	}

	observability.UploadsTotal.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Saved %s", name)
}

// handleGetUpload handles GET /uploads/{name}.
func (a *Adapter) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	if a.uploads == nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("", "uploads are not available (no store configured)"),
			http.StatusNotImplemented,
		)
		return
	}

	name := r.PathValue("name")
	data, err := a.uploads.Get(r.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidName):
			transport.WriteErrorResponse(w, api.NewInvalidRequestError("name", "malformed upload name"), http.StatusBadRequest)
		case errors.Is(err, storage.ErrNotFound):
			transport.WriteErrorResponse(w, api.NewInvalidRequestError("name", "upload "+name+" not found"), http.StatusNotFound)
		default:
			transport.WriteAPIError(w, api.NewServerError(err.Error()))
		}
		return
	}

	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleIndex handles GET / by serving index.html from the static directory.
func (a *Adapter) handleIndex(w http.ResponseWriter, r *http.Request) {
	body, err := os.ReadFile(filepath.Join(a.config.StaticDir, "index.html"))
	if err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "404 Not Found: %s/index.html not found", a.config.StaticDir)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
