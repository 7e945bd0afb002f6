package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rhuss/pinpoint/pkg/storage"
	"github.com/rhuss/pinpoint/pkg/transport"
)

// Server runs the pinpoint routes on an http.Server and drains in-flight
// annotate calls on SIGINT or SIGTERM.
type Server struct {
	httpServer *http.Server
	config     ServerConfig
	logger     *slog.Logger
	uploads    bool
}

// ServerConfig is the adapter Config plus listener settings.
type ServerConfig struct {
	Config

	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ShutdownTimeout bounds how long a backend call may keep the process
	// alive after a stop signal.
	ShutdownTimeout time.Duration
}

// DefaultServerConfig listens on :8080. The write timeout leaves room for
// slow vision backends.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Config:          DefaultConfig(),
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.config.Addr = addr }
}

// WithMaxBodySize caps /send and /upload bodies.
func WithMaxBodySize(n int64) ServerOption {
	return func(s *Server) { s.config.MaxBodySize = n }
}

// WithStaticDir sets the directory holding index.html and /static/ files.
func WithStaticDir(dir string) ServerOption {
	return func(s *Server) { s.config.StaticDir = dir }
}

// WithMetricsPath sets the Prometheus endpoint path. Empty disables it.
func WithMetricsPath(p string) ServerOption {
	return func(s *Server) { s.config.MetricsPath = p }
}

// WithTimeouts sets the read and write timeouts.
func WithTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.config.ReadTimeout = read
		s.config.WriteTimeout = write
	}
}

// WithShutdownTimeout sets the drain deadline.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithLogger sets the logger used for lifecycle and request logs.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer serves annotator on the pinpoint routes. uploads may be nil,
// in which case /upload answers 501. Recovery, request IDs and request
// logging always wrap the annotator.
func NewServer(annotator transport.Annotator, uploads storage.UploadStore, opts ...ServerOption) *Server {
	s := &Server{
		config:  DefaultServerConfig(),
		logger:  slog.Default(),
		uploads: uploads != nil,
	}
	for _, opt := range opts {
		opt(s)
	}

	adapter := NewAdapter(annotator, uploads, s.config.Config,
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(s.logger),
	)

	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      adapter.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	return s
}

// ListenAndServe binds the configured address and serves until a stop
// signal arrives.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Addr, err)
	}
	return s.ServeOn(ln)
}

// ServeOn serves on ln until a stop signal arrives.
func (s *Server) ServeOn(ln net.Listener) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.serve(ctx, ln)
}

// serve runs until ctx is done or the listener fails, then drains.
func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("pinpoint listening",
		"addr", ln.Addr().String(),
		"uploads", s.uploads,
		"static_dir", s.config.StaticDir,
		"metrics", s.config.MetricsPath,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("draining requests", "timeout", s.config.ShutdownTimeout)
	if err := s.httpServer.Shutdown(drainCtx); err != nil {
		s.logger.Error("shutdown failed", "error", err)
		return err
	}
	s.logger.Info("pinpoint stopped")
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
