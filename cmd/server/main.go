// Command server runs the pinpoint vision annotation gateway.
//
// Configuration is read from a YAML file (see -config, PINPOINT_CONFIG,
// ./config.yaml, /etc/pinpoint/config.yaml) with environment overrides:
//
//	PINPOINT_PORT             - Listen port (default: 8080)
//	PINPOINT_ACTIVE_MODEL     - Backend for /send: "gemini" or "qwen" (default: "gemini")
//	PINPOINT_GEMINI_MODEL     - Gemini model name
//	PINPOINT_QWEN_URL         - Ollama-compatible generate endpoint
//	PINPOINT_QWEN_MODEL       - Qwen model tag
//	PINPOINT_UPLOAD_DIR       - Directory for /upload (default: uploaded_images)
//	PINPOINT_UPLOAD_REDIS_URL - Redis URL when uploads.type is "redis"
//	PINPOINT_STATIC_DIR       - Frontend directory (default: frontend)
//	GEMINI_API_KEY            - Gemini credential
//	PINPOINT_DEBUG            - Debug categories (providers,gateway,normalize,uploads,all)
//	PINPOINT_LOG_LEVEL        - ERROR, WARN, INFO, DEBUG or TRACE
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rhuss/pinpoint/pkg/config"
	"github.com/rhuss/pinpoint/pkg/debug"
	"github.com/rhuss/pinpoint/pkg/gateway"
	"github.com/rhuss/pinpoint/pkg/observability"
	"github.com/rhuss/pinpoint/pkg/provider"
	"github.com/rhuss/pinpoint/pkg/provider/gemini"
	"github.com/rhuss/pinpoint/pkg/provider/qwen"
	"github.com/rhuss/pinpoint/pkg/storage"
	"github.com/rhuss/pinpoint/pkg/storage/disk"
	"github.com/rhuss/pinpoint/pkg/storage/memory"
	redisstore "github.com/rhuss/pinpoint/pkg/storage/redis"
	transporthttp "github.com/rhuss/pinpoint/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// Tee logs into a per-session file when a session dir is configured.
	var logOut io.Writer = os.Stdout
	if cfg.Logging.SessionDir != "" {
		f, err := debug.OpenSessionLog(cfg.Logging.SessionDir, time.Now())
		if err != nil {
			return fmt.Errorf("opening session log: %w", err)
		}
		defer f.Close()
		logOut = io.MultiWriter(os.Stdout, f)
		fmt.Fprintf(os.Stdout, "logging session to %s\n", f.Name())
	}
	if unknown := debug.Init(cfg.Logging.Debug, cfg.Logging.Level, logOut); len(unknown) > 0 {
		slog.Warn("unknown debug categories", "categories", unknown, "known", debug.Known)
	}

	ctx := context.Background()
	tracing, err := observability.SetupTracing(ctx, "pinpoint", observability.TracingOptions{
		Enabled:  cfg.Observability.Tracing.Enabled,
		Endpoint: cfg.Observability.Tracing.Endpoint,
		Writer:   logOut,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() { _ = tracing.Shutdown(context.Background()) }()

	// Create providers.
	gem, err := gemini.New(gemini.Config{
		BaseURL:        cfg.Gemini.APIBaseURL,
		APIVersion:     cfg.Gemini.APIVersion,
		Model:          cfg.Gemini.Model,
		Temperature:    cfg.Gemini.Temperature,
		ThinkingBudget: cfg.Gemini.ThinkingBudget,
		MIMEType:       cfg.Gemini.MIMEType,
		APIKey:         cfg.Gemini.APIKey,
		Timeout:        cfg.Gemini.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating gemini provider: %w", err)
	}
	defer gem.Close()
	if cfg.Gemini.APIKey == "" {
		slog.Warn("gemini credential not set, gemini requests will fail", "env", gemini.CredentialName)
	}

	qw, err := qwen.New(qwen.Config{
		URL:     cfg.Qwen.APIURL,
		Model:   cfg.Qwen.Model,
		Stream:  cfg.Qwen.Stream,
		Timeout: cfg.Qwen.Timeout,
	})
	if err != nil {
		return fmt.Errorf("creating qwen provider: %w", err)
	}
	defer qw.Close()

	registry, err := provider.NewRegistry(gem, qw)
	if err != nil {
		return fmt.Errorf("creating provider registry: %w", err)
	}
	if _, ok := registry.Lookup(cfg.ActiveModel); !ok {
		slog.Warn("active model has no adapter, /send will fail",
			"active_model", cfg.ActiveModel, "available", registry.Names())
	}

	gw, err := gateway.New(registry, cfg.ActiveModel, gateway.WithTracer(tracing.Tracer))
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	uploads, err := newUploadStore(ctx, cfg.Uploads)
	if err != nil {
		return err
	}
	if c, ok := uploads.(io.Closer); ok {
		defer c.Close()
	}

	metricsPath := ""
	if cfg.Observability.Metrics.Enabled {
		metricsPath = cfg.Observability.Metrics.Path
	}

	srv := transporthttp.NewServer(gw, uploads,
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithStaticDir(cfg.Server.StaticDir),
		transporthttp.WithMetricsPath(metricsPath),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
	)

	slog.Info("pinpoint configured",
		"active_model", cfg.ActiveModel,
		"gemini_model", cfg.Gemini.Model,
		"qwen_url", cfg.Qwen.APIURL,
		"qwen_model", cfg.Qwen.Model,
		"uploads", cfg.Uploads.Type,
		"static_dir", cfg.Server.StaticDir,
		"metrics", metricsPath,
		"tracing", cfg.Observability.Tracing.Enabled,
	)

	return srv.ListenAndServe()
}

// newUploadStore builds the store behind /upload.
func newUploadStore(ctx context.Context, cfg config.UploadsConfig) (storage.UploadStore, error) {
	switch cfg.Type {
	case "memory":
		slog.Info("upload storage enabled", "type", "memory", "max_items", cfg.MaxItems)
		return memory.New(cfg.MaxItems), nil
	case "redis":
		store, err := redisstore.New(ctx, redisstore.Config{
			URL:    cfg.Redis.URL,
			Prefix: cfg.Redis.Prefix,
			TTL:    cfg.Redis.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("creating upload store: %w", err)
		}
		slog.Info("upload storage enabled", "type", "redis", "prefix", cfg.Redis.Prefix, "ttl", cfg.Redis.TTL)
		return store, nil
	default:
		store, err := disk.New(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("creating upload store: %w", err)
		}
		slog.Info("upload storage enabled", "type", "disk", "dir", store.Dir())
		return store, nil
	}
}
