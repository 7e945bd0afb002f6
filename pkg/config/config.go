// Package config provides unified configuration for the pinpoint gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (PINPOINT_ prefix, plus GEMINI_API_KEY)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the pinpoint gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	ActiveModel   string              `yaml:"active_model"`
	Gemini        GeminiConfig        `yaml:"gemini"`
	Qwen          QwenConfig          `yaml:"qwen"`
	Uploads       UploadsConfig       `yaml:"uploads"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 120s
	MaxBodySize  int64         `yaml:"max_body_size"` // default: 20 MiB
	StaticDir    string        `yaml:"static_dir"`    // default: "frontend"
}

// GeminiConfig holds settings for the image-inline backend.
type GeminiConfig struct {
	APIBaseURL     string        `yaml:"api_base_url"`    // default: https://generativelanguage.googleapis.com
	APIVersion     string        `yaml:"api_version"`     // default: "v1beta"
	Model          string        `yaml:"model"`           // default: "gemini-2.5-flash"
	Temperature    float64       `yaml:"temperature"`     // default: 0.5
	ThinkingBudget int           `yaml:"thinking_budget"` // default: 0
	MIMEType       string        `yaml:"mime_type"`       // default: "image/png"
	APIKey         string        `yaml:"api_key"`         // usually from GEMINI_API_KEY
	APIKeyFile     string        `yaml:"api_key_file"`    // _file variant for api_key
	Timeout        time.Duration `yaml:"timeout"`         // 0 = no client-side timeout
}

// QwenConfig holds settings for the local-inference backend.
type QwenConfig struct {
	APIURL  string        `yaml:"api_url"` // default: http://localhost:11434/api/generate
	Model   string        `yaml:"model"`   // default: "qwen2.5vl:7b"
	Stream  bool          `yaml:"stream"`  // default: false
	Timeout time.Duration `yaml:"timeout"` // 0 = no client-side timeout
}

// UploadsConfig holds settings for the /upload endpoint store.
type UploadsConfig struct {
	Type     string      `yaml:"type"`      // "disk", "memory" or "redis", default: "disk"
	Dir      string      `yaml:"dir"`       // for disk store, default: "uploaded_images"
	MaxItems int         `yaml:"max_items"` // for memory store, 0 = unlimited, default: 100
	Redis    RedisConfig `yaml:"redis"`
}

// RedisConfig holds settings for the Redis upload store.
type RedisConfig struct {
	URL     string        `yaml:"url"`      // redis://host:6379/0
	URLFile string        `yaml:"url_file"` // _file variant for url, may carry a password
	Prefix  string        `yaml:"prefix"`   // default: "pinpoint:uploads"
	TTL     time.Duration `yaml:"ttl"`      // 0 = keep forever
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // ERROR, WARN, INFO, DEBUG, TRACE; default: INFO
	Debug      string `yaml:"debug"`       // comma-separated debug categories
	SessionDir string `yaml:"session_dir"` // empty disables session log files
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// TracingConfig holds OpenTelemetry settings. Without an endpoint spans are
// written to stdout.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`  // default: false
	Endpoint string `yaml:"endpoint"` // OTLP gRPC collector, e.g. "localhost:4317"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			MaxBodySize:  20 << 20,
			StaticDir:    "frontend",
		},
		ActiveModel: "gemini",
		Gemini: GeminiConfig{
			APIBaseURL:  "https://generativelanguage.googleapis.com",
			APIVersion:  "v1beta",
			Model:       "gemini-2.5-flash",
			Temperature: 0.5,
			MIMEType:    "image/png",
		},
		Qwen: QwenConfig{
			APIURL: "http://localhost:11434/api/generate",
			Model:  "qwen2.5vl:7b",
		},
		Uploads: UploadsConfig{
			Type:     "disk",
			Dir:      "uploaded_images",
			MaxItems: 100,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
