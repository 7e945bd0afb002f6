package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
//
// active_model is only required to be non-empty: an identifier without an
// adapter is reported per request as unknown_provider.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// server.max_body_size must be positive.
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	if strings.TrimSpace(c.ActiveModel) == "" {
		errs = append(errs, fmt.Errorf("active_model is required"))
	}

	if c.Gemini.Model == "" {
		errs = append(errs, fmt.Errorf("gemini.model is required"))
	}
	if c.Gemini.ThinkingBudget < 0 {
		errs = append(errs, fmt.Errorf("gemini.thinking_budget must be >= 0, got %d", c.Gemini.ThinkingBudget))
	}

	if c.Qwen.APIURL == "" {
		errs = append(errs, fmt.Errorf("qwen.api_url is required"))
	}
	if c.Qwen.Model == "" {
		errs = append(errs, fmt.Errorf("qwen.model is required"))
	}

	// uploads.type must be a known value.
	switch c.Uploads.Type {
	case "disk":
		if c.Uploads.Dir == "" {
			errs = append(errs, fmt.Errorf("uploads.dir is required when uploads.type is \"disk\""))
		}
	case "memory":
		if c.Uploads.MaxItems < 0 {
			errs = append(errs, fmt.Errorf("uploads.max_items must be >= 0, got %d", c.Uploads.MaxItems))
		}
	case "redis":
		if c.Uploads.Redis.URL == "" {
			errs = append(errs, fmt.Errorf("uploads.redis.url is required when uploads.type is \"redis\""))
		}
		if c.Uploads.Redis.TTL < 0 {
			errs = append(errs, fmt.Errorf("uploads.redis.ttl must be >= 0, got %s", c.Uploads.Redis.TTL))
		}
	default:
		errs = append(errs, fmt.Errorf("uploads.type must be \"disk\", \"memory\" or \"redis\", got %q", c.Uploads.Type))
	}

	// logging.level must be a known value.
	switch strings.ToUpper(c.Logging.Level) {
	case "", "ERROR", "WARN", "WARNING", "INFO", "DEBUG", "TRACE":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of ERROR, WARN, INFO, DEBUG, TRACE, got %q", c.Logging.Level))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	return errors.Join(errs...)
}
