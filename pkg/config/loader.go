package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, PINPOINT_CONFIG env, ./config.yaml, /etc/pinpoint/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	// Apply environment variable overrides.
	applyEnvOverrides(&cfg)

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. PINPOINT_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/pinpoint/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	// Check PINPOINT_CONFIG env var.
	if envPath := os.Getenv("PINPOINT_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/pinpoint/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
// Unparsable numeric values are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PINPOINT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PINPOINT_ACTIVE_MODEL"); v != "" {
		cfg.ActiveModel = v
	}
	if v := os.Getenv("PINPOINT_GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("PINPOINT_QWEN_URL"); v != "" {
		cfg.Qwen.APIURL = v
	}
	if v := os.Getenv("PINPOINT_QWEN_MODEL"); v != "" {
		cfg.Qwen.Model = v
	}
	if v := os.Getenv("PINPOINT_UPLOAD_DIR"); v != "" {
		cfg.Uploads.Dir = v
	}
	if v := os.Getenv("PINPOINT_UPLOAD_REDIS_URL"); v != "" {
		cfg.Uploads.Redis.URL = v
	}
	if v := os.Getenv("PINPOINT_STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}

	// The credential keeps the name the Gemini tooling uses.
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// gemini.api_key_file -> gemini.api_key
	if cfg.Gemini.APIKeyFile != "" && cfg.Gemini.APIKey == "" {
		val, err := readSecretFile(cfg.Gemini.APIKeyFile)
		if err != nil {
			return fmt.Errorf("gemini.api_key_file: %w", err)
		}
		cfg.Gemini.APIKey = val
	}

	// uploads.redis.url_file -> uploads.redis.url
	if cfg.Uploads.Redis.URLFile != "" && cfg.Uploads.Redis.URL == "" {
		val, err := readSecretFile(cfg.Uploads.Redis.URLFile)
		if err != nil {
			return fmt.Errorf("uploads.redis.url_file: %w", err)
		}
		cfg.Uploads.Redis.URL = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
