package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName               string            `mapstructure:"app_name"`
	LogLevel              string            `mapstructure:"log_level"`
	APIHost               string            `mapstructure:"api_host"`
	HeadersFile           string            `mapstructure:"headers_file"`
	BearerTokenStorageKey string            `mapstructure:"bearer_token_storage_key"`
	Headers               map[string]string `mapstructure:"-"`

	StorageType           string        `mapstructure:"storage_type"`
	BBoltPath             string        `mapstructure:"bbolt_path"`
	TokenTTLSeconds       int64         `mapstructure:"token_ttl_seconds"`
	StorageCleanupSeconds int64         `mapstructure:"storage_cleanup_interval_seconds"`
	TokenTTL              time.Duration `mapstructure:"-"`
	StorageCleanup        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	return LoadWith(nil)
}

// LoadWith reads configuration from v, letting callers bind flags before loading.
func LoadWith(v *viper.Viper) (*Config, error) {
	_ = godotenv.Load("configs/.env")
	if v == nil {
		v = viper.New()
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "samvad-api-client")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_host", "")
	v.SetDefault("headers_file", "")
	v.SetDefault("bearer_token_storage_key", "bearerToken")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/tokens.db")
	v.SetDefault("token_ttl_seconds", 0) // never expire
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIHost = strings.TrimSpace(cfg.APIHost)
	if cfg.APIHost == "" {
		return nil, errors.New("api_host is required")
	}

	if cfg.TokenTTLSeconds < 0 {
		return nil, fmt.Errorf("invalid token_ttl_seconds (must be zero or positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.TokenTTL = time.Duration(cfg.TokenTTLSeconds) * time.Second
	cfg.StorageCleanup = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	if strings.TrimSpace(cfg.HeadersFile) != "" {
		headers, err := LoadHeaders(cfg.HeadersFile)
		if err != nil {
			return nil, err
		}
		cfg.Headers = headers
	}

	return &cfg, nil
}

// headersFile represents the structure of the headers configuration file.
type headersFile struct {
	Headers map[string]string `json:"headers" yaml:"headers"`
}

// LoadHeaders reads instance headers from a YAML or JSON file.
func LoadHeaders(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("headers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read headers file: %w", err)
	}

	file, err := parseHeadersFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return sanitizeHeaders(file.Headers), nil
}

// parseHeadersFile attempts to decode the headers file content.
func parseHeadersFile(data []byte, ext string) (headersFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var file headersFile
		if err := d.fn(data, &file); err != nil {
			lastErr = fmt.Errorf("decode %s headers: %w", d.name, err)
			continue
		}
		return file, nil
	}

	if lastErr != nil {
		return headersFile{}, lastErr
	}
	return headersFile{}, errors.New("headers file format not recognized (expected YAML or JSON)")
}

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
