// Package config loads and validates configuration at startup.
// Fail-fast: an invalid value stops the process before anything is wired.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"resume-filler/internal/layout"
	"resume-filler/pkg/ai"
	"resume-filler/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port        string
	DatabaseURL string // empty: in-memory storage
	RedisURL    string // empty: view counts live in storage

	AIBackend    string
	AIServiceURL string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIURL    string
	OpenAIAPIKey string
	OpenAIModel  string

	TemplateStrategy layout.Strategy
	TemplateRefine   bool

	ExtractTimeout  time.Duration
	TemplateTimeout time.Duration
	FillTimeout     time.Duration
	RenderTimeout   time.Duration

	UploadDir       string
	UploadMaxAge    time.Duration
	UploadMaxBytes  int
	JanitorSchedule string
	ChromePath      string

	LogLevel  string
	LogFormat string
}

var defaults = map[string]string{
	"PORT":              "3000",
	"AI_BACKEND":        ai.BackendService,
	"AI_SERVICE_URL":    "http://ai-service:8000",
	"GEMINI_MODEL":      "gemini-2.0-flash",
	"OPENAI_BASE_URL":   "http://localhost:11434/v1",
	"OPENAI_MODEL":      "llama3.1",
	"TEMPLATE_STRATEGY": string(layout.StrategyGenerative),
	"TEMPLATE_REFINE":   "false",
	"EXTRACT_TIMEOUT":   "120s",
	"TEMPLATE_TIMEOUT":  "180s",
	"FILL_TIMEOUT":      "180s",
	"RENDER_TIMEOUT":    "60s",
	"UPLOAD_MAX_AGE":    "1h",
	"UPLOAD_MAX_BYTES":  strconv.Itoa(10 << 20),
	"JANITOR_SCHEDULE":  "@every 30m",
	"LOG_LEVEL":         "info",
	"LOG_FORMAT":        "text",
}

// Load reads an optional .env file, then the optional YAML file named by
// CONFIG_FILE, then the environment. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from env, which is consulted for every key
// including CONFIG_FILE.
func FromLookup(env func(string) (string, bool)) (*Config, error) {
	file := map[string]string{}
	if path, ok := env("CONFIG_FILE"); ok && path != "" {
		var err error
		if file, err = readYAML(path); err != nil {
			return nil, err
		}
	}
	get := func(key string) string {
		if v, ok := env(key); ok && v != "" {
			return v
		}
		if v, ok := file[key]; ok {
			return v
		}
		return defaults[key]
	}

	cfg := &Config{
		Port:            get("PORT"),
		DatabaseURL:     get("DATABASE_URL"),
		RedisURL:        get("REDIS_URL"),
		AIBackend:       strings.ToLower(get("AI_BACKEND")),
		AIServiceURL:    get("AI_SERVICE_URL"),
		GeminiAPIKey:    get("GEMINI_API_KEY"),
		GeminiModel:     get("GEMINI_MODEL"),
		OpenAIURL:       get("OPENAI_BASE_URL"),
		OpenAIAPIKey:    get("OPENAI_API_KEY"),
		OpenAIModel:     get("OPENAI_MODEL"),
		UploadDir:       get("UPLOAD_DIR"),
		JanitorSchedule: get("JANITOR_SCHEDULE"),
		ChromePath:      get("CHROME_PATH"),
		LogLevel:        get("LOG_LEVEL"),
		LogFormat:       strings.ToLower(get("LOG_FORMAT")),
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = filepath.Join(os.TempDir(), "resume-uploads")
	}

	var errs []error
	var err error
	if cfg.TemplateStrategy, err = layout.ParseStrategy(get("TEMPLATE_STRATEGY")); err != nil {
		errs = append(errs, fmt.Errorf("TEMPLATE_STRATEGY: %w", err))
	}
	if cfg.TemplateRefine, err = strconv.ParseBool(get("TEMPLATE_REFINE")); err != nil {
		errs = append(errs, fmt.Errorf("TEMPLATE_REFINE must be a boolean, got %q", get("TEMPLATE_REFINE")))
	}
	if cfg.UploadMaxBytes, err = strconv.Atoi(get("UPLOAD_MAX_BYTES")); err != nil || cfg.UploadMaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("UPLOAD_MAX_BYTES must be a positive integer, got %q", get("UPLOAD_MAX_BYTES")))
	}
	for key, dst := range map[string]*time.Duration{
		"EXTRACT_TIMEOUT":  &cfg.ExtractTimeout,
		"TEMPLATE_TIMEOUT": &cfg.TemplateTimeout,
		"FILL_TIMEOUT":     &cfg.FillTimeout,
		"RENDER_TIMEOUT":   &cfg.RenderTimeout,
		"UPLOAD_MAX_AGE":   &cfg.UploadMaxAge,
	} {
		d, err := time.ParseDuration(get(key))
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration, got %q", key, get(key)))
			continue
		}
		*dst = d
	}
	switch cfg.AIBackend {
	case ai.BackendService:
	case ai.BackendGemini:
		if cfg.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini backend"))
		}
	case ai.BackendOpenAI:
	default:
		errs = append(errs, fmt.Errorf("AI_BACKEND must be one of service, gemini, openai; got %q", cfg.AIBackend))
	}
	if _, err := cron.ParseStandard(cfg.JanitorSchedule); err != nil {
		errs = append(errs, fmt.Errorf("JANITOR_SCHEDULE: %w", err))
	}
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	switch cfg.LogFormat {
	case logger.FormatText, logger.FormatJSON, logger.FormatPretty:
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text, json or pretty; got %q", cfg.LogFormat))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// readYAML reads a flat mapping of configuration keys. Keys are matched
// case-insensitively against the environment names.
func readYAML(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[strings.ToUpper(k)] = v
	}
	return out, nil
}

// AIOptions returns the generator options for the configured backend.
func (c *Config) AIOptions() ai.Options {
	opts := ai.Options{Backend: c.AIBackend, ServiceURL: c.AIServiceURL, Timeout: c.FillTimeout}
	switch c.AIBackend {
	case ai.BackendGemini:
		opts.APIKey, opts.Model = c.GeminiAPIKey, c.GeminiModel
	case ai.BackendOpenAI:
		opts.APIKey, opts.Model, opts.BaseURL = c.OpenAIAPIKey, c.OpenAIModel, c.OpenAIURL
	}
	return opts
}
