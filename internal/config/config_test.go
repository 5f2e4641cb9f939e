package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resume-filler/internal/config"
	"resume-filler/internal/layout"
	"resume-filler/pkg/ai"
)

func lookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := config.FromLookup(lookup(nil))
	if err != nil {
		t.Fatalf("FromLookup: %v", err)
	}
	if cfg.Port != "3000" || cfg.AIServiceURL != "http://ai-service:8000" || cfg.AIBackend != ai.BackendService {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.TemplateStrategy != layout.StrategyGenerative || cfg.TemplateRefine {
		t.Errorf("template defaults: %v %v", cfg.TemplateStrategy, cfg.TemplateRefine)
	}
	if cfg.ExtractTimeout != 120*time.Second || cfg.FillTimeout != 180*time.Second || cfg.RenderTimeout != 60*time.Second {
		t.Errorf("timeouts: %v %v %v", cfg.ExtractTimeout, cfg.FillTimeout, cfg.RenderTimeout)
	}
	if cfg.DatabaseURL != "" || cfg.RedisURL != "" || cfg.UploadDir == "" {
		t.Errorf("storage defaults: %+v", cfg)
	}
}

func TestFromLookup_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "port: \"8080\"\ntemplate_strategy: positioned\nTEMPLATE_REFINE: \"true\"\nfill_timeout: 30s\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.FromLookup(lookup(map[string]string{
		"CONFIG_FILE":  path,
		"FILL_TIMEOUT": "45s",
		"AI_BACKEND":   "OpenAI",
	}))
	if err != nil {
		t.Fatalf("FromLookup: %v", err)
	}
	if cfg.Port != "8080" || cfg.TemplateStrategy != layout.StrategyPositioned || !cfg.TemplateRefine {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.FillTimeout != 45*time.Second {
		t.Errorf("FillTimeout = %v, env should win", cfg.FillTimeout)
	}
	opts := cfg.AIOptions()
	if opts.Backend != ai.BackendOpenAI || opts.Model != "llama3.1" || opts.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("AIOptions = %+v", opts)
	}
}

func TestFromLookup_FailsFast(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration":        {"EXTRACT_TIMEOUT": "soon"},
		"negative duration":   {"RENDER_TIMEOUT": "-1s"},
		"unknown backend":     {"AI_BACKEND": "oracle"},
		"gemini without key":  {"AI_BACKEND": "gemini"},
		"unknown strategy":    {"TEMPLATE_STRATEGY": "magic"},
		"bad refine flag":     {"TEMPLATE_REFINE": "maybe"},
		"bad schedule":        {"JANITOR_SCHEDULE": "whenever"},
		"bad log level":       {"LOG_LEVEL": "loud"},
		"bad log format":      {"LOG_FORMAT": "xml"},
		"bad upload size":     {"UPLOAD_MAX_BYTES": "0"},
		"missing config file": {"CONFIG_FILE": "/does/not/exist.yaml"},
	}
	for name, env := range cases {
		if _, err := config.FromLookup(lookup(env)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestFromLookup_ReportsEveryProblem(t *testing.T) {
	_, err := config.FromLookup(lookup(map[string]string{"EXTRACT_TIMEOUT": "x", "LOG_FORMAT": "xml"}))
	if err == nil || !strings.Contains(err.Error(), "EXTRACT_TIMEOUT") || !strings.Contains(err.Error(), "LOG_FORMAT") {
		t.Errorf("error = %v", err)
	}
}
