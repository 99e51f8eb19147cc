package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aura/internal/config"
)

func TestLoadDefaultsAndExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("AURA_REASONING_URL", "")
	t.Setenv("AURA_REASONING_API_KEY", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "aura")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if !cfg.Pipeline.EnableReasoning || !cfg.Pipeline.EnableValidation {
		t.Fatal("expected reasoning and validation enabled by default")
	}
	if cfg.Segmentation.ConfidenceThreshold != 0.5 {
		t.Fatalf("unexpected confidence threshold: %v", cfg.Segmentation.ConfidenceThreshold)
	}
	if cfg.Segmentation.ImageSize != 512 {
		t.Fatalf("unexpected image size: %d", cfg.Segmentation.ImageSize)
	}
	if cfg.Router.DefaultModel != "RRG" {
		t.Fatalf("unexpected router model: %q", cfg.Router.DefaultModel)
	}
	if cfg.Reasoning.APIURL != "" {
		t.Fatalf("expected reasoning url empty by default, got %q", cfg.Reasoning.APIURL)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.OutputDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "aura.toml")

	body := `
[segmentation]
confidence_threshold = 0.8

[router]
default_model = "chexpert"

[reasoning]
api_url = "http://localhost:8001/infer"
timeout_seconds = 5

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Segmentation.ConfidenceThreshold != 0.8 {
		t.Fatalf("unexpected threshold: %v", cfg.Segmentation.ConfidenceThreshold)
	}
	if cfg.Router.DefaultModel != "chexpert" {
		t.Fatalf("unexpected router model: %q", cfg.Router.DefaultModel)
	}
	if cfg.Reasoning.APIURL != "http://localhost:8001/infer" {
		t.Fatalf("unexpected reasoning url: %q", cfg.Reasoning.APIURL)
	}
	if cfg.Reasoning.RetryAttempts != 3 {
		t.Fatalf("expected default retry attempts, got %d", cfg.Reasoning.RetryAttempts)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings: %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestReasoningEnvFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("AURA_REASONING_URL", "http://127.0.0.1:9000/infer")
	t.Setenv("AURA_REASONING_API_KEY", "secret")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Reasoning.APIURL != "http://127.0.0.1:9000/infer" {
		t.Fatalf("expected reasoning url from env, got %q", cfg.Reasoning.APIURL)
	}
	if cfg.Reasoning.APIKey != "secret" {
		t.Fatalf("expected reasoning key from env, got %q", cfg.Reasoning.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "threshold out of range",
			mutate: func(c *config.Config) { c.Segmentation.ConfidenceThreshold = 1.2 },
			want:   "confidence_threshold",
		},
		{
			name:   "image size",
			mutate: func(c *config.Config) { c.Segmentation.ImageSize = -1 },
			want:   "image_size",
		},
		{
			name:   "router model",
			mutate: func(c *config.Config) { c.Router.DefaultModel = "" },
			want:   "default_model",
		},
		{
			name:   "reasoning timeout",
			mutate: func(c *config.Config) { c.Reasoning.TimeoutSeconds = 0 },
			want:   "timeout_seconds",
		},
		{
			name:   "log format",
			mutate: func(c *config.Config) { c.Logging.Format = "yaml" },
			want:   "logging.format",
		},
		{
			name:   "log level",
			mutate: func(c *config.Config) { c.Logging.Level = "trace" },
			want:   "logging.level",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}
