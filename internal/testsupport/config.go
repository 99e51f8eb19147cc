package testsupport

import (
	"path/filepath"
	"testing"

	"aura/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.OutputDir = filepath.Join(base, "output")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithReasoningAPI points the reasoning stage at the given endpoint.
func WithReasoningAPI(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Reasoning.APIURL = url
	}
}

// WithConfidenceThreshold overrides the segmentation confidence threshold.
func WithConfidenceThreshold(threshold float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Segmentation.ConfidenceThreshold = threshold
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
