package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"aura/internal/agent"
	"aura/internal/logging"
	"aura/internal/services"
)

// RouterConfig holds the recognized routing stage options.
type RouterConfig struct {
	DefaultModel string
}

// ParseRouterConfig decodes a free-form option mapping, rejecting
// unrecognized keys.
func ParseRouterConfig(opts map[string]any) (RouterConfig, error) {
	reader := newOptionReader(NameRouting, opts)
	cfg := RouterConfig{
		DefaultModel: reader.stringOption("default_model", "RRG"),
	}
	if err := reader.finish(); err != nil {
		return RouterConfig{}, err
	}
	if strings.TrimSpace(cfg.DefaultModel) == "" {
		return RouterConfig{}, services.Wrap(services.ErrConfiguration, NameRouting, "configure", "default_model must not be empty", nil)
	}
	return cfg, nil
}

// RouterStage selects the report generation model. The routing policy is a
// deterministic lookup: the configured default model handles every request,
// and the reasoning service is reserved for question answering downstream.
type RouterStage struct {
	cfg    RouterConfig
	logger *slog.Logger
}

func NewRouterStage(cfg RouterConfig) *RouterStage {
	if strings.TrimSpace(cfg.DefaultModel) == "" {
		cfg.DefaultModel = "RRG"
	}
	return &RouterStage{cfg: cfg, logger: logging.NewNop()}
}

// SetLogger attaches the stage's logger.
func (s *RouterStage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// RequiredOutputKeys declares the keys the agent wrapper validates.
func (s *RouterStage) RequiredOutputKeys() []string {
	return []string{"selected_model", "confidence"}
}

// Process routes the request to the configured report generator.
func (s *RouterStage) Process(ctx context.Context, input agent.Payload) (agent.Payload, error) {
	model := s.cfg.DefaultModel

	s.logger.InfoContext(ctx, "routing decision",
		logging.String("selected_model", model),
		logging.String("modality", inputString(input, "modality")),
		logging.Int("labels", len(inputStrings(input, "labels"))))

	return agent.Payload{
		"selected_model": model,
		"confidence":     1.0,
		"reason":         fmt.Sprintf("%s is the dedicated radiology report generator", model),
	}, nil
}
