package stages

import (
	"context"
	"log/slog"
	"strings"

	"aura/internal/agent"
	"aura/internal/logging"
	"aura/internal/services"
)

// Reasoner answers a clinical question grounded on the generated report text.
// It is satisfied by the biomedgpt client.
type Reasoner interface {
	AnswerQuestion(ctx context.Context, question, reportText string) (string, error)
}

// ReasoningConfig holds the recognized reasoning stage options.
type ReasoningConfig struct {
	APIURL         string
	APIKey         string
	TimeoutSeconds int
	RetryAttempts  int
}

// ParseReasoningConfig decodes a free-form option mapping, rejecting
// unrecognized keys. An API URL is required: the reasoning service runs
// remotely and has no local fallback model.
func ParseReasoningConfig(opts map[string]any) (ReasoningConfig, error) {
	reader := newOptionReader(NameReasoning, opts)
	cfg := ReasoningConfig{
		APIURL:         reader.stringOption("api_url", ""),
		APIKey:         reader.stringOption("api_key", ""),
		TimeoutSeconds: reader.intOption("timeout_seconds", 30),
		RetryAttempts:  reader.intOption("retry_attempts", 3),
	}
	if err := reader.finish(); err != nil {
		return ReasoningConfig{}, err
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		return ReasoningConfig{}, services.Wrap(services.ErrConfiguration, NameReasoning, "configure", "api_url is required", nil)
	}
	return cfg, nil
}

const (
	reasoningSuccessConfidence  = 0.9
	reasoningFallbackConfidence = 0.5
	reasoningFallbackAnswer     = "Clinical reasoning temporarily unavailable."
	reasoningSuccessNote        = "BioMedGPT clinical QA based on the generated radiology report"
	reasoningFallbackNote       = "Reasoning error"
)

// ReasoningStage performs question answering over the generated report. Any
// internal fault degrades to a fixed low-confidence fallback answer; the
// stage never fails the pipeline.
type ReasoningStage struct {
	model  Reasoner
	logger *slog.Logger
}

func NewReasoningStage(model Reasoner) *ReasoningStage {
	return &ReasoningStage{model: model, logger: logging.NewNop()}
}

// SetLogger attaches the stage's logger.
func (s *ReasoningStage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// RequiredOutputKeys declares the keys the agent wrapper validates.
func (s *ReasoningStage) RequiredOutputKeys() []string {
	return []string{"answer", "confidence"}
}

// Process answers the clinical question using the report text only. No image
// data reaches the reasoning service.
func (s *ReasoningStage) Process(ctx context.Context, input agent.Payload) (agent.Payload, error) {
	question := inputString(input, "question")
	reportText := reportTextOf(input)

	switch {
	case question == "":
		return s.fallback(ctx, "no clinical question provided"), nil
	case reportText == "":
		return s.fallback(ctx, "empty report text"), nil
	case s.model == nil:
		return s.fallback(ctx, "no reasoning backend configured"), nil
	}

	answer, err := s.model.AnswerQuestion(ctx, question, reportText)
	if err != nil {
		s.logger.WarnContext(ctx, "reasoning request failed", logging.Error(err))
		return fallbackAnswer(), nil
	}

	return agent.Payload{
		"answer":     answer,
		"confidence": reasoningSuccessConfidence,
		"reasoning":  reasoningSuccessNote,
	}, nil
}

func (s *ReasoningStage) fallback(ctx context.Context, reason string) agent.Payload {
	s.logger.WarnContext(ctx, "reasoning degraded to fallback", logging.String("reason", reason))
	return fallbackAnswer()
}

func fallbackAnswer() agent.Payload {
	return agent.Payload{
		"answer":     reasoningFallbackAnswer,
		"confidence": reasoningFallbackConfidence,
		"reasoning":  reasoningFallbackNote,
	}
}

// reportTextOf flattens the report input into plain text. Structured reports
// become findings and impression separated by a blank line.
func reportTextOf(input agent.Payload) string {
	if input == nil {
		return ""
	}
	switch report := input["report"].(type) {
	case string:
		return strings.TrimSpace(report)
	case agent.Payload:
		return joinReport(report)
	case map[string]any:
		return joinReport(report)
	}
	return ""
}

func joinReport(report map[string]any) string {
	findings, _ := report["findings"].(string)
	impression, _ := report["impression"].(string)
	text := strings.TrimSpace(findings) + "\n\n" + strings.TrimSpace(impression)
	return strings.TrimSpace(text)
}
