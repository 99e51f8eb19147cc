package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"aura/internal/agent"
	"aura/internal/logging"
)

// KnowledgeValidator checks a structured report against an external medical
// knowledge source. Implementations live outside this core.
type KnowledgeValidator interface {
	Name() string
	Validate(ctx context.Context, findings, impression string) (valid bool, problems []string)
}

// ValidationConfig holds the recognized validation stage options.
type ValidationConfig struct {
	KnowledgeDir string
}

// ParseValidationConfig decodes a free-form option mapping, rejecting
// unrecognized keys.
func ParseValidationConfig(opts map[string]any) (ValidationConfig, error) {
	reader := newOptionReader(NameValidation, opts)
	cfg := ValidationConfig{
		KnowledgeDir: reader.stringOption("knowledge_dir", ""),
	}
	if err := reader.finish(); err != nil {
		return ValidationConfig{}, err
	}
	return cfg, nil
}

const omissionPenalty = 0.1

// ValidationStage cross-checks the generated report against the segmentation
// labels: every detected structure should be mentioned in the report text.
// Omissions lower confidence without invalidating the report; only knowledge
// validator failures mark it invalid.
type ValidationStage struct {
	cfg        ValidationConfig
	validators []KnowledgeValidator
	logger     *slog.Logger
}

func NewValidationStage(cfg ValidationConfig, validators ...KnowledgeValidator) *ValidationStage {
	return &ValidationStage{cfg: cfg, validators: validators, logger: logging.NewNop()}
}

// SetLogger attaches the stage's logger.
func (s *ValidationStage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// RequiredOutputKeys declares the keys the agent wrapper validates.
func (s *ValidationStage) RequiredOutputKeys() []string {
	return []string{"is_valid", "confidence"}
}

// Process checks anatomical consistency and runs any configured knowledge
// validators.
func (s *ValidationStage) Process(ctx context.Context, input agent.Payload) (agent.Payload, error) {
	findings, impression := reportSectionsOf(input)
	reportText := strings.ToLower(findings + " " + impression)
	detected := inputStrings(input, "labels")

	valid := true
	confidence := 1.0
	warnings := []string{}
	problems := []string{}

	for _, label := range detected {
		if !strings.Contains(reportText, strings.ToLower(label)) {
			warnings = append(warnings, fmt.Sprintf("Omission: '%s' detected in image but not mentioned in report.", label))
			confidence -= omissionPenalty
		}
	}
	if confidence < 0 {
		confidence = 0
	}

	for _, validator := range s.validators {
		ok, found := validator.Validate(ctx, findings, impression)
		if !ok {
			valid = false
			problems = append(problems, found...)
			s.logger.WarnContext(ctx, "knowledge validation failed",
				logging.String("validator", validator.Name()),
				logging.Int("problems", len(found)))
		}
	}

	s.logger.InfoContext(ctx, "validation complete",
		logging.Bool("is_valid", valid),
		logging.Float64("confidence", confidence),
		logging.Int("omissions", len(warnings)))

	return agent.Payload{
		"is_valid":   valid,
		"confidence": confidence,
		"errors":     problems,
		"warnings":   warnings,
	}, nil
}

// reportSectionsOf extracts findings and impression from the report input,
// accepting either the structured form or plain text.
func reportSectionsOf(input agent.Payload) (findings, impression string) {
	if input == nil {
		return "", ""
	}
	switch report := input["report"].(type) {
	case string:
		return report, ""
	case agent.Payload:
		return sectionStrings(report)
	case map[string]any:
		return sectionStrings(report)
	}
	return "", ""
}

func sectionStrings(report map[string]any) (string, string) {
	findings, _ := report["findings"].(string)
	impression, _ := report["impression"].(string)
	return findings, impression
}
