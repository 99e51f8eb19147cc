package stages

import (
	"context"
	"math"
	"strings"
	"testing"

	"aura/internal/agent"
)

type stubKnowledgeValidator struct {
	name     string
	valid    bool
	problems []string
}

func (s stubKnowledgeValidator) Name() string { return s.name }

func (s stubKnowledgeValidator) Validate(context.Context, string, string) (bool, []string) {
	return s.valid, s.problems
}

func TestValidationAllLabelsMentioned(t *testing.T) {
	stage := NewValidationStage(ValidationConfig{})
	out, err := stage.Process(context.Background(), agent.Payload{
		"report": agent.Payload{
			"findings":   "Both the left lung and right lung are clear. Heart size is normal.",
			"impression": "No acute disease.",
		},
		"labels":   []string{"left lung", "right lung", "heart"},
		"modality": "xray",
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := out["is_valid"].(bool); !got {
		t.Fatal("report should be valid")
	}
	if got := out["confidence"].(float64); got != 1.0 {
		t.Fatalf("confidence = %v, want 1.0", got)
	}
	if warnings := out["warnings"].([]string); len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestValidationPenalizesOmission(t *testing.T) {
	stage := NewValidationStage(ValidationConfig{})
	out, err := stage.Process(context.Background(), agent.Payload{
		"report": agent.Payload{
			"findings":   "The left lung is clear.",
			"impression": "No acute disease.",
		},
		"labels": []string{"left lung", "right lung"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	warnings := out["warnings"].([]string)
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if !strings.Contains(warnings[0], "right lung") {
		t.Fatalf("warning %q must name the omitted label", warnings[0])
	}
	if got := out["confidence"].(float64); math.Abs(got-0.9) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.9", got)
	}
	if got := out["is_valid"].(bool); !got {
		t.Fatal("omissions alone must not invalidate the report")
	}
}

func TestValidationCaseInsensitiveMatch(t *testing.T) {
	stage := NewValidationStage(ValidationConfig{})
	out, err := stage.Process(context.Background(), agent.Payload{
		"report": agent.Payload{"findings": "HEART size is normal.", "impression": ""},
		"labels": []string{"Heart"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if warnings := out["warnings"].([]string); len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestValidationConfidenceFloor(t *testing.T) {
	labels := make([]string, 12)
	for i := range labels {
		labels[i] = strings.Repeat("z", i+1)
	}
	stage := NewValidationStage(ValidationConfig{})
	out, err := stage.Process(context.Background(), agent.Payload{
		"report": agent.Payload{"findings": "Nothing relevant.", "impression": ""},
		"labels": labels,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := out["confidence"].(float64); got != 0 {
		t.Fatalf("confidence = %v, want floor at 0", got)
	}
}

func TestValidationKnowledgeFailureInvalidates(t *testing.T) {
	validator := stubKnowledgeValidator{
		name:     "umls",
		valid:    false,
		problems: []string{"unknown concept: flibbertigibbet"},
	}
	stage := NewValidationStage(ValidationConfig{}, validator)

	out, err := stage.Process(context.Background(), agent.Payload{
		"report": agent.Payload{"findings": "flibbertigibbet noted.", "impression": ""},
		"labels": []string{},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := out["is_valid"].(bool); got {
		t.Fatal("knowledge failure must invalidate the report")
	}
	if problems := out["errors"].([]string); len(problems) != 1 {
		t.Fatalf("errors = %v", problems)
	}
}

func TestValidationAcceptsPlainTextReport(t *testing.T) {
	stage := NewValidationStage(ValidationConfig{})
	out, err := stage.Process(context.Background(), agent.Payload{
		"report": "The heart appears normal.",
		"labels": []string{"heart"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if warnings := out["warnings"].([]string); len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestParseValidationConfigRejectsUnknownOption(t *testing.T) {
	if _, err := ParseValidationConfig(map[string]any{"strict": true}); err == nil {
		t.Fatal("expected configuration error")
	}
}
