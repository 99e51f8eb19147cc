package stages

import (
	"context"
	"errors"
	"testing"

	"aura/internal/agent"
	"aura/internal/services"
)

func TestParseRouterConfigDefaults(t *testing.T) {
	cfg, err := ParseRouterConfig(nil)
	if err != nil {
		t.Fatalf("ParseRouterConfig: %v", err)
	}
	if cfg.DefaultModel != "RRG" {
		t.Fatalf("DefaultModel = %q", cfg.DefaultModel)
	}
}

func TestParseRouterConfigRejectsUnknownOption(t *testing.T) {
	_, err := ParseRouterConfig(map[string]any{"fallback_model": "other"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseRouterConfigRejectsEmptyModel(t *testing.T) {
	_, err := ParseRouterConfig(map[string]any{"default_model": "  "})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRouterSelectsConfiguredModel(t *testing.T) {
	stage := NewRouterStage(RouterConfig{DefaultModel: "RRG"})
	out, err := stage.Process(context.Background(), agent.Payload{
		"labels":       []string{"lung", "heart"},
		"modality":     "xray",
		"body_regions": []string{"chest"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := out["selected_model"].(string); got != "RRG" {
		t.Fatalf("selected_model = %q", got)
	}
	if got := out["confidence"].(float64); got != 1.0 {
		t.Fatalf("confidence = %v", got)
	}
	if reason := out["reason"].(string); reason == "" {
		t.Fatal("reason must not be empty")
	}
}

func TestRouterIsDeterministic(t *testing.T) {
	stage := NewRouterStage(RouterConfig{DefaultModel: "RRG"})
	first, err := stage.Process(context.Background(), agent.Payload{"modality": "ct"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	second, err := stage.Process(context.Background(), agent.Payload{"modality": "mri"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if first["selected_model"] != second["selected_model"] {
		t.Fatalf("routing not deterministic: %v vs %v", first["selected_model"], second["selected_model"])
	}
}
