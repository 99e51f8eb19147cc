package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
output_dir = %q
`, filepath.Join(base, "data"), filepath.Join(base, "logs"), filepath.Join(base, "output"))

	path := filepath.Join(base, "aura.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chest.png")
	if err := os.WriteFile(path, []byte("stub image"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func TestAnalyzeCommandJSON(t *testing.T) {
	cfgPath := writeTestConfig(t)
	image := writeTestImage(t)

	out, err := runCommand(t, "--config", cfgPath, "analyze", image,
		"--modality", "xray", "--no-reasoning", "--json")
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}

	var resp struct {
		Routing  map[string]any `json:"routing"`
		Report   map[string]any `json:"report"`
		Metadata struct {
			WorkflowID      string `json:"workflow_id"`
			PipelineVersion string `json:"pipeline_version"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if resp.Metadata.WorkflowID == "" {
		t.Fatal("workflow_id missing")
	}
	if resp.Metadata.PipelineVersion != "0.1.0" {
		t.Fatalf("pipeline_version = %q", resp.Metadata.PipelineVersion)
	}
	if resp.Routing["selected_model"] != "RRG" {
		t.Fatalf("selected_model = %v", resp.Routing["selected_model"])
	}
	if findings, _ := resp.Report["findings"].(string); findings == "" {
		t.Fatal("findings missing")
	}
}

func TestAnalyzeThenWorkflowsList(t *testing.T) {
	cfgPath := writeTestConfig(t)
	image := writeTestImage(t)

	if out, err := runCommand(t, "--config", cfgPath, "analyze", image, "--modality", "xray"); err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}

	out, err := runCommand(t, "--config", cfgPath, "workflows", "list")
	if err != nil {
		t.Fatalf("workflows list: %v\n%s", err, out)
	}
	if !strings.Contains(out, "success") {
		t.Fatalf("expected a successful workflow in listing:\n%s", out)
	}
}

func TestStatusCommandJSON(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := runCommand(t, "--config", cfgPath, "status", "--json")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}

	var stats struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if stats.Total != 0 {
		t.Fatalf("expected empty stats, got %+v", stats)
	}
}

func TestWorkflowsClear(t *testing.T) {
	cfgPath := writeTestConfig(t)
	image := writeTestImage(t)

	if out, err := runCommand(t, "--config", cfgPath, "analyze", image, "--no-reasoning", "--no-validation"); err != nil {
		t.Fatalf("analyze: %v\n%s", err, out)
	}

	out, err := runCommand(t, "--config", cfgPath, "workflows", "clear")
	if err != nil {
		t.Fatalf("workflows clear: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Removed 1") {
		t.Fatalf("unexpected clear output:\n%s", out)
	}
}
