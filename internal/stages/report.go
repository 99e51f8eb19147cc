package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aura/internal/agent"
	"aura/internal/logging"
)

// Generator produces the raw radiology report text for one image.
type Generator interface {
	Generate(ctx context.Context, imagePath string) (string, error)
}

// ReportConfig holds the recognized report stage options.
type ReportConfig struct {
	ModelPath string
	OutputDir string
	// SkipArchive turns off the best-effort copy of the raw report text
	// into OutputDir/reports.
	SkipArchive bool
}

// ParseReportConfig decodes a free-form option mapping, rejecting
// unrecognized keys.
func ParseReportConfig(opts map[string]any) (ReportConfig, error) {
	reader := newOptionReader(NameReport, opts)
	cfg := ReportConfig{
		ModelPath:   reader.stringOption("model_path", ""),
		OutputDir:   reader.stringOption("output_dir", ""),
		SkipArchive: !reader.boolOption("archive", true),
	}
	if err := reader.finish(); err != nil {
		return ReportConfig{}, err
	}
	return cfg, nil
}

const (
	fallbackFindings   = "Unable to generate findings from the provided image."
	fallbackImpression = "Please review the image manually."
	defaultImpression  = "Clinical correlation advised."

	findingsMarker   = "FINDINGS:"
	impressionMarker = "IMPRESSION:"
)

// ReportStage turns the raw generator output into a structured report. The
// stage always produces both findings and impression: generator faults
// degrade to a fixed fallback pair so callers never see a half-built report.
type ReportStage struct {
	cfg       ReportConfig
	generator Generator
	logger    *slog.Logger
	now       func() time.Time
}

// NewReportStage builds the report stage. A nil generator selects the demo
// generator, which emits a canned chest report.
func NewReportStage(cfg ReportConfig, generator Generator) *ReportStage {
	if generator == nil {
		generator = &demoGenerator{}
	}
	return &ReportStage{cfg: cfg, generator: generator, logger: logging.NewNop(), now: time.Now}
}

// SetLogger attaches the stage's logger.
func (s *ReportStage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// RequiredOutputKeys declares the keys the agent wrapper validates.
func (s *ReportStage) RequiredOutputKeys() []string {
	return []string{"findings", "impression"}
}

// Process generates and structures the report for the input image.
func (s *ReportStage) Process(ctx context.Context, input agent.Payload) (agent.Payload, error) {
	imagePath := inputString(input, "image")
	if imagePath == "" {
		s.logger.WarnContext(ctx, "report generation skipped, no image provided")
		return fallbackReport(), nil
	}

	text, err := s.generator.Generate(ctx, imagePath)
	if err != nil {
		s.logger.ErrorContext(ctx, "report generation failed", logging.Error(err))
		return fallbackReport(), nil
	}

	findings, impression := splitReport(text)
	s.saveReport(ctx, text)

	return agent.Payload{
		"findings":   findings,
		"impression": impression,
	}, nil
}

func fallbackReport() agent.Payload {
	return agent.Payload{
		"findings":   fallbackFindings,
		"impression": fallbackImpression,
	}
}

// splitReport extracts the findings and impression sections. Unstructured
// generator output becomes the findings verbatim with a stock impression.
func splitReport(text string) (findings, impression string) {
	if strings.Contains(text, findingsMarker) && strings.Contains(text, impressionMarker) {
		_, rest, _ := strings.Cut(text, findingsMarker)
		findings, impression, _ = strings.Cut(rest, impressionMarker)
		return strings.TrimSpace(findings), strings.TrimSpace(impression)
	}
	return strings.TrimSpace(text), defaultImpression
}

// saveReport persists the raw report text when an output directory is
// configured. Failures are logged, never surfaced: archiving is best effort.
func (s *ReportStage) saveReport(ctx context.Context, text string) {
	if s.cfg.SkipArchive || s.cfg.OutputDir == "" {
		return
	}
	dir := filepath.Join(s.cfg.OutputDir, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.WarnContext(ctx, "could not create report directory", logging.Error(err))
		return
	}
	name := fmt.Sprintf("radiology_report_%s.txt", s.now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		s.logger.WarnContext(ctx, "could not save report", logging.String("path", path), logging.Error(err))
		return
	}
	s.logger.InfoContext(ctx, "report saved", logging.String("path", path))
}

// demoGenerator stands in for the report model when no backend is wired. It
// emits a canned chest report for readable images and a plain failure line
// otherwise.
type demoGenerator struct{}

const demoReportText = findingsMarker + `
Heart size is normal. There is a patchy opacity in the right lower lung zone.
No pleural effusion or pneumothorax is identified.

` + impressionMarker + `
Features suggestive of mild right-sided pneumonia.`

func (demoGenerator) Generate(_ context.Context, imagePath string) (string, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return fallbackFindings, nil
	}
	return demoReportText, nil
}
