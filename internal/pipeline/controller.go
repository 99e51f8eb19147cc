package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"aura/internal/agent"
	"aura/internal/config"
	"aura/internal/logging"
	"aura/internal/services"
	"aura/internal/services/biomedgpt"
	"aura/internal/stages"
	"aura/internal/workflow"
)

// Option customizes controller construction, mainly to inject model backends.
type Option func(*builder)

type builder struct {
	segmenter  stages.Segmenter
	generator  stages.Generator
	reasoner   stages.Reasoner
	validators []stages.KnowledgeValidator
	processors map[string]agent.Processor
}

// WithSegmenter injects the segmentation model backend.
func WithSegmenter(segmenter stages.Segmenter) Option {
	return func(b *builder) { b.segmenter = segmenter }
}

// WithGenerator injects the report generation backend.
func WithGenerator(generator stages.Generator) Option {
	return func(b *builder) { b.generator = generator }
}

// WithReasoner injects the clinical reasoning backend.
func WithReasoner(reasoner stages.Reasoner) Option {
	return func(b *builder) { b.reasoner = reasoner }
}

// WithKnowledgeValidators attaches knowledge sources to the validation stage.
func WithKnowledgeValidators(validators ...stages.KnowledgeValidator) Option {
	return func(b *builder) { b.validators = append(b.validators, validators...) }
}

// WithProcessor replaces a whole stage processor. Unknown names are ignored.
func WithProcessor(name string, proc agent.Processor) Option {
	return func(b *builder) { b.processors[name] = proc }
}

// Controller owns one set of stage agents and processes requests one at a
// time. Deployments handling concurrent requests should construct one
// controller per request and share only the workflow tracker.
type Controller struct {
	cfg     *config.Config
	tracker *workflow.Tracker
	logger  *slog.Logger

	segmentation *agent.Agent
	routing      *agent.Agent
	report       *agent.Agent
	reasoning    *agent.Agent
	validation   *agent.Agent
}

// New wires the five stage agents from configuration. Every stage's options
// pass through its strict decoder, so an unrecognized key in a [stages.*]
// table fails construction instead of being silently ignored. A nil tracker
// gets an in-memory replacement so the controller always has workflow
// bookkeeping.
func New(cfg *config.Config, tracker *workflow.Tracker, logger *slog.Logger, opts ...Option) (*Controller, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if tracker == nil {
		tracker = workflow.NewTracker(nil, logger)
	}

	b := &builder{processors: make(map[string]agent.Processor)}
	for _, opt := range opts {
		opt(b)
	}

	if err := checkStageTables(cfg); err != nil {
		return nil, err
	}

	segCfg, err := stages.ParseSegmentationConfig(stageOptions(cfg, stages.NameSegmentation, map[string]any{
		"model_path":           cfg.Segmentation.ModelPath,
		"image_size":           cfg.Segmentation.ImageSize,
		"confidence_threshold": cfg.Segmentation.ConfidenceThreshold,
	}))
	if err != nil {
		return nil, err
	}

	routerCfg, err := stages.ParseRouterConfig(stageOptions(cfg, stages.NameRouting, map[string]any{
		"default_model": cfg.Router.DefaultModel,
	}))
	if err != nil {
		return nil, err
	}

	reportCfg, err := stages.ParseReportConfig(stageOptions(cfg, stages.NameReport, map[string]any{
		"model_path": cfg.Report.ModelPath,
		"output_dir": cfg.Paths.OutputDir,
	}))
	if err != nil {
		return nil, err
	}

	validationCfg, err := stages.ParseValidationConfig(stageOptions(cfg, stages.NameValidation, map[string]any{
		"knowledge_dir": cfg.Validation.KnowledgeDir,
	}))
	if err != nil {
		return nil, err
	}

	reasoningOpts := stageOptions(cfg, stages.NameReasoning, map[string]any{
		"api_url":         cfg.Reasoning.APIURL,
		"api_key":         cfg.Reasoning.APIKey,
		"timeout_seconds": cfg.Reasoning.TimeoutSeconds,
		"retry_attempts":  cfg.Reasoning.RetryAttempts,
	})
	if b.reasoner == nil {
		if url, _ := reasoningOpts["api_url"].(string); url != "" {
			reasoningCfg, err := stages.ParseReasoningConfig(reasoningOpts)
			if err != nil {
				return nil, err
			}
			b.reasoner = biomedgpt.NewClient(biomedgpt.Config{
				APIURL:         reasoningCfg.APIURL,
				APIKey:         reasoningCfg.APIKey,
				TimeoutSeconds: reasoningCfg.TimeoutSeconds,
				RetryAttempts:  reasoningCfg.RetryAttempts,
			})
		}
	}

	processor := func(name string, fallback agent.Processor) agent.Processor {
		if proc, ok := b.processors[name]; ok {
			return proc
		}
		return fallback
	}

	return &Controller{
		cfg:     cfg,
		tracker: tracker,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		segmentation: agent.New(stages.NameSegmentation, processor(stages.NameSegmentation,
			stages.NewSegmentationStage(segCfg, b.segmenter)), logger),
		routing: agent.New(stages.NameRouting, processor(stages.NameRouting,
			stages.NewRouterStage(routerCfg)), logger),
		report: agent.New(stages.NameReport, processor(stages.NameReport,
			stages.NewReportStage(reportCfg, b.generator)), logger),
		reasoning: agent.New(stages.NameReasoning, processor(stages.NameReasoning,
			stages.NewReasoningStage(b.reasoner)), logger),
		validation: agent.New(stages.NameValidation, processor(stages.NameValidation,
			stages.NewValidationStage(validationCfg, b.validators...)), logger),
	}, nil
}

// stageOptions layers the free-form [stages.<name>] table from the config
// file over the option map derived from the typed sections. Empty typed
// strings are dropped so the stage decoder's own defaults apply.
func stageOptions(cfg *config.Config, name string, base map[string]any) map[string]any {
	for key, value := range base {
		if s, ok := value.(string); ok && s == "" {
			delete(base, key)
		}
	}
	for key, value := range cfg.Stages[name] {
		base[key] = value
	}
	return base
}

// checkStageTables rejects [stages.*] tables that name no known stage.
func checkStageTables(cfg *config.Config) error {
	known := map[string]struct{}{
		stages.NameSegmentation: {},
		stages.NameRouting:      {},
		stages.NameReport:       {},
		stages.NameReasoning:    {},
		stages.NameValidation:   {},
	}
	var unknown []string
	for name := range cfg.Stages {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return services.Wrap(services.ErrConfiguration, "pipeline", "configure",
		"unknown stage tables: "+strings.Join(unknown, ", "), nil)
}

// Process runs the full pipeline for one request. Segmentation, routing, and
// report failures abort the request and close the workflow record with status
// error; reasoning and validation failures leave a nil sub-result.
func (c *Controller) Process(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	rec, err := c.tracker.Create(ctx)
	if err != nil {
		return nil, err
	}
	ctx = services.WithWorkflowID(ctx, rec.ID)
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("pipeline started", logging.String("image", req.Image), logging.String("modality", req.Modality))

	segRes := c.segmentation.Execute(ctx, agent.Payload{
		"image":    req.Image,
		"modality": req.Modality,
	})
	if !segRes.OK() {
		return nil, c.abort(ctx, rec.ID, stages.NameSegmentation, segRes)
	}

	modality := segRes.String("modality")
	if modality == "" {
		modality = strings.ToLower(req.Modality)
	}
	detected := segRes.Strings("labels")
	logger.Info("structures detected",
		logging.Int("count", len(detected)),
		logging.Float64("min_confidence", minConfidence(segRes.Floats("confidences"))))

	routingRes := c.routing.Execute(ctx, agent.Payload{
		"labels":       detected,
		"modality":     modality,
		"body_regions": segRes.Strings("body_regions"),
	})
	if !routingRes.OK() {
		return nil, c.abort(ctx, rec.ID, stages.NameRouting, routingRes)
	}

	reportRes := c.report.Execute(ctx, agent.Payload{
		"image":          req.Image,
		"labels":         detected,
		"modality":       modality,
		"body_regions":   segRes.Strings("body_regions"),
		"selected_model": routingRes.String("selected_model"),
	})
	if !reportRes.OK() {
		return nil, c.abort(ctx, rec.ID, stages.NameReport, reportRes)
	}

	report := agent.Payload{
		"findings":   reportRes.String("findings"),
		"impression": reportRes.String("impression"),
	}

	var reasoning agent.Payload
	if req.EnableReasoning {
		res := c.reasoning.Execute(ctx, agent.Payload{
			"image":    req.Image,
			"report":   report,
			"question": req.Question,
			"task":     reasoningTask(req.Question),
		})
		if res.OK() {
			reasoning = resultPayload(res)
			logger.Info("question answered", logging.Float64("confidence", res.Float("confidence")))
		} else {
			logger.Warn("reasoning stage failed, continuing without it",
				logging.String("error", res.Meta.Error))
		}
	}

	var validation agent.Payload
	if req.EnableValidation {
		res := c.validation.Execute(ctx, agent.Payload{
			"report":   report,
			"labels":   detected,
			"modality": modality,
		})
		if res.OK() {
			validation = resultPayload(res)
			logger.Info("report checked",
				logging.Bool("is_valid", res.Bool("is_valid")),
				logging.Float64("confidence", res.Float("confidence")))
		} else {
			logger.Warn("validation stage failed, continuing without it",
				logging.String("error", res.Meta.Error))
		}
	}

	response := &Response{
		Segmentation: resultPayload(segRes),
		Routing:      resultPayload(routingRes),
		Report:       resultPayload(reportRes),
		Reasoning:    reasoning,
		Validation:   validation,
		Meta: Meta{
			WorkflowID:      rec.ID,
			ProcessingTime:  time.Since(start).Seconds(),
			Modality:        modality,
			Timestamp:       time.Now().UTC(),
			PipelineVersion: Version,
		},
	}

	if err := c.tracker.Complete(ctx, rec.ID, workflow.StatusSuccess, ""); err != nil {
		return nil, err
	}
	logger.Info("pipeline completed", logging.Duration("elapsed", time.Since(start)))
	return response, nil
}

// abort closes the workflow record and surfaces a fatal stage failure.
func (c *Controller) abort(ctx context.Context, workflowID, stage string, res agent.Result) error {
	msg := failureMessage(res)
	if err := c.tracker.Complete(ctx, workflowID, workflow.StatusError, msg); err != nil {
		logging.WithContext(ctx, c.logger).Error("could not close workflow record", logging.Error(err))
	}
	return services.Wrap(services.ErrFatalStage, stage, "execute", msg, nil)
}

func minConfidence(confidences []float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	lowest := confidences[0]
	for _, c := range confidences[1:] {
		if c < lowest {
			lowest = c
		}
	}
	return lowest
}

// reasoningTask labels the reasoning request: question answering when the
// caller asked something, otherwise a plain explanation of the report.
func reasoningTask(question string) string {
	if strings.TrimSpace(question) != "" {
		return "qa"
	}
	return "explain"
}

func failureMessage(res agent.Result) string {
	if res.Meta.Error != "" {
		return res.Meta.Error
	}
	if res.Meta.Validation != nil && len(res.Meta.Validation.Errors) > 0 {
		return "output validation failed: " + strings.Join(res.Meta.Validation.Errors, "; ")
	}
	return "stage did not succeed"
}

// resultPayload merges the execution metadata block into a copy of the stage
// payload.
func resultPayload(res agent.Result) agent.Payload {
	out := make(agent.Payload, len(res.Payload)+1)
	for key, value := range res.Payload {
		out[key] = value
	}
	out["metadata"] = res.Meta
	return out
}

// Status aggregates every stage snapshot plus workflow statistics. Pure read.
func (c *Controller) Status() StatusReport {
	return StatusReport{
		Stages: map[string]agent.Snapshot{
			stages.NameSegmentation: c.segmentation.Status(),
			stages.NameRouting:      c.routing.Status(),
			stages.NameReport:       c.report.Status(),
			stages.NameReasoning:    c.reasoning.Status(),
			stages.NameValidation:   c.validation.Status(),
		},
		Workflows: c.tracker.Stats(),
	}
}

// Reset returns every stage agent to its initial state.
func (c *Controller) Reset() {
	c.segmentation.Reset()
	c.routing.Reset()
	c.report.Reset()
	c.reasoning.Reset()
	c.validation.Reset()
}
