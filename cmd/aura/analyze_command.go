package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"aura/internal/agent"
	"aura/internal/config"
	"aura/internal/logging"
	"aura/internal/pipeline"
	"aura/internal/services"
	"aura/internal/workflow"
)

func newAnalyzeCommand(state *appState) *cobra.Command {
	var (
		modality          string
		question          string
		disableReasoning  bool
		disableValidation bool
		jsonOutput        bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Run the full analysis pipeline on one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := state.ensureConfig()
			if err != nil {
				return err
			}

			imagePath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			// One analysis at a time per data directory: concurrent runs
			// would contend for the workflow database and output files.
			runLock := flock.New(filepath.Join(cfg.Paths.DataDir, "aura.lock"))
			locked, err := runLock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return errors.New("another analysis is already running")
			}
			defer func() { _ = runLock.Unlock() }()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			store, err := workflow.Open(cfg)
			if err != nil {
				return fmt.Errorf("open workflow store: %w", err)
			}
			defer func() { _ = store.Close() }()

			tracker := workflow.NewTracker(store, logger)
			controller, err := pipeline.New(cfg, tracker, logger)
			if err != nil {
				return fmt.Errorf("configure pipeline: %w", err)
			}

			req := pipeline.NewRequest(imagePath, modality)
			req.Question = question
			req.EnableReasoning = cfg.Pipeline.EnableReasoning && !disableReasoning
			req.EnableValidation = cfg.Pipeline.EnableValidation && !disableValidation

			// Correlation id ties the CLI invocation's log lines together
			// across stages.
			ctx := services.WithRequestID(cmd.Context(), uuid.NewString())
			resp, err := controller.Process(ctx, req)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			renderResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&modality, "modality", "m", "", "Imaging modality (xray, ct, mri, ...)")
	cmd.Flags().StringVarP(&question, "question", "q", "", "Clinical question for the reasoning stage")
	cmd.Flags().BoolVar(&disableReasoning, "no-reasoning", false, "Skip the clinical reasoning stage")
	cmd.Flags().BoolVar(&disableValidation, "no-validation", false, "Skip the report validation stage")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the full response as JSON")
	return cmd
}

var titleCaser = cases.Title(language.English)

func renderResponse(out io.Writer, resp *pipeline.Response) {
	fmt.Fprintf(out, "Workflow %s (%s, %.2fs)\n\n", resp.Meta.WorkflowID, resp.Meta.Modality, resp.Meta.ProcessingTime)

	if structures := payloadStrings(resp.Segmentation, "labels"); len(structures) > 0 {
		display := make([]string, len(structures))
		for i, label := range structures {
			display[i] = titleCaser.String(strings.ReplaceAll(label, "_", " "))
		}
		fmt.Fprintf(out, "Detected structures: %s\n", strings.Join(display, ", "))
	}
	if regions := payloadStrings(resp.Segmentation, "body_regions"); len(regions) > 0 {
		fmt.Fprintf(out, "Body regions: %s\n", strings.Join(regions, ", "))
	}
	fmt.Fprintf(out, "Report model: %s\n\n", payloadString(resp.Routing, "selected_model"))

	fmt.Fprintln(out, "FINDINGS:")
	fmt.Fprintln(out, payloadString(resp.Report, "findings"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "IMPRESSION:")
	fmt.Fprintln(out, payloadString(resp.Report, "impression"))

	if resp.Reasoning != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "ANSWER:")
		fmt.Fprintln(out, payloadString(resp.Reasoning, "answer"))
	}
	if resp.Validation != nil {
		warnings := payloadStrings(resp.Validation, "warnings")
		if len(warnings) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "VALIDATION WARNINGS:")
			for _, warning := range warnings {
				fmt.Fprintf(out, "  - %s\n", warning)
			}
		}
	}
}

func payloadString(payload agent.Payload, key string) string {
	if payload == nil {
		return ""
	}
	value, _ := payload[key].(string)
	return value
}

func payloadStrings(payload agent.Payload, key string) []string {
	if payload == nil {
		return nil
	}
	switch values := payload[key].(type) {
	case []string:
		return values
	case []any:
		out := make([]string, 0, len(values))
		for _, raw := range values {
			if s, ok := raw.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
