package agent

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"aura/internal/logging"
)

// Status describes the lifecycle state of an agent.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// Payload is the free-form key/value data exchanged between stages.
type Payload map[string]any

// Processor is the contract every stage implementation satisfies.
type Processor interface {
	Process(ctx context.Context, input Payload) (Payload, error)
}

// RequiredKeyser is an optional interface processors implement to declare
// output keys the wrapper must verify after processing.
type RequiredKeyser interface {
	RequiredOutputKeys() []string
}

// LoggerAware is an optional interface for processors that want the wrapper's
// contextual logger.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}

const historyLimit = 5

// HistoryEntry records the outcome of one execution.
type HistoryEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	Status         string    `json:"status"`
	ProcessingTime float64   `json:"processing_time_seconds"`
	Error          string    `json:"error,omitempty"`
}

// Snapshot is a side-effect-free view of agent state.
type Snapshot struct {
	Name            string         `json:"name"`
	Status          Status         `json:"status"`
	LastError       string         `json:"last_error,omitempty"`
	ProcessingCount int            `json:"processing_count"`
	RecentHistory   []HistoryEntry `json:"recent_history"`
}

// Agent wraps a stage processor with a uniform execution contract: timing,
// structural validation, error capture, and status reporting. Faults inside
// the processor never escape Execute.
type Agent struct {
	name   string
	proc   Processor
	logger *slog.Logger

	mu             sync.Mutex
	status         Status
	lastError      string
	processedCount int
	history        []HistoryEntry
}

// New constructs an agent around the provided processor.
func New(name string, proc Processor, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Agent{
		name:   name,
		proc:   proc,
		logger: logging.NewComponentLogger(logger, name),
		status: StatusInitialized,
	}
}

// Name returns the agent identity.
func (a *Agent) Name() string { return a.name }

// Execute runs the processor against input and returns a Result. It never
// returns an error: processor faults (returned errors and panics alike) are
// captured into the result metadata with status "error" and no partial
// payload.
func (a *Agent) Execute(ctx context.Context, input Payload) Result {
	start := time.Now()

	a.mu.Lock()
	a.status = StatusProcessing
	a.lastError = ""
	a.mu.Unlock()

	ctx = logging.WithStage(ctx, a.name)
	logger := logging.WithContext(ctx, a.logger)
	logger.Info("agent started", logging.String(logging.FieldEventType, "stage_start"))

	if aware, ok := a.proc.(LoggerAware); ok {
		aware.SetLogger(logger)
	}

	output, trace, err := a.runProcessor(ctx, input)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error("agent failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
		)
		a.recordOutcome(StatusError, string(ResultError), elapsed, err.Error())
		return errorResult(a.name, err, trace, elapsed)
	}

	report := a.Validate(output)
	status := ResultSuccess
	if !report.IsValid {
		status = ResultValidationFailed
		logger.Warn("agent output failed validation",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Any("validation_errors", report.Errors),
		)
	} else {
		logger.Info("agent completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("elapsed", elapsed),
		)
	}

	a.recordOutcome(StatusCompleted, string(status), elapsed, "")
	return successResult(a.name, output, status, report, elapsed)
}

// runProcessor isolates the processor call so panics are recovered with a
// stack trace instead of unwinding past the wrapper.
func (a *Agent) runProcessor(ctx context.Context, input Payload) (output Payload, trace string, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			trace = string(debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	output, err = a.proc.Process(ctx, input)
	return output, "", err
}

// Validate performs the structural check on processor output: the output must
// be a non-nil mapping and contain every key the processor declares required.
// Confidence starts at 1.0 and loses 0.2 per missing key, floored at zero.
func (a *Agent) Validate(output Payload) Report {
	report := Report{IsValid: true, Errors: []string{}, Warnings: []string{}, Confidence: 1.0}

	if output == nil {
		report.IsValid = false
		report.Confidence = 0.0
		report.Errors = append(report.Errors, "output must be a mapping")
		return report
	}

	var required []string
	if rk, ok := a.proc.(RequiredKeyser); ok {
		required = rk.RequiredOutputKeys()
	}
	for _, key := range required {
		if _, ok := output[key]; !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("missing required key: %s", key))
			report.Confidence -= 0.2
			if report.Confidence < 0 {
				report.Confidence = 0
			}
		}
	}
	report.IsValid = len(report.Errors) == 0
	return report
}

// Status returns a snapshot of agent state without side effects.
func (a *Agent) Status() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	recent := make([]HistoryEntry, len(a.history))
	copy(recent, a.history)

	return Snapshot{
		Name:            a.name,
		Status:          a.status,
		LastError:       a.lastError,
		ProcessingCount: a.processedCount,
		RecentHistory:   recent,
	}
}

// Reset clears transient state without altering configuration.
func (a *Agent) Reset() {
	a.mu.Lock()
	a.status = StatusInitialized
	a.lastError = ""
	a.processedCount = 0
	a.history = nil
	a.mu.Unlock()
	a.logger.Info("agent reset")
}

func (a *Agent) recordOutcome(status Status, outcome string, elapsed time.Duration, errMsg string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.status = status
	a.lastError = errMsg
	a.processedCount++
	a.history = append(a.history, HistoryEntry{
		Timestamp:      time.Now().UTC(),
		Status:         outcome,
		ProcessingTime: elapsed.Seconds(),
		Error:          errMsg,
	})
	if len(a.history) > historyLimit {
		a.history = a.history[len(a.history)-historyLimit:]
	}
}
