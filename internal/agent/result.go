package agent

import "time"

// ResultStatus classifies the outcome of one execution.
type ResultStatus string

const (
	ResultSuccess          ResultStatus = "success"
	ResultValidationFailed ResultStatus = "validation_failed"
	ResultError            ResultStatus = "error"
)

// Report carries the structural validation outcome for one execution.
type Report struct {
	IsValid    bool     `json:"is_valid"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
	Confidence float64  `json:"confidence"`
}

// Meta is the mandatory metadata block attached to every execution result.
type Meta struct {
	AgentName      string       `json:"agent_name"`
	Status         ResultStatus `json:"status"`
	ProcessingTime float64      `json:"processing_time_seconds"`
	Validation     *Report      `json:"validation_report,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
	Error          string       `json:"error,omitempty"`
	ErrorTrace     string       `json:"error_trace,omitempty"`
}

// Result is the immutable outcome of one agent invocation. Error results
// carry no payload.
type Result struct {
	Payload Payload `json:"payload,omitempty"`
	Meta    Meta    `json:"metadata"`
}

// OK reports whether the execution succeeded including structural validation.
func (r Result) OK() bool { return r.Meta.Status == ResultSuccess }

// String returns a payload value as a string, or empty when absent or of a
// different type.
func (r Result) String(key string) string {
	if v, ok := r.Payload[key].(string); ok {
		return v
	}
	return ""
}

// Strings returns a payload value as a string slice, tolerating []any payloads
// that came through JSON decoding.
func (r Result) Strings(key string) []string {
	switch v := r.Payload[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Float returns a payload value as a float64, or zero when absent.
func (r Result) Float(key string) float64 {
	switch v := r.Payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// Bool returns a payload value as a bool, or false when absent.
func (r Result) Bool(key string) bool {
	if v, ok := r.Payload[key].(bool); ok {
		return v
	}
	return false
}

// Floats returns a payload value as a float64 slice.
func (r Result) Floats(key string) []float64 {
	switch v := r.Payload[key].(type) {
	case []float64:
		return v
	case []any:
		out := make([]float64, 0, len(v))
		for _, item := range v {
			if f, ok := item.(float64); ok {
				out = append(out, f)
			}
		}
		return out
	default:
		return nil
	}
}

func successResult(name string, output Payload, status ResultStatus, report Report, elapsed time.Duration) Result {
	return Result{
		Payload: output,
		Meta: Meta{
			AgentName:      name,
			Status:         status,
			ProcessingTime: elapsed.Seconds(),
			Validation:     &report,
			Timestamp:      time.Now().UTC(),
		},
	}
}

func errorResult(name string, err error, trace string, elapsed time.Duration) Result {
	return Result{
		Meta: Meta{
			AgentName:      name,
			Status:         ResultError,
			ProcessingTime: elapsed.Seconds(),
			Timestamp:      time.Now().UTC(),
			Error:          err.Error(),
			ErrorTrace:     trace,
		},
	}
}
