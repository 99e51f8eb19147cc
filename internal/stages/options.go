package stages

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"aura/internal/services"
)

// Stage names used in error details, logging, and status reporting.
const (
	NameSegmentation = "segmentation"
	NameRouting      = "routing"
	NameReport       = "report"
	NameReasoning    = "reasoning"
	NameValidation   = "validation"
)

// optionReader decodes a free-form stage option mapping into typed values.
// Every recognized key is recorded so finish can reject options the stage
// does not understand instead of silently ignoring them.
type optionReader struct {
	stage string
	opts  map[string]any
	used  map[string]struct{}
	errs  []string
}

func newOptionReader(stage string, opts map[string]any) *optionReader {
	return &optionReader{
		stage: stage,
		opts:  opts,
		used:  make(map[string]struct{}, len(opts)),
	}
}

func (r *optionReader) stringOption(key, fallback string) string {
	raw, ok := r.take(key)
	if !ok {
		return fallback
	}
	value, ok := raw.(string)
	if !ok {
		r.errs = append(r.errs, fmt.Sprintf("option %q must be a string", key))
		return fallback
	}
	return value
}

func (r *optionReader) intOption(key string, fallback int) int {
	raw, ok := r.take(key)
	if !ok {
		return fallback
	}
	switch value := raw.(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		if value == math.Trunc(value) {
			return int(value)
		}
	}
	r.errs = append(r.errs, fmt.Sprintf("option %q must be an integer", key))
	return fallback
}

func (r *optionReader) floatOption(key string, fallback float64) float64 {
	raw, ok := r.take(key)
	if !ok {
		return fallback
	}
	switch value := raw.(type) {
	case float64:
		return value
	case int:
		return float64(value)
	case int64:
		return float64(value)
	}
	r.errs = append(r.errs, fmt.Sprintf("option %q must be a number", key))
	return fallback
}

func (r *optionReader) boolOption(key string, fallback bool) bool {
	raw, ok := r.take(key)
	if !ok {
		return fallback
	}
	value, ok := raw.(bool)
	if !ok {
		r.errs = append(r.errs, fmt.Sprintf("option %q must be a boolean", key))
		return fallback
	}
	return value
}

func (r *optionReader) take(key string) (any, bool) {
	r.used[key] = struct{}{}
	raw, ok := r.opts[key]
	return raw, ok
}

// finish returns a configuration error when any option had the wrong type or
// was never recognized by the stage.
func (r *optionReader) finish() error {
	var unknown []string
	for key := range r.opts {
		if _, ok := r.used[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		r.errs = append(r.errs, fmt.Sprintf("unrecognized options: %s", strings.Join(unknown, ", ")))
	}
	if len(r.errs) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, r.stage, "configure", strings.Join(r.errs, "; "), nil)
}
