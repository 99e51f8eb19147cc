package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFatalStage marks a stage outcome that aborts the whole pipeline request.
	ErrFatalStage = errors.New("fatal stage failure")
	// ErrValidation marks structurally incomplete stage output.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable stage or service configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrContract marks a programming error such as mismatched parallel slices.
	ErrContract = errors.New("contract violation")
	// ErrTransient marks failures worth retrying against external services.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether the error should abort the pipeline request.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalStage)
}

// Message returns a display string for the error with any sentinel prefix
// stripped, suitable for workflow records and user-facing output.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	for _, marker := range []error{ErrFatalStage, ErrValidation, ErrConfiguration, ErrContract, ErrTransient} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(msg, prefix))
		}
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
