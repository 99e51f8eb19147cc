package workflow

import "time"

// Status describes where a workflow sits in its lifecycle.
type Status string

const (
	StatusCreated Status = "created"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// IsTerminal reports whether the status ends a workflow.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError
}

// Valid reports whether the status is one the tracker understands.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusSuccess, StatusError:
		return true
	}
	return false
}

// Record is one pipeline invocation. Created once at request start and
// mutated exactly once at completion.
type Record struct {
	ID          string     `json:"id"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Stats aggregates workflow counters. Active counts workflows not yet in a
// terminal status.
type Stats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Error   int `json:"error"`
	Active  int `json:"active"`
}
