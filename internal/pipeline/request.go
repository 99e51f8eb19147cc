package pipeline

import (
	"time"

	"aura/internal/agent"
	"aura/internal/workflow"
)

// Version identifies the pipeline result format.
const Version = "0.1.0"

// Request describes one analysis invocation.
type Request struct {
	Image            string
	Modality         string
	Question         string
	EnableReasoning  bool
	EnableValidation bool
}

// NewRequest builds a request with the optional stages enabled.
func NewRequest(image, modality string) Request {
	return Request{
		Image:            image,
		Modality:         modality,
		EnableReasoning:  true,
		EnableValidation: true,
	}
}

// Meta carries per-request bookkeeping attached to every response.
type Meta struct {
	WorkflowID      string    `json:"workflow_id"`
	ProcessingTime  float64   `json:"processing_time"`
	Modality        string    `json:"modality"`
	Timestamp       time.Time `json:"timestamp"`
	PipelineVersion string    `json:"pipeline_version"`
}

// Response aggregates every stage's output for one request. Reasoning and
// validation are nil when disabled or when their stage execution failed.
type Response struct {
	Segmentation agent.Payload `json:"segmentation"`
	Routing      agent.Payload `json:"routing"`
	Report       agent.Payload `json:"report"`
	Reasoning    agent.Payload `json:"reasoning"`
	Validation   agent.Payload `json:"validation"`
	Meta         Meta          `json:"metadata"`
}

// StatusReport aggregates each stage's snapshot plus workflow statistics.
type StatusReport struct {
	Stages    map[string]agent.Snapshot `json:"stages"`
	Workflows workflow.Stats            `json:"workflows"`
}
