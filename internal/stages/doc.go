// Package stages contains the concrete pipeline stage processors:
// segmentation, routing, report generation, clinical reasoning, and report
// validation. Each processor implements agent.Processor and is executed
// through an agent wrapper by the pipeline controller. External model
// backends are injected as narrow interfaces so the stages stay testable
// without model weights or network access.
package stages
