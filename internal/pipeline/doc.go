// Package pipeline sequences the five analysis stages for one request:
// segmentation, routing, report generation, clinical reasoning, and report
// validation. Stage execution is strictly sequential because each stage's
// input is built from the previous stage's output. Failures are asymmetric:
// segmentation, routing, and report failures abort the request, while
// reasoning and validation failures degrade to a nil sub-result.
package pipeline
