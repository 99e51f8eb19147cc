// Package agent wraps stage processors in a uniform execution contract.
//
// Every stage in the analysis pipeline runs through Agent.Execute, which
// times the call, recovers faults (returned errors and panics), validates the
// output structurally, and attaches a metadata block describing the outcome.
// Faults never escape the wrapper; the pipeline controller decides whether a
// non-success outcome is fatal for the request.
//
// The wrapper composes with processors rather than being inherited from:
// stages implement the small Processor interface and optionally declare
// required output keys via RequiredKeyser.
package agent
