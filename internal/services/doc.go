// Package services defines shared utilities consumed by pipeline stages and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp workflow IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (fatal vs tolerated vs contract violation) uniform.
//
// Use these helpers when wiring new stage logic so operational behaviour stays
// consistent across the pipeline.
package services
