// Package detection filters segmentation detections by confidence before they
// propagate to downstream stages. Mismatched parallel slices are treated as
// contract violations and surfaced immediately.
package detection
