// Package labels canonicalizes free-text anatomical labels emitted by
// segmentation models.
//
// Normalize produces the lowercase underscore vocabulary used across stages,
// Anatomical coarsens variants onto canonical structures, and RegionOf/Regions
// map structures onto body regions. All functions are pure; table iteration
// order is fixed so results stay deterministic.
package labels
