package detection

import (
	"fmt"

	"aura/internal/services"
)

// Set holds parallel detection sequences produced by a segmentation model.
// The three slices must always be the same length.
type Set struct {
	Masks       []string
	Labels      []string
	Confidences []float64
}

// Len returns the number of detections after verifying the parallel slices
// agree. A mismatch is a programming error, reported loudly rather than
// silently truncated.
func (s Set) Len() (int, error) {
	if len(s.Masks) != len(s.Labels) || len(s.Labels) != len(s.Confidences) {
		return 0, services.Wrap(services.ErrContract, "detection", "len",
			fmt.Sprintf("mismatched detection slices: masks=%d labels=%d confidences=%d",
				len(s.Masks), len(s.Labels), len(s.Confidences)), nil)
	}
	return len(s.Labels), nil
}

// Filter retains detections whose confidence meets or exceeds threshold,
// preserving input order.
func Filter(s Set, threshold float64) (Set, error) {
	n, err := s.Len()
	if err != nil {
		return Set{}, err
	}

	out := Set{
		Masks:       make([]string, 0, n),
		Labels:      make([]string, 0, n),
		Confidences: make([]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		if s.Confidences[i] < threshold {
			continue
		}
		out.Masks = append(out.Masks, s.Masks[i])
		out.Labels = append(out.Labels, s.Labels[i])
		out.Confidences = append(out.Confidences, s.Confidences[i])
	}
	return out, nil
}
