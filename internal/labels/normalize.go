package labels

import "strings"

// Normalize canonicalizes a free-text label to lowercase underscore form.
// The function is pure and idempotent.
func Normalize(label string) string {
	lowered := strings.ToLower(strings.TrimSpace(label))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', r == ' ':
			b.WriteRune(r)
		}
	}

	fields := strings.Fields(b.String())
	joined := strings.Join(fields, "_")

	for strings.Contains(joined, "__") {
		joined = strings.ReplaceAll(joined, "__", "_")
	}
	return strings.Trim(joined, "_")
}

// NormalizeAll normalizes every label in the slice, preserving order.
func NormalizeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Normalize(v)
	}
	return out
}
