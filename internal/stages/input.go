package stages

import (
	"strings"

	"aura/internal/agent"
)

func inputString(input agent.Payload, key string) string {
	if input == nil {
		return ""
	}
	value, _ := input[key].(string)
	return strings.TrimSpace(value)
}

func inputStrings(input agent.Payload, key string) []string {
	if input == nil {
		return nil
	}
	switch values := input[key].(type) {
	case []string:
		return values
	case []any:
		out := make([]string, 0, len(values))
		for _, raw := range values {
			if s, ok := raw.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
