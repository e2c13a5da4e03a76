package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseStrictJSON decodes a JSON object from model output that may be wrapped in
// markdown fences or surrounded by prose.
func ParseStrictJSON(raw string) (map[string]any, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if strings.HasPrefix(strings.ToLower(s), "```json") {
			s = s[len("```json"):]
		} else {
			s = s[len("```"):]
		}
		s = strings.TrimSuffix(s, "```")
	}
	s = strings.TrimSpace(s)

	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first != -1 && last > first {
		s = s[first : last+1]
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("failed to parse model JSON: not an object")
	}
	return out, nil
}
