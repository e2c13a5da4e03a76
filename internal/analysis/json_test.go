package analysis

import "testing"

func TestParseStrictJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		key  string
	}{
		{"plain", `{"score": "Low"}`, "score"},
		{"json fence", "```json\n{\"score\": \"Low\"}\n```", "score"},
		{"upper fence", "```JSON\n{\"score\": \"Low\"}\n```", "score"},
		{"bare fence", "```\n{\"score\": \"Low\"}\n```", "score"},
		{"surrounding prose", `Sure! {"score": "Low"} hope this helps`, "score"},
		{"nested", `{"a": {"b": 1}}`, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStrictJSON(tt.raw)
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := got[tt.key]; !ok {
				t.Errorf("parsed %v has no key %q", got, tt.key)
			}
		})
	}
}

func TestParseStrictJSON_errors(t *testing.T) {
	for _, raw := range []string{"", "no json here", "{broken", "[1, 2]", "null"} {
		if _, err := ParseStrictJSON(raw); err == nil {
			t.Errorf("input %q: expected error", raw)
		}
	}
}
