package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceCheck/pkg/analysis"
)

// severityEnum is the fixed severity vocabulary embedded in the response
// schemas sent to each provider.
var severityEnum = []string{"Fatal", "Major", "Minor", "Best Practice", "Nice To Have"}

// findingsSchema is the JSON schema for the structured output requested from
// OpenAI and, with uppercased type names, from Google. Anthropic gets the same
// shape described in prose because its messages API has no schema parameter.
var findingsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"findings": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":             map[string]any{"type": "string"},
					"level":          map[string]any{"type": "string", "enum": severityEnum},
					"description":    map[string]any{"type": "string"},
					"recommendation": map[string]any{"type": "string"},
					"reference":      map[string]any{"type": "string"},
				},
				"required":             []string{"id", "level", "description", "recommendation", "reference"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"findings"},
	"additionalProperties": false,
}

// googleSchema mirrors findingsSchema in the generativelanguage dialect, which
// uses uppercase type names and has no additionalProperties.
var googleSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"findings": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"id":             map[string]any{"type": "STRING"},
					"level":          map[string]any{"type": "STRING", "enum": severityEnum},
					"description":    map[string]any{"type": "STRING"},
					"recommendation": map[string]any{"type": "STRING"},
					"reference":      map[string]any{"type": "STRING"},
				},
				"required": []string{"id", "level", "description", "recommendation"},
			},
		},
	},
	"required": []string{"findings"},
}

type findingsEnvelope struct {
	Findings []analysis.Finding `json:"findings"`
}

// decodeFindings parses the model's text output into findings and validates
// every entry. Models occasionally wrap JSON in a markdown code fence, so the
// fence is stripped first.
func decodeFindings(text string) ([]analysis.Finding, error) {
	text = stripCodeFence(text)

	var env findingsEnvelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		// Some models return the bare array instead of the envelope.
		var bare []analysis.Finding
		if err2 := json.Unmarshal([]byte(text), &bare); err2 != nil {
			return nil, fmt.Errorf("response is not findings JSON: %w", err)
		}
		env.Findings = bare
	}

	for i, f := range env.Findings {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("finding %d: %w", i, err)
		}
	}
	return env.Findings, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
