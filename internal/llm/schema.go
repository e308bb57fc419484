package llm

import "github.com/joseph-ayodele/doc-classifier/constants"

// BuildDocumentAnalysisSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to OpenAI as a strict structured output constraint and also use it locally to validate.
func BuildDocumentAnalysisSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"document_type": map[string]any{
				"type": "string",
				"enum": constants.AsStringSlice(),
			},
			"notes": map[string]any{"type": "string"},
		},
		"required": []string{"document_type", "notes"},
	}
}
