package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/doc-classifier/constants"
)

// NormalizeAnalysisJSON makes a model answer schema-friendly:
//   - document_type is canonicalized (e.g. "drivers_license" -> "drivers_licence"),
//     unknown labels become "unknown file"
//   - notes is trimmed and defaults to ""
//   - unknown keys are removed
//
// It returns the rewritten JSON and a list of the changes made.
func NormalizeAnalysisJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	changes := make([]string, 0, 4)

	label, _ := m["document_type"].(string)
	canonical, matched := constants.CanonicalizeDocumentType(label)
	if string(canonical) != label {
		if matched {
			changes = append(changes, "document_type("+label+"->"+string(canonical)+")")
		} else {
			changes = append(changes, "document_type(unrecognized:"+label+")")
		}
	}
	m["document_type"] = string(canonical)

	notes, ok := m["notes"].(string)
	if !ok {
		if m["notes"] != nil {
			changes = append(changes, "notes(type)")
		} else {
			changes = append(changes, "notes(missing)")
		}
		notes = ""
	}
	m["notes"] = strings.TrimSpace(notes)

	for k := range m {
		if k != "document_type" && k != "notes" {
			delete(m, k)
			changes = append(changes, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changes, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changes) > 0 {
		logger.Warn("llm.classify.normalize_sanitize", "changes", changes)
	}
	return out, changes, nil
}
