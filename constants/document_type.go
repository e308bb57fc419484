package constants

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DocumentType is the closed set of labels the classifier may return.
type DocumentType string

const (
	DriversLicence DocumentType = "drivers_licence"
	BankStatement  DocumentType = "bank_statement"
	Invoice        DocumentType = "invoice"
	UnknownFile    DocumentType = "unknown file"
)

var allDocumentTypes = []DocumentType{
	DriversLicence,
	BankStatement,
	Invoice,
	UnknownFile,
}

// AsStringSlice returns the labels in schema enum order.
func AsStringSlice() []string {
	result := make([]string, len(allDocumentTypes))
	for i, dt := range allDocumentTypes {
		result[i] = string(dt)
	}
	return result
}

// synonyms keys are already lowercased with separators folded to "_".
var synonyms = map[string]DocumentType{
	"drivers_license": DriversLicence,
	"driver_license":  DriversLicence,
	"driver_licence":  DriversLicence,
	"driving_licence": DriversLicence,
	"driving_license": DriversLicence,
	"statement":       BankStatement,
	"bank_statements": BankStatement,
	"invoices":        Invoice,
	"bill":            Invoice,
	"unknown":         UnknownFile,
	"unknown_file":    UnknownFile,
	"other":           UnknownFile,
}

// CanonicalizeDocumentType maps free-form input to a DocumentType. The bool
// is false when nothing matched and UnknownFile was returned as a fallback.
func CanonicalizeDocumentType(input string) (DocumentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return UnknownFile, false
	}
	for _, dt := range allDocumentTypes {
		if normalized == string(dt) {
			return dt, true
		}
	}

	folded := strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(normalized)
	if dt, ok := synonyms[folded]; ok {
		return dt, true
	}
	for _, dt := range allDocumentTypes {
		if folded == strings.ReplaceAll(string(dt), " ", "_") {
			return dt, true
		}
	}
	return UnknownFile, false
}

var numericSuffix = regexp.MustCompile(`_\d+$`)

// ExpectedFromFilename derives the label a fixture file is named after,
// e.g. "bank_statement_2.pdf" -> bank_statement. Returns false when the
// name does not correspond to a known label.
func ExpectedFromFilename(name string) (DocumentType, bool) {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = numericSuffix.ReplaceAllString(strings.ToLower(stem), "")
	return CanonicalizeDocumentType(stem)
}
