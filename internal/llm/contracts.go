package llm

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/doc-classifier/constants"
)

var (
	ErrTransport   = errors.New("classification endpoint unreachable")
	ErrRateLimited = errors.New("classification endpoint rate limited")
	ErrRefused     = errors.New("model refused to classify")
	ErrSchema      = errors.New("response does not match schema")
)

// Analysis is the structured answer we ask the model for.
type Analysis struct {
	DocumentType constants.DocumentType `json:"document_type"`
	Notes        string                 `json:"notes"`
}

// Image is a normalized document image, already base64-encoded.
type Image struct {
	Base64    string
	MediaType string
}

// DataURL renders the image as a data: URL.
func (i Image) DataURL() string {
	return "data:" + i.MediaType + ";base64," + i.Base64
}

type ClassifyRequest struct {
	Image Image
	// Filename is only logged; it is never shown to the model.
	Filename string
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ClassifyResult struct {
	Analysis   Analysis
	Model      string
	Usage      Usage
	RequestID  string
	RawContent []byte
}

// Classifier is the interface the classification service depends on.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (ClassifyResult, error)
}
