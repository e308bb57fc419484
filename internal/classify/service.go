// Package classify runs one document through normalization and the
// classifier.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/doc-classifier/constants"
	"github.com/joseph-ayodele/doc-classifier/internal/artifacts"
	"github.com/joseph-ayodele/doc-classifier/internal/common"
	"github.com/joseph-ayodele/doc-classifier/internal/llm"
	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
)

// ErrClassification marks failures after normalization succeeded.
var ErrClassification = errors.New("classification failed")

// Normalizer is satisfied by *normalize.Normalizer.
type Normalizer interface {
	Normalize(ctx context.Context, doc normalize.InputDocument, opts ...normalize.Option) (normalize.EncodedPayload, error)
}

// Outcome is everything known about one classified document.
type Outcome struct {
	Analysis   llm.Analysis
	MediaType  string
	Pages      int
	Width      int
	Height     int
	ImageBytes int
	Artifact   string // empty when no store is configured or saving failed
	Model      string
	Usage      llm.Usage
	RequestID  string
	Elapsed    time.Duration
}

type Service struct {
	normalizer Normalizer
	classifier llm.Classifier
	store      artifacts.Store
	logger     *slog.Logger
}

// NewService wires the pipeline. A nil store disables artifact saving.
func NewService(n Normalizer, c llm.Classifier, store artifacts.Store, logger *slog.Logger) *Service {
	if store == nil {
		store = artifacts.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{normalizer: n, classifier: c, store: store, logger: logger}
}

// Classify normalizes doc, saves the normalized image, and asks the
// classifier for a document type. Normalization errors are returned as is;
// classifier errors are wrapped with ErrClassification.
func (s *Service) Classify(ctx context.Context, doc normalize.InputDocument) (Outcome, error) {
	start := time.Now()
	ctx, rid := common.EnsureRequestID(ctx)

	payload, err := s.normalizer.Normalize(ctx, doc)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		MediaType:  payload.MediaType,
		Pages:      payload.Pages,
		Width:      payload.Width,
		Height:     payload.Height,
		ImageBytes: len(payload.Raw),
	}

	name := normalize.ArtifactName(doc.Filename, payload)
	if loc, err := s.store.Save(ctx, name, payload.Raw, payload.MediaType); err != nil {
		s.logger.Warn("classify.artifact.save_failed", "req_id", rid, "name", name, "error", err)
	} else {
		out.Artifact = loc
	}

	res, err := s.classifier.Classify(ctx, llm.ClassifyRequest{
		Image:    llm.Image{Base64: payload.Data, MediaType: payload.MediaType},
		Filename: doc.Filename,
	})
	if err != nil {
		s.logger.Error("classify.failed",
			"req_id", rid,
			"filename", doc.Filename,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Outcome{}, fmt.Errorf("%w: %w", ErrClassification, err)
	}

	out.Analysis = res.Analysis
	out.Model = res.Model
	out.Usage = res.Usage
	out.RequestID = res.RequestID
	out.Elapsed = time.Since(start)

	s.logger.Info("classify.ok",
		"req_id", rid,
		"filename", doc.Filename,
		"document_type", out.Analysis.DocumentType,
		"pages", out.Pages,
		"tokens", out.Usage.TotalTokens,
		"elapsed_ms", out.Elapsed.Milliseconds(),
	)
	return out, nil
}

// Status maps a Classify error to the per-file status used in batch reports.
func Status(err error) constants.Status {
	switch {
	case err == nil:
		return constants.StatusOK
	case normalize.IsUnsupported(err):
		return constants.StatusUnsupported
	case normalize.IsRasterization(err):
		return constants.StatusRasterizeFailed
	case errors.Is(err, ErrClassification):
		return constants.StatusClassifyFailed
	}
	return constants.StatusFailed
}
