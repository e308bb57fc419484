// Package ingest classifies files from disk: one path, a directory tree, or
// files as they appear in a watched directory.
package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/doc-classifier/constants"
	"github.com/joseph-ayodele/doc-classifier/internal/classify"
	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
)

// Classifier is satisfied by *classify.Service.
type Classifier interface {
	Classify(ctx context.Context, doc normalize.InputDocument) (classify.Outcome, error)
}

// ContextFunc prepares the context a single file is classified under, for
// example to attach a cassette recorder for that file.
type ContextFunc func(ctx context.Context, path string) (context.Context, error)

// Result is the per-file outcome.
type Result struct {
	Path     string
	Status   constants.Status
	Expected constants.DocumentType // from the file name; empty when it carries no label
	Outcome  classify.Outcome
	Err      string
}

// Correct reports whether the classifier agreed with the file name label.
func (r Result) Correct() bool {
	return r.Status == constants.StatusOK && r.Expected != "" && r.Outcome.Analysis.DocumentType == r.Expected
}

// DirStats summarizes a directory run.
type DirStats struct {
	Scanned     uint32 // regular, non-hidden files seen
	Matched     uint32 // files with a supported extension
	Succeeded   uint32
	Failed      uint32 // rasterize, classify and read failures
	Unsupported uint32
	Labeled     uint32 // successes whose file name carries a label
	Correct     uint32
}

func (s *DirStats) add(r Result) {
	switch r.Status {
	case constants.StatusOK:
		s.Succeeded++
		if r.Expected != "" {
			s.Labeled++
		}
		if r.Correct() {
			s.Correct++
		}
	case constants.StatusUnsupported:
		s.Unsupported++
	default:
		s.Failed++
	}
}

// Accuracy is Correct/Labeled, or 0 when nothing was labeled.
func (s DirStats) Accuracy() float64 {
	if s.Labeled == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Labeled)
}

// Batch classifies files through a Classifier.
type Batch struct {
	classifier Classifier
	prepare    ContextFunc
	logger     *slog.Logger
}

type Option func(*Batch)

// WithContextFunc runs fn before every file.
func WithContextFunc(fn ContextFunc) Option {
	return func(b *Batch) { b.prepare = fn }
}

func NewBatch(c Classifier, logger *slog.Logger, opts ...Option) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Batch{classifier: c, logger: logger}
	for _, o := range opts {
		o(b)
	}
	return b
}

// AllowedExt reports whether ext (with or without the dot) is supported.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden reports whether the last path element starts with a dot.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
