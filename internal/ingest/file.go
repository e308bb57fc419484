package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/doc-classifier/constants"
	"github.com/joseph-ayodele/doc-classifier/internal/classify"
	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
)

// ClassifyFile reads and classifies one file. Failures are reported in the
// Result rather than returned.
func (b *Batch) ClassifyFile(ctx context.Context, path string) Result {
	name := filepath.Base(path)
	res := Result{Path: path}
	if dt, ok := constants.ExpectedFromFilename(name); ok {
		res.Expected = dt
	}

	if b.prepare != nil {
		fctx, err := b.prepare(ctx, path)
		if err != nil {
			return b.fail(res, constants.StatusFailed, fmt.Errorf("prepare: %w", err))
		}
		ctx = fctx
	}

	// unsupported names are rejected before reading
	if _, err := normalize.Resolve(name, ""); err != nil {
		return b.fail(res, constants.StatusUnsupported, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return b.fail(res, constants.StatusFailed, fmt.Errorf("read %s: %w", path, err))
	}

	out, err := b.classifier.Classify(ctx, normalize.InputDocument{Filename: name, Data: data})
	if err != nil {
		return b.fail(res, classify.Status(err), err)
	}
	res.Status = constants.StatusOK
	res.Outcome = out
	b.logger.Info("ingest.file.ok",
		"path", path,
		"document_type", out.Analysis.DocumentType,
		"expected", res.Expected,
		"correct", res.Correct(),
	)
	return res
}

func (b *Batch) fail(res Result, status constants.Status, err error) Result {
	res.Status = status
	res.Err = err.Error()
	if status == constants.StatusUnsupported {
		b.logger.Info("ingest.file.unsupported", "path", res.Path, "error", err)
	} else {
		b.logger.Error("ingest.file.failed", "path", res.Path, "status", status, "error", err)
	}
	return res
}
