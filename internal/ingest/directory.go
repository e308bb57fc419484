package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/doc-classifier/constants"
)

// ClassifyDirectory walks root in lexical order and classifies every
// regular file, one at a time. Hidden entries are skipped if requested.
// Unsupported files are reported with StatusUnsupported, not skipped.
func (b *Batch) ClassifyDirectory(ctx context.Context, root string, skipHidden bool) ([]Result, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	start := time.Now()

	var results []Result
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			r := Result{Path: path, Status: constants.StatusFailed, Err: walkErr.Error()}
			results = append(results, r)
			stats.add(r)
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		stats.Scanned++
		if AllowedExt(filepath.Ext(path)) {
			stats.Matched++
		}

		r := b.ClassifyFile(ctx, path)
		results = append(results, r)
		stats.add(r)
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	b.logger.Info("ingest.dir.ok",
		"root", root,
		"scanned", stats.Scanned,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"unsupported", stats.Unsupported,
		"correct", stats.Correct,
		"labeled", stats.Labeled,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results, stats, nil
}
