// Package artifacts keeps the normalized images that were sent to the
// classifier, so a run can be inspected or re-analyzed later.
package artifacts

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/doc-classifier/internal/common"
)

// Store saves an artifact under name and returns where it ended up.
type Store interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Nop discards artifacts.
type Nop struct{}

func (Nop) Save(context.Context, string, []byte, string) (string, error) { return "", nil }

// New builds the store selected by cfg.Store.
func New(ctx context.Context, cfg common.ArtifactsConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Store {
	case "", "none":
		return Nop{}, nil
	case "fs":
		return NewFSStore(cfg.Dir, logger)
	case "s3":
		return NewS3Store(ctx, S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		}, logger)
	}
	return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown artifact store %q", cfg.Store), common.ErrInvalidInput)
}

// objectName reduces name to a bare file name so callers cannot write
// outside the store.
func objectName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." || strings.TrimSpace(base) == "" {
		return "", common.NewAppError("INVALID_NAME", fmt.Sprintf("invalid artifact name %q", name), common.ErrInvalidInput)
	}
	return base, nil
}
