package normalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/doc-classifier/constants"
	"github.com/joseph-ayodele/doc-classifier/internal/common"
)

// InputDocument is an upload as received: a name, an optional declared
// content type, and the raw bytes. The pipeline never modifies Data.
type InputDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Config controls the normalizer.
type Config struct {
	DPI         int // default 200
	JPEGQuality int // default 90
	Workers     int // concurrent page renders, default 1
	MaxPages    int // 0 = all pages
}

// Normalizer turns an InputDocument into a single encoded image.
type Normalizer struct {
	cfg        Config
	rasterizer Rasterizer
	logger     *slog.Logger
}

// Option overrides a Config field for a single call.
type Option func(*Config)

// WithDPI renders PDFs at dpi for this call.
func WithDPI(dpi int) Option {
	return func(c *Config) {
		if dpi > 0 {
			c.DPI = dpi
		}
	}
}

// NewNormalizer builds a Normalizer. A nil rasterizer is allowed; PDF input
// then fails with a RasterizationError.
func NewNormalizer(cfg Config, r Rasterizer, logger *slog.Logger) *Normalizer {
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = DefaultJPEGQuality
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{cfg: cfg, rasterizer: r, logger: logger}
}

// Normalize resolves the document type, rasterizes and stitches PDFs, and
// encodes the result. Raster images pass through unchanged. On error no
// payload is returned.
func (n *Normalizer) Normalize(ctx context.Context, doc InputDocument, opts ...Option) (EncodedPayload, error) {
	start := time.Now()
	cfg := n.cfg
	for _, o := range opts {
		o(&cfg)
	}
	rid := common.RequestIDFromContext(ctx)

	cls, err := Resolve(doc.Filename, doc.ContentType)
	if err != nil {
		n.logger.Warn("normalize.unsupported",
			"req_id", rid, "filename", doc.Filename,
			"content_type", doc.ContentType, "error", err,
		)
		return EncodedPayload{}, err
	}

	n.logger.Info("normalize.start",
		"req_id", rid,
		"filename", doc.Filename,
		"media_type", cls.MediaType,
		"bytes", len(doc.Data),
		"dpi", cfg.DPI,
	)

	if !cls.IsPDF() {
		payload := Encode(doc.Data, cls.MediaType)
		if w, h, _, err := ImageSize(doc.Data); err == nil {
			payload.Width, payload.Height = w, h
		} else {
			n.logger.Debug("normalize.image.size_unknown", "req_id", rid, "error", err)
		}
		n.logger.Info("normalize.ok",
			"req_id", rid,
			"media_type", payload.MediaType,
			"image_bytes", len(payload.Raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return payload, nil
	}

	if n.rasterizer == nil {
		err := &RasterizationError{Reason: "no pdf rasterizer configured"}
		n.logger.Error("normalize.rasterize.error", "req_id", rid, "error", err)
		return EncodedPayload{}, err
	}

	stitched, err := RasterizeAndStitch(ctx, n.rasterizer, doc.Data, RasterOptions{
		DPI:      cfg.DPI,
		Workers:  cfg.Workers,
		MaxPages: cfg.MaxPages,
	})
	if err != nil {
		n.logger.Error("normalize.rasterize.error",
			"req_id", rid,
			"rasterizer", n.rasterizer.String(),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return EncodedPayload{}, err
	}
	n.logger.Debug("normalize.rasterize.ok",
		"req_id", rid,
		"rasterizer", n.rasterizer.String(),
		"pages", len(stitched.Placements),
		"width", stitched.Width(),
		"height", stitched.Height(),
	)

	jpg, err := EncodeJPEG(stitched.Image, cfg.JPEGQuality)
	if err != nil {
		rerr := &RasterizationError{Reason: "cannot encode stitched image", Cause: err}
		n.logger.Error("normalize.encode.error", "req_id", rid, "error", rerr)
		return EncodedPayload{}, rerr
	}

	payload := Encode(jpg, constants.MediaTypeJPEG)
	payload.Pages = len(stitched.Placements)
	payload.Width = stitched.Width()
	payload.Height = stitched.Height()

	n.logger.Info("normalize.ok",
		"req_id", rid,
		"media_type", payload.MediaType,
		"pages", payload.Pages,
		"width", payload.Width,
		"height", payload.Height,
		"image_bytes", len(payload.Raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return payload, nil
}

// NormalizeFile reads path and normalizes it, using the base name for type resolution.
func (n *Normalizer) NormalizeFile(ctx context.Context, path string, opts ...Option) (EncodedPayload, error) {
	// reject by name before touching the disk
	if _, err := Resolve(filepath.Base(path), ""); err != nil {
		return EncodedPayload{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return EncodedPayload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return n.Normalize(ctx, InputDocument{Filename: filepath.Base(path), Data: data}, opts...)
}

// ArtifactName is the file name a normalized payload is saved under:
// PDFs become "<stem>.jpg", images keep their own name.
func ArtifactName(filename string, payload EncodedPayload) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	want := "." + constants.ExtForMediaType(payload.MediaType)
	if mt, ok := constants.MediaTypeForExt(ext); ok && mt == payload.MediaType {
		return base
	}
	return base[:len(base)-len(ext)] + want
}

// IsUnsupported reports whether err came from type resolution.
func IsUnsupported(err error) bool { return errors.Is(err, ErrUnsupportedMediaType) }

// IsRasterization reports whether err came from PDF rendering.
func IsRasterization(err error) bool { return errors.Is(err, ErrRasterization) }
