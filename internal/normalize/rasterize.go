package normalize

import (
	"context"
	"errors"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"
)

// DefaultDPI is the rendering resolution used when none is configured.
const DefaultDPI = 200

// Rasterizer opens PDF bytes for page rendering.
type Rasterizer interface {
	Open(ctx context.Context, pdf []byte) (Document, error)
	String() string
}

// Document is an opened PDF. RenderPage takes a 0-based page index and must
// be safe for concurrent use.
type Document interface {
	NumPages() int
	RenderPage(ctx context.Context, page int, dpi int) (image.Image, error)
	Close() error
}

// RasterOptions tune page rendering.
type RasterOptions struct {
	DPI      int
	Workers  int // concurrent page renders; <=1 renders sequentially
	MaxPages int // 0 renders every page
}

func (o RasterOptions) withDefaults() RasterOptions {
	if o.DPI <= 0 {
		o.DPI = DefaultDPI
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.MaxPages < 0 {
		o.MaxPages = 0
	}
	return o
}

// RasterizeAndStitch renders every page of pdf and stacks them vertically in
// page order. Any failure is returned as a *RasterizationError.
func RasterizeAndStitch(ctx context.Context, r Rasterizer, pdf []byte, opts RasterOptions) (Stitched, error) {
	pages, err := RenderPages(ctx, r, pdf, opts)
	if err != nil {
		return Stitched{}, err
	}
	return Stitch(pages)
}

// RenderPages renders each page into its own image, indexed by page.
func RenderPages(ctx context.Context, r Rasterizer, pdf []byte, opts RasterOptions) ([]image.Image, error) {
	opts = opts.withDefaults()
	if len(pdf) == 0 {
		return nil, &RasterizationError{Reason: "empty document"}
	}

	doc, err := r.Open(ctx, pdf)
	if err != nil {
		return nil, &RasterizationError{Reason: "cannot open pdf", Cause: err}
	}
	defer func() { _ = doc.Close() }()

	n := doc.NumPages()
	if n <= 0 {
		return nil, &RasterizationError{Reason: "document has no pages"}
	}
	if opts.MaxPages > 0 && n > opts.MaxPages {
		n = opts.MaxPages
	}

	// each worker writes only its own slot, so order follows the index
	pages := make([]image.Image, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := doc.RenderPage(gctx, i, opts.DPI)
			if err != nil {
				return &RasterizationError{Reason: "page render failed", Page: i + 1, Cause: err}
			}
			if img == nil {
				return &RasterizationError{Reason: "page was not rendered", Page: i + 1}
			}
			b := img.Bounds()
			if b.Dx() <= 0 || b.Dy() <= 0 {
				return &RasterizationError{Reason: "page rendered with zero size", Page: i + 1}
			}
			pages[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var rerr *RasterizationError
		if errors.As(err, &rerr) {
			return nil, rerr
		}
		return nil, &RasterizationError{Reason: "rendering interrupted", Cause: fmt.Errorf("render pages: %w", err)}
	}
	return pages, nil
}
