package raster

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/gen2brain/go-fitz"

	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
)

// Fitz renders PDFs in memory with MuPDF.
type Fitz struct {
	logger *slog.Logger
}

func NewFitz(logger *slog.Logger) *Fitz {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fitz{logger: logger}
}

func (f *Fitz) String() string { return "fitz" }

// Enabled is always true: MuPDF is linked into the binary.
func (f *Fitz) Enabled() bool { return true }

func (f *Fitz) Open(_ context.Context, pdf []byte) (normalize.Document, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	f.logger.Debug("raster.fitz.open", "bytes", len(pdf), "pages", doc.NumPage())
	return &fitzDocument{doc: doc}, nil
}

// fitzDocument relies on go-fitz serializing calls on a document.
type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) NumPages() int { return d.doc.NumPage() }

func (d *fitzDocument) RenderPage(ctx context.Context, page int, dpi int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := d.doc.ImageDPI(page, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error { return d.doc.Close() }
