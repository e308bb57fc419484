// Package raster provides the PDF page renderers behind normalize.Rasterizer.
package raster

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
)

// Backend is a Rasterizer that can report whether it is usable on this host.
type Backend interface {
	normalize.Rasterizer
	Enabled() bool
}

var (
	_ Backend = (*Fitz)(nil)
	_ Backend = (*Poppler)(nil)
)

// New picks a backend by name: "fitz" or "poppler".
func New(name, pdftoppmPath string, logger *slog.Logger) (Backend, error) {
	var b Backend
	switch name {
	case "", "fitz":
		b = NewFitz(logger)
	case "poppler":
		b = NewPoppler(pdftoppmPath, nil, logger)
	default:
		return nil, fmt.Errorf("unknown rasterizer %q", name)
	}
	if !b.Enabled() {
		return nil, fmt.Errorf("rasterizer %s is not available on this host", b)
	}
	return b, nil
}
