package raster

import (
	"bytes"
	"fmt"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// keep pdfcpu from creating a config directory under $HOME
	api.DisableConfigDir()
}

// PageSize is a page's media box in PDF points (1/72 inch).
type PageSize struct {
	Width  float64
	Height float64
}

// Pixels returns the page size rendered at dpi, rounded to whole pixels.
func (p PageSize) Pixels(dpi int) (int, int) {
	scale := float64(dpi) / 72.0
	return int(math.Round(p.Width * scale)), int(math.Round(p.Height * scale))
}

// Info is the structural summary of a PDF.
type Info struct {
	Pages int
	Sizes []PageSize
}

// ExpectedStitchSize is the canvas a full render at dpi produces: the widest
// page by the sum of all page heights.
func (i Info) ExpectedStitchSize(dpi int) (int, int) {
	w, h := 0, 0
	for _, s := range i.Sizes {
		pw, ph := s.Pixels(dpi)
		if pw > w {
			w = pw
		}
		h += ph
	}
	return w, h
}

func readContext(pdf []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx, nil
}

// Inspect parses pdf without rendering it.
func Inspect(pdf []byte) (Info, error) {
	ctx, err := readContext(pdf)
	if err != nil {
		return Info{}, err
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return Info{}, fmt.Errorf("page dims: %w", err)
	}
	info := Info{Pages: ctx.PageCount, Sizes: make([]PageSize, 0, len(dims))}
	for _, d := range dims {
		info.Sizes = append(info.Sizes, PageSize{Width: d.Width, Height: d.Height})
	}
	return info, nil
}
