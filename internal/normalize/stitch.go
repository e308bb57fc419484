package normalize

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// background fills the canvas behind pages narrower than the widest one.
var background color.Color = color.White

// Placement records where a page landed on the stitched canvas.
type Placement struct {
	Page   int // 1-based
	Y      int
	Width  int
	Height int
}

// Stitched is the vertical composite of every page of a document.
type Stitched struct {
	Image      *image.NRGBA
	Placements []Placement
}

// Width and Height of the composite.
func (s Stitched) Width() int  { return s.Image.Bounds().Dx() }
func (s Stitched) Height() int { return s.Image.Bounds().Dy() }

// Stitch stacks pages top to bottom in slice order, left-aligned at x=0.
// The canvas is as wide as the widest page and as tall as all pages combined.
func Stitch(pages []image.Image) (Stitched, error) {
	if len(pages) == 0 {
		return Stitched{}, &RasterizationError{Reason: "document has no pages"}
	}

	totalW, totalH := 0, 0
	for i, p := range pages {
		if p == nil {
			return Stitched{}, &RasterizationError{Reason: "page was not rendered", Page: i + 1}
		}
		b := p.Bounds()
		if b.Dx() <= 0 || b.Dy() <= 0 {
			return Stitched{}, &RasterizationError{Reason: "page rendered with zero size", Page: i + 1}
		}
		if b.Dx() > totalW {
			totalW = b.Dx()
		}
		totalH += b.Dy()
	}

	canvas := imaging.New(totalW, totalH, background)
	placements := make([]Placement, 0, len(pages))
	y := 0
	for i, p := range pages {
		b := p.Bounds()
		dst := image.Rect(0, y, b.Dx(), y+b.Dy())
		draw.Draw(canvas, dst, p, b.Min, draw.Over)
		placements = append(placements, Placement{Page: i + 1, Y: y, Width: b.Dx(), Height: b.Dy()})
		y += b.Dy()
	}

	return Stitched{Image: canvas, Placements: placements}, nil
}
