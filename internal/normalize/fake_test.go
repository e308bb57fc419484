package normalize

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync/atomic"
	"time"
)

// fakeRasterizer serves pre-sized solid pages without parsing the bytes.
type fakeRasterizer struct {
	sizes     []image.Point
	openErr   error
	failPage  int // 0-based page that fails, -1 for none
	delay     func(page int) time.Duration
	opened    atomic.Int32
	rendered  atomic.Int32
	lastDPI   atomic.Int32
}

func newFake(sizes ...image.Point) *fakeRasterizer {
	return &fakeRasterizer{sizes: sizes, failPage: -1}
}

func (f *fakeRasterizer) String() string { return "fake" }

func (f *fakeRasterizer) Open(_ context.Context, _ []byte) (Document, error) {
	f.opened.Add(1)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &fakeDocument{f: f}, nil
}

type fakeDocument struct {
	f *fakeRasterizer
}

func (d *fakeDocument) NumPages() int { return len(d.f.sizes) }

func (d *fakeDocument) RenderPage(ctx context.Context, page int, dpi int) (image.Image, error) {
	d.f.rendered.Add(1)
	d.f.lastDPI.Store(int32(dpi))
	if d.f.delay != nil {
		select {
		case <-time.After(d.f.delay(page)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if page == d.f.failPage {
		return nil, errors.New("boom")
	}
	sz := d.f.sizes[page]
	return solid(sz.X, sz.Y, pageColor(page)), nil
}

func (d *fakeDocument) Close() error { return nil }

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// pageColor gives each page a distinct opaque color.
func pageColor(page int) color.NRGBA {
	return color.NRGBA{R: uint8(40 * (page + 1)), G: uint8(10 * page), B: 200, A: 255}
}
