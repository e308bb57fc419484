package normalize

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"
)

var fakePDF = []byte("%PDF-1.4 fake")

func TestRenderPagesParallelKeepsOrder(t *testing.T) {
	sizes := []image.Point{{100, 10}, {100, 20}, {100, 30}, {100, 40}, {100, 50}, {100, 60}}
	f := newFake(sizes...)
	// later pages finish first
	f.delay = func(page int) time.Duration { return time.Duration(len(sizes)-page) * 5 * time.Millisecond }

	pages, err := RenderPages(context.Background(), f, fakePDF, RasterOptions{DPI: 150, Workers: 4})
	if err != nil {
		t.Fatalf("RenderPages error: %v", err)
	}
	for i, p := range pages {
		if p.Bounds().Dy() != sizes[i].Y {
			t.Errorf("page %d height = %d, want %d", i, p.Bounds().Dy(), sizes[i].Y)
		}
	}
	if got := f.lastDPI.Load(); got != 150 {
		t.Errorf("dpi = %d, want 150", got)
	}
}

func TestRenderPagesDefaults(t *testing.T) {
	f := newFake(image.Pt(10, 10))
	if _, err := RenderPages(context.Background(), f, fakePDF, RasterOptions{}); err != nil {
		t.Fatalf("RenderPages error: %v", err)
	}
	if got := f.lastDPI.Load(); got != DefaultDPI {
		t.Errorf("dpi = %d, want %d", got, DefaultDPI)
	}
}

func TestRenderPagesMaxPages(t *testing.T) {
	f := newFake(image.Pt(10, 10), image.Pt(10, 20), image.Pt(10, 30))
	pages, err := RenderPages(context.Background(), f, fakePDF, RasterOptions{MaxPages: 2})
	if err != nil {
		t.Fatalf("RenderPages error: %v", err)
	}
	if len(pages) != 2 {
		t.Errorf("pages = %d, want 2", len(pages))
	}
}

func TestRenderPagesFailures(t *testing.T) {
	tests := []struct {
		name     string
		fake     *fakeRasterizer
		data     []byte
		wantPage int
	}{
		{"empty bytes", newFake(image.Pt(10, 10)), nil, 0},
		{"zero pages", newFake(), fakePDF, 0},
		{"corrupt pdf", func() *fakeRasterizer {
			f := newFake(image.Pt(10, 10))
			f.openErr = errors.New("no objects found")
			return f
		}(), fakePDF, 0},
		{"second page fails", func() *fakeRasterizer {
			f := newFake(image.Pt(10, 10), image.Pt(10, 10), image.Pt(10, 10))
			f.failPage = 1
			return f
		}(), fakePDF, 2},
		{"zero sized page", newFake(image.Pt(10, 10), image.Pt(0, 10)), fakePDF, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RasterizeAndStitch(context.Background(), tt.fake, tt.data, RasterOptions{})
			if !errors.Is(err, ErrRasterization) {
				t.Fatalf("error = %v, want ErrRasterization", err)
			}
			var rerr *RasterizationError
			if !errors.As(err, &rerr) {
				t.Fatalf("error is %T", err)
			}
			if rerr.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", rerr.Page, tt.wantPage)
			}
		})
	}
}

func TestRenderPagesCancelled(t *testing.T) {
	f := newFake(image.Pt(10, 10), image.Pt(10, 10))
	f.delay = func(int) time.Duration { return time.Second }
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := RenderPages(ctx, f, fakePDF, RasterOptions{Workers: 2})
	if !errors.Is(err, ErrRasterization) {
		t.Fatalf("error = %v, want ErrRasterization", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("cause should carry the context error: %v", err)
	}
}
