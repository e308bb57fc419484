package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/phpdave11/gofpdf"

	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
)

const testDPI = 200

// ptFor converts a pixel length at testDPI into PDF points.
func ptFor(px int) float64 {
	return float64(px) * 72.0 / testDPI
}

// buildPDF writes one page per size (given in pixels at testDPI).
func buildPDF(t *testing.T, sizes ...image.Point) []byte {
	t.Helper()
	first := gofpdf.SizeType{Wd: ptFor(sizes[0].X), Ht: ptFor(sizes[0].Y)}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: first})
	pdf.SetAutoPageBreak(false, 0)
	for i, sz := range sizes {
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: ptFor(sz.X), Ht: ptFor(sz.Y)})
		pdf.SetFont("Helvetica", "", 14)
		pdf.Text(20, 30, fmt.Sprintf("page %d", i+1))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return buf.Bytes()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInspect(t *testing.T) {
	pdf := buildPDF(t, image.Pt(1000, 1400), image.Pt(1000, 1400), image.Pt(1000, 700))
	info, err := Inspect(pdf)
	if err != nil {
		t.Fatalf("Inspect error: %v", err)
	}
	if info.Pages != 3 || len(info.Sizes) != 3 {
		t.Fatalf("pages = %d sizes = %d, want 3", info.Pages, len(info.Sizes))
	}
	w, h := info.ExpectedStitchSize(testDPI)
	if w != 1000 || h != 3500 {
		t.Errorf("expected stitch size %dx%d, want 1000x3500", w, h)
	}
}

func TestInspectRejectsGarbage(t *testing.T) {
	if _, err := Inspect([]byte("definitely not a pdf")); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestPageSizePixels(t *testing.T) {
	w, h := PageSize{Width: 612, Height: 792}.Pixels(200)
	if w != 1700 || h != 2200 {
		t.Errorf("letter at 200dpi = %dx%d, want 1700x2200", w, h)
	}
}

func TestNewBackend(t *testing.T) {
	b, err := New("fitz", "", quietLogger())
	if err != nil {
		t.Fatalf("fitz backend: %v", err)
	}
	if b.String() != "fitz" {
		t.Errorf("String() = %q", b.String())
	}
	if _, err := New("ghostscript", "", quietLogger()); err == nil {
		t.Error("unknown backend should fail")
	}
	if _, err := New("poppler", "/nonexistent/pdftoppm", quietLogger()); err == nil {
		t.Error("missing pdftoppm should fail")
	}
}

func TestFitzNormalizeScenarios(t *testing.T) {
	tests := []struct {
		name  string
		sizes []image.Point
		w, h  int
	}{
		{"one page", []image.Point{{1000, 1400}}, 1000, 1400},
		{"three pages", []image.Point{{1000, 1400}, {1000, 1400}, {1000, 700}}, 1000, 3500},
		{"mixed widths", []image.Point{{800, 600}, {1000, 400}}, 1000, 1000},
	}
	n := normalize.NewNormalizer(normalize.Config{DPI: testDPI, Workers: 2}, NewFitz(quietLogger()), quietLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := normalize.InputDocument{Filename: "statement.PDF", Data: buildPDF(t, tt.sizes...)}
			p, err := n.Normalize(context.Background(), doc)
			if err != nil {
				t.Fatalf("Normalize error: %v", err)
			}
			if p.MediaType != "image/jpeg" {
				t.Errorf("media type = %q", p.MediaType)
			}
			raw, err := base64.StdEncoding.DecodeString(p.Data)
			if err != nil {
				t.Fatal(err)
			}
			cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
			if err != nil {
				t.Fatalf("not a jpeg: %v", err)
			}
			if cfg.Width != tt.w || cfg.Height != tt.h {
				t.Errorf("decoded %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.w, tt.h)
			}
		})
	}
}

func TestFitzCorruptPDF(t *testing.T) {
	n := normalize.NewNormalizer(normalize.Config{}, NewFitz(quietLogger()), quietLogger())
	_, err := n.Normalize(context.Background(), normalize.InputDocument{
		Filename: "broken.pdf",
		Data:     []byte("%PDF-1.7\nthis is not really a pdf"),
	})
	if !errors.Is(err, normalize.ErrRasterization) {
		t.Fatalf("error = %v, want ErrRasterization", err)
	}
}

// fakeRunner answers pdftoppm calls with a PNG of a fixed size per page.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	stdinOK bool
	sizes   map[int]image.Point
	fail    bool
}

func (r *fakeRunner) Run(_ context.Context, name string, stdin []byte, args ...string) ([]byte, []byte, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.stdinOK = r.stdinOK || bytes.HasPrefix(stdin, []byte("%PDF"))
	r.mu.Unlock()

	if r.fail {
		return nil, []byte("Syntax Error: Couldn't read xref table"), errors.New("exit status 1")
	}
	page := 0
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-f" {
			page, _ = strconv.Atoi(args[i+1])
		}
	}
	sz := r.sizes[page]
	img := image.NewNRGBA(image.Rect(0, 0, sz.X, sz.Y))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), nil, nil
}

func TestPopplerRendersEachPage(t *testing.T) {
	pdf := buildPDF(t, image.Pt(1000, 1400), image.Pt(1000, 700))
	runner := &fakeRunner{sizes: map[int]image.Point{1: {1000, 1400}, 2: {1000, 700}}}
	p := NewPoppler("pdftoppm", runner, quietLogger())

	n := normalize.NewNormalizer(normalize.Config{DPI: testDPI}, p, quietLogger())
	payload, err := n.Normalize(context.Background(), normalize.InputDocument{Filename: "invoice.pdf", Data: pdf})
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if payload.Width != 1000 || payload.Height != 2100 {
		t.Errorf("size = %dx%d, want 1000x2100", payload.Width, payload.Height)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(runner.calls))
	}
	if !runner.stdinOK {
		t.Error("pdf bytes should be piped on stdin")
	}
	want := "pdftoppm -r 200 -f 1 -l 1 -png -"
	if got := strings.Join(runner.calls[0], " "); got != want {
		t.Errorf("first call = %q, want %q", got, want)
	}
}

func TestPopplerFailureIsRasterization(t *testing.T) {
	pdf := buildPDF(t, image.Pt(100, 100))
	p := NewPoppler("pdftoppm", &fakeRunner{fail: true}, quietLogger())
	_, err := normalize.RasterizeAndStitch(context.Background(), p, pdf, normalize.RasterOptions{})
	var rerr *normalize.RasterizationError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *RasterizationError", err)
	}
	if rerr.Page != 1 {
		t.Errorf("Page = %d, want 1", rerr.Page)
	}
	if !strings.Contains(err.Error(), "xref") {
		t.Errorf("stderr should surface in the error: %v", err)
	}
}

func TestPopplerRealBinary(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not installed")
	}
	pdf := buildPDF(t, image.Pt(1000, 1400), image.Pt(1000, 700))
	s, err := normalize.RasterizeAndStitch(context.Background(), NewPoppler("", nil, quietLogger()), pdf,
		normalize.RasterOptions{DPI: testDPI, Workers: 2})
	if err != nil {
		t.Fatalf("RasterizeAndStitch error: %v", err)
	}
	if s.Width() != 1000 || s.Height() != 2100 {
		t.Errorf("got %dx%d, want 1000x2100", s.Width(), s.Height())
	}
	if s.Image.NRGBAAt(999, 2099) == (color.NRGBA{}) {
		t.Error("bottom-right pixel should be painted")
	}
}
