package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
)

// Poppler renders pages with the pdftoppm binary. The PDF is piped on stdin
// and each page comes back as PNG on stdout, so nothing touches the disk.
type Poppler struct {
	path   string
	runner Runner
	logger *slog.Logger
}

func NewPoppler(path string, runner Runner, logger *slog.Logger) *Poppler {
	if path == "" {
		path = "pdftoppm"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Poppler{path: path, runner: runner, logger: logger}
}

func (p *Poppler) String() string { return "poppler" }

// Enabled reports whether pdftoppm can be found.
func (p *Poppler) Enabled() bool {
	_, err := exec.LookPath(p.path)
	return err == nil
}

func (p *Poppler) Open(_ context.Context, pdf []byte) (normalize.Document, error) {
	ctx, err := readContext(pdf)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("raster.poppler.open", "bytes", len(pdf), "pages", ctx.PageCount)
	return &popplerDocument{p: p, pdf: pdf, pages: ctx.PageCount}, nil
}

type popplerDocument struct {
	p     *Poppler
	pdf   []byte
	pages int
}

func (d *popplerDocument) NumPages() int { return d.pages }

func (d *popplerDocument) RenderPage(ctx context.Context, page int, dpi int) (image.Image, error) {
	n := strconv.Itoa(page + 1)
	args := []string{"-r", strconv.Itoa(dpi), "-f", n, "-l", n, "-png", "-"}
	stdout, stderr, err := d.p.runner.Run(ctx, d.p.path, d.pdf, args...)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm page %s: %w (stderr=%s)", n, err, truncate(string(stderr), 512))
	}
	if len(stdout) == 0 {
		return nil, fmt.Errorf("pdftoppm page %s: no output", n)
	}
	img, err := imaging.Decode(bytes.NewReader(stdout))
	if err != nil {
		return nil, fmt.Errorf("decode pdftoppm page %s: %w", n, err)
	}
	return img, nil
}

func (d *popplerDocument) Close() error { return nil }
