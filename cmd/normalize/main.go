package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/joseph-ayodele/doc-classifier/internal/app"
	"github.com/joseph-ayodele/doc-classifier/internal/artifacts"
	"github.com/joseph-ayodele/doc-classifier/internal/common"
	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
)

func main() {
	var (
		out = flag.String("out", "output_images", "directory the normalized image is written to")
		dpi = flag.Int("dpi", 0, "render PDFs at this DPI (default NORMALIZE_DPI)")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: normalize [-out dir] [-dpi n] <file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := common.LoadConfig()
	logger := common.NewCLILogger(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		logger.Error("normalize.config_invalid", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n := app.NewNormalizer(cfg.Normalize, logger)
	start := time.Now()
	payload, err := n.NormalizeFile(ctx, path, normalize.WithDPI(*dpi))
	if err != nil {
		logger.Error("normalize.failed", "path", path, "error", err)
		os.Exit(1)
	}

	store, err := artifacts.NewFSStore(*out, logger)
	if err != nil {
		logger.Error("normalize.output_failed", "error", err)
		os.Exit(1)
	}
	name := normalize.ArtifactName(filepath.Base(path), payload)
	loc, err := store.Save(ctx, name, payload.Raw, payload.MediaType)
	if err != nil {
		logger.Error("normalize.output_failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n  media type: %s\n  pages:      %d\n  size:       %dx%d\n  image:      %s\n  base64:     %s\n  took:       %s\n",
		loc,
		payload.MediaType,
		payload.Pages,
		payload.Width, payload.Height,
		humanize.Bytes(uint64(len(payload.Raw))),
		humanize.Bytes(uint64(len(payload.Data))),
		time.Since(start).Round(time.Millisecond),
	)
}
