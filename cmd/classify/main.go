package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joseph-ayodele/doc-classifier/internal/app"
	"github.com/joseph-ayodele/doc-classifier/internal/common"
	"github.com/joseph-ayodele/doc-classifier/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type fileReport struct {
	Path         string `json:"path"`
	Status       string `json:"status"`
	DocumentType string `json:"document_type,omitempty"`
	Expected     string `json:"expected,omitempty"`
	Correct      *bool  `json:"correct,omitempty"`
	Notes        string `json:"notes,omitempty"`
	MediaType    string `json:"media_type,omitempty"`
	Pages        int    `json:"pages,omitempty"`
	ImageBytes   int    `json:"image_bytes,omitempty"`
	TotalTokens  int    `json:"total_tokens,omitempty"`
	Artifact     string `json:"artifact,omitempty"`
	Error        string `json:"error,omitempty"`
}

func report(r ingest.Result) fileReport {
	fr := fileReport{
		Path:     r.Path,
		Status:   string(r.Status),
		Expected: string(r.Expected),
		Error:    r.Err,
	}
	if r.Err == "" {
		o := r.Outcome
		fr.DocumentType = string(o.Analysis.DocumentType)
		fr.Notes = o.Analysis.Notes
		fr.MediaType = o.MediaType
		fr.Pages = o.Pages
		fr.ImageBytes = o.ImageBytes
		fr.TotalTokens = o.Usage.TotalTokens
		fr.Artifact = o.Artifact
		if r.Expected != "" {
			ok := r.Correct()
			fr.Correct = &ok
		}
	}
	return fr
}

func main() {
	var (
		file      = flag.String("file", "", "classify a single file")
		dir       = flag.String("dir", "", "classify every file under a directory")
		watch     = flag.Bool("watch", false, "with -dir: keep running and classify files as they arrive")
		workers   = flag.Int("workers", 2, "with -watch: concurrent classifications")
		hidden    = flag.Bool("hidden", false, "include hidden files and directories")
		cassettes = flag.String("cassettes", "", "cassette directory (overrides CASSETTE_DIR)")
		mode      = flag.String("mode", "", "cassette mode: disabled|once|replay|record (overrides CASSETTE_MODE)")
	)
	flag.Parse()

	if (*file == "") == (*dir == "") {
		printError("Error: exactly one of --file or --dir is required\n")
		os.Exit(2)
	}
	if *watch && *dir == "" {
		printError("Error: --watch needs --dir\n")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if *cassettes != "" {
		cfg.Cassette.Dir = *cassettes
		if *mode == "" && cfg.Cassette.Mode == "disabled" {
			cfg.Cassette.Mode = "once"
		}
	}
	if *mode != "" {
		cfg.Cassette.Mode = *mode
	}
	logger := common.NewCLILogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, true)
	if err != nil {
		logger.Error("classify.setup_failed", "error", err)
		os.Exit(1)
	}
	batch := ingest.NewBatch(a.Service, logger, ingest.WithContextFunc(a.CassetteContext))

	var mu sync.Mutex
	enc := json.NewEncoder(os.Stdout)
	emit := func(r ingest.Result) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(report(r))
	}

	switch {
	case *file != "":
		r := batch.ClassifyFile(ctx, *file)
		emit(r)
		if r.Err != "" {
			os.Exit(1)
		}
	case *watch:
		if err := runWatch(ctx, batch, *dir, *workers, !*hidden, emit); err != nil {
			logger.Error("classify.watch_failed", "error", err)
			os.Exit(1)
		}
	default:
		results, stats, err := batch.ClassifyDirectory(ctx, *dir, !*hidden)
		for _, r := range results {
			emit(r)
		}
		printSummary(stats)
		if err != nil {
			logger.Error("classify.dir_failed", "error", err)
			os.Exit(1)
		}
	}
}

func runWatch(ctx context.Context, batch *ingest.Batch, dir string, workers int, skipHidden bool, emit func(ingest.Result)) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		SkipHidden:  skipHidden,
		Debounce:    500 * time.Millisecond,
	}, nil)
	if err != nil {
		return err
	}
	q := ingest.NewQueue(batch, emit, nil, ingest.WithWorkers(workers))
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		q.Shutdown(sctx)
	}()

	for {
		select {
		case path, ok := <-events:
			if !ok {
				return nil
			}
			if err := q.Enqueue(ctx, path); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			printError("watch error: %v\n", err)
		}
	}
}

func printSummary(s ingest.DirStats) {
	printError("\nscanned=%d matched=%d ok=%d failed=%d unsupported=%d\n",
		s.Scanned, s.Matched, s.Succeeded, s.Failed, s.Unsupported)
	if s.Labeled > 0 {
		printError("accuracy: %d/%d correct (%.1f%%)\n", s.Correct, s.Labeled, 100*s.Accuracy())
	}
}
