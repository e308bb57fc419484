package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/doc-classifier/constants"
	"github.com/joseph-ayodele/doc-classifier/internal/classify"
	"github.com/joseph-ayodele/doc-classifier/internal/llm"
	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClassifier answers from a table keyed by file name.
type fakeClassifier struct {
	mu      sync.Mutex
	answers map[string]constants.DocumentType
	errs    map[string]error
	seen    []string
}

func (f *fakeClassifier) Classify(ctx context.Context, doc normalize.InputDocument) (classify.Outcome, error) {
	f.mu.Lock()
	f.seen = append(f.seen, doc.Filename)
	f.mu.Unlock()
	if err := f.errs[doc.Filename]; err != nil {
		return classify.Outcome{}, err
	}
	return classify.Outcome{Analysis: llm.Analysis{DocumentType: f.answers[doc.Filename]}}, nil
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, n)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestClassifyDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"invoice_1.png",
		"bank_statement_1.pdf",
		"bank_statement_2.pdf",
		"sub/drivers_license_1.JPG",
		"notes.txt",
		"scan.png",
		".hidden/invoice_9.png",
		".DS_Store",
	)
	fc := &fakeClassifier{
		answers: map[string]constants.DocumentType{
			"invoice_1.png":         constants.Invoice,
			"bank_statement_1.pdf":  constants.Invoice, // wrong on purpose
			"drivers_license_1.JPG": constants.DriversLicence,
			"scan.png":              constants.UnknownFile,
		},
		errs: map[string]error{
			"bank_statement_2.pdf": &normalize.RasterizationError{Reason: "corrupt"},
		},
	}
	b := NewBatch(fc, quietLogger())

	results, stats, err := b.ClassifyDirectory(context.Background(), root, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 6 {
		t.Fatalf("results = %d, want 6", len(results))
	}
	byName := map[string]Result{}
	for _, r := range results {
		byName[filepath.Base(r.Path)] = r
	}

	if r := byName["notes.txt"]; r.Status != constants.StatusUnsupported || r.Err == "" {
		t.Errorf("notes.txt = %+v", r)
	}
	if r := byName["bank_statement_2.pdf"]; r.Status != constants.StatusRasterizeFailed {
		t.Errorf("bank_statement_2.pdf = %+v", r)
	}
	if r := byName["drivers_license_1.JPG"]; !r.Correct() || r.Expected != constants.DriversLicence {
		t.Errorf("synonym label should count as correct: %+v", r)
	}
	if r := byName["bank_statement_1.pdf"]; r.Correct() || r.Expected != constants.BankStatement {
		t.Errorf("wrong answer counted as correct: %+v", r)
	}
	if r := byName["scan.png"]; r.Expected != "" || r.Correct() {
		t.Errorf("unlabeled file = %+v", r)
	}

	want := DirStats{Scanned: 6, Matched: 5, Succeeded: 4, Failed: 1, Unsupported: 1, Labeled: 3, Correct: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if got := stats.Accuracy(); got < 0.66 || got > 0.67 {
		t.Errorf("accuracy = %v", got)
	}
	for _, name := range fc.seen {
		if name == "invoice_9.png" || name == "notes.txt" {
			t.Errorf("classifier should not see %s", name)
		}
	}
}

func TestClassifyDirectoryErrors(t *testing.T) {
	b := NewBatch(&fakeClassifier{}, quietLogger())
	if _, _, err := b.ClassifyDirectory(context.Background(), "  ", true); err == nil {
		t.Error("empty root should fail")
	}
	if _, _, err := b.ClassifyDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"), true); err == nil {
		t.Error("missing root should fail")
	}

	root := t.TempDir()
	writeFiles(t, root, "a.png", "b.png")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := b.ClassifyDirectory(ctx, root, true); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled walk error = %v", err)
	}
}

func TestContextFunc(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "invoice_1.png", "invoice_2.png")

	var prepared []string
	b := NewBatch(&fakeClassifier{answers: map[string]constants.DocumentType{}}, quietLogger(),
		WithContextFunc(func(ctx context.Context, path string) (context.Context, error) {
			prepared = append(prepared, filepath.Base(path))
			if filepath.Base(path) == "invoice_2.png" {
				return nil, errors.New("no cassette")
			}
			return ctx, nil
		}),
	)
	results, stats, err := b.ClassifyDirectory(context.Background(), root, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(prepared) != 2 || stats.Failed != 1 || results[1].Status != constants.StatusFailed {
		t.Errorf("prepared = %v, stats = %+v", prepared, stats)
	}
}

func TestQueue(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "invoice_1.png", "invoice_2.png", "invoice_3.png")
	fc := &fakeClassifier{answers: map[string]constants.DocumentType{
		"invoice_1.png": constants.Invoice, "invoice_2.png": constants.Invoice, "invoice_3.png": constants.Invoice,
	}}

	var mu sync.Mutex
	var got []string
	q := NewQueue(NewBatch(fc, quietLogger()), func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		if r.Correct() {
			got = append(got, filepath.Base(r.Path))
		}
	}, quietLogger(), WithWorkers(2), WithQueueSize(1))

	for _, n := range []string{"invoice_1.png", "invoice_2.png", "invoice_3.png"} {
		if err := q.Enqueue(context.Background(), filepath.Join(root, n)); err != nil {
			t.Fatal(err)
		}
	}
	q.Shutdown(context.Background())
	if err := q.Enqueue(context.Background(), "late.png"); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("enqueue after shutdown = %v", err)
	}

	sort.Strings(got)
	if len(got) != 3 || got[0] != "invoice_1.png" {
		t.Errorf("results = %v", got)
	}
}

func TestWatcher(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "invoice_1.png", "ignored.txt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		SkipHidden:  true,
		Debounce:    20 * time.Millisecond,
	}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	next := func() string {
		t.Helper()
		select {
		case p := <-events:
			return filepath.Base(p)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return ""
		}
	}
	if got := next(); got != "invoice_1.png" {
		t.Errorf("initial scan emitted %s", got)
	}

	writeFiles(t, root, ".partial.png", "bank_statement_1.pdf")
	if got := next(); got != "bank_statement_1.pdf" {
		t.Errorf("watch emitted %s", got)
	}

	cancel()
	for range events {
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}, quietLogger()); err == nil {
		t.Error("expected error")
	}
}
