package artifacts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/joseph-ayodele/doc-classifier/internal/common"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFSStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s, err := NewFSStore(dir, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	loc, err := s.Save(context.Background(), "../../etc/bank_statement_1.jpg", []byte("jpeg"), "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if loc != filepath.Join(dir, "bank_statement_1.jpg") {
		t.Errorf("location = %s", loc)
	}
	if _, err := s.Save(context.Background(), "bank_statement_1.jpg", []byte("newer"), "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(loc)
	if string(got) != "newer" {
		t.Errorf("content = %q, want overwrite", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestFSStoreRejectsEmptyName(t *testing.T) {
	s, _ := NewFSStore(t.TempDir(), quietLogger())
	_, err := s.Save(context.Background(), "", []byte("x"), "")
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestNew(t *testing.T) {
	st, err := New(context.Background(), common.ArtifactsConfig{Store: "none"}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if loc, err := st.Save(context.Background(), "a.png", nil, ""); loc != "" || err != nil {
		t.Errorf("nop save = (%q, %v)", loc, err)
	}

	st, err = New(context.Background(), common.ArtifactsConfig{Store: "fs", Dir: t.TempDir()}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*FSStore); !ok {
		t.Errorf("store = %T, want *FSStore", st)
	}

	if _, err := New(context.Background(), common.ArtifactsConfig{Store: "ftp"}, quietLogger()); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("unknown store error = %v", err)
	}
}

type fakeS3 struct {
	mu       sync.Mutex
	calls    []string
	buckets  map[string]bool
	ctByPath map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	bucket := strings.Split(strings.Trim(r.URL.Path, "/"), "/")[0]
	isBucket := !strings.Contains(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodHead && isBucket:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
	case r.Method == http.MethodPut && isBucket:
		f.buckets[bucket] = true
	case r.Method == http.MethodPut:
		f.ctByPath[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"abc123"`)
	}
	w.WriteHeader(http.StatusOK)
}

func TestS3StoreCreatesBucketAndUploads(t *testing.T) {
	fake := &fakeS3{buckets: map[string]bool{}, ctByPath: map[string]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s, err := NewS3Store(context.Background(), S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "docs",
		Region:    "us-east-1",
		Prefix:    "converted",
	}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if !fake.buckets["docs"] {
		t.Fatal("missing bucket should have been created")
	}

	loc, err := s.Save(context.Background(), "invoice_1.jpg", []byte("jpeg"), "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if loc != "s3://docs/converted/invoice_1.jpg" {
		t.Errorf("location = %s", loc)
	}
	if ct := fake.ctByPath["/docs/converted/invoice_1.jpg"]; ct != "image/jpeg" {
		t.Errorf("content type = %q, calls = %v", ct, fake.calls)
	}
}
