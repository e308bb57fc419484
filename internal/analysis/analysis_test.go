package analysis

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doc-classifier/internal/cassette"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeCassette(t *testing.T, dir, name string, interactions ...cassette.Interaction) {
	t.Helper()
	c := &cassette.Cassette{Version: 1, Interactions: interactions}
	if err := c.Save(filepath.Join(dir, name+".yaml")); err != nil {
		t.Fatal(err)
	}
}

func interaction(body, processingMS, requestID string) cassette.Interaction {
	h := cassette.Headers{}
	if processingMS != "" {
		h["openai-processing-ms"] = []string{processingMS}
	}
	if requestID != "" {
		h["x-request-id"] = []string{requestID}
	}
	return cassette.Interaction{
		Request: cassette.Request{Method: "POST", URI: "https://api.openai.com/v1/chat/completions"},
		Response: cassette.Response{
			Body:    cassette.Body{String: body},
			Headers: h,
			Status:  cassette.Status{Code: 200, Message: "OK"},
		},
	}
}

const usageBody = `{"id":"x","usage":{"prompt_tokens":1000,"completion_tokens":200,"total_tokens":1200}}`

func fixture(t *testing.T) Options {
	t.Helper()
	root := t.TempDir()
	opts := Options{
		CassettesDir: filepath.Join(root, "cassettes"),
		FilesDir:     filepath.Join(root, "files"),
		ConvertedDir: filepath.Join(root, "converted"),
	}
	for _, d := range []string{opts.CassettesDir, opts.FilesDir, opts.ConvertedDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	// 2048 bytes for the image, 4096 for the converted PDF.
	if err := os.WriteFile(filepath.Join(opts.FilesDir, "invoice_1.png"), make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(opts.FilesDir, "bank_statement_1.pdf"), make([]byte, 99), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(opts.ConvertedDir, "bank_statement_1.jpg"), make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}

	writeCassette(t, opts.CassettesDir, "invoice_1.png", interaction(usageBody, "800", "req_a"))
	writeCassette(t, opts.CassettesDir, "bank_statement_1.pdf",
		interaction(usageBody, "1500", "req_b"),
		interaction(usageBody, "nope", "req_c"),
	)
	writeCassette(t, opts.CassettesDir, "drivers_licence_1.jpg", interaction(`{"error":{}}`, "300", ""))
	if err := os.WriteFile(filepath.Join(opts.CassettesDir, "broken.yaml"), []byte("interactions: [:"), 0o644); err != nil {
		t.Fatal(err)
	}
	return opts
}

func TestAnalyze(t *testing.T) {
	opts := fixture(t)
	metrics, err := Analyze(opts, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(metrics) != 4 {
		t.Fatalf("metrics = %d, want 4 (broken cassette skipped)", len(metrics))
	}

	// Sorted by cassette name.
	bank, bankBadMS, dl, inv := metrics[0], metrics[1], metrics[2], metrics[3]
	if bank.FileName != "bank_statement_1.pdf" || inv.FileName != "invoice_1.png" {
		t.Fatalf("order = %s, %s, %s, %s", bank.FileName, bankBadMS.FileName, dl.FileName, inv.FileName)
	}
	if !bank.Complete() || bank.ImageSizeBytes != 4096 || bank.ProcessingMS != 1500 || bank.RequestID != "req_b" {
		t.Errorf("pdf metric = %+v", bank)
	}
	if bankBadMS.HasProcessing || bankBadMS.Complete() {
		t.Errorf("unparseable processing time should leave the metric incomplete: %+v", bankBadMS)
	}
	if dl.HasImageSize || dl.HasUsage || !dl.HasProcessing {
		t.Errorf("missing file and usage: %+v", dl)
	}
	if inv.ImageSizeKB() != 2 || inv.PromptTokens != 1000 || inv.CompletionTokens != 200 || inv.TotalTokens != 1200 {
		t.Errorf("image metric = %+v", inv)
	}
}

func TestPricingAndSummary(t *testing.T) {
	m := Metric{PromptTokens: 1000, CompletionTokens: 200, TotalTokens: 1200, HasUsage: true,
		ImageSizeBytes: 1024, HasImageSize: true, ProcessingMS: 100, HasProcessing: true}
	c := DefaultPricing.Cost(m)
	if !near(c.Total(), 0.00027) || !near(c.BatchTotal(), 0.000135) {
		t.Errorf("cost = %+v", c)
	}

	s := Summarize([]Metric{m, m, {FileName: "partial"}}, DefaultPricing)
	if s.Interactions != 3 || s.Complete != 2 || s.TotalTokens != 2400 {
		t.Errorf("summary = %+v", s)
	}
	if s.MeanTokens != 1200 || s.MeanProcessingMS != 100 || s.MeanImageKB != 1 {
		t.Errorf("means = %+v", s)
	}
	if !near(s.TotalCost, 0.00054) {
		t.Errorf("total cost = %v", s.TotalCost)
	}
}

func TestWriteXLSX(t *testing.T) {
	metrics, err := Analyze(fixture(t), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	data, err := NewReporter(DefaultPricing, quietLogger()).WriteXLSX(metrics)
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("report is not a valid workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != metricsSheet || sheets[1] != chartsSheet {
		t.Errorf("sheets = %v", sheets)
	}
	rows, err := f.GetRows(metricsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want header + 4", len(rows))
	}
	if rows[0][0] != "File" || rows[1][0] != "bank_statement_1.pdf" {
		t.Errorf("first rows = %v / %v", rows[0], rows[1])
	}
	if v, _ := f.GetCellValue(metricsSheet, "C2"); v != "4" {
		t.Errorf("C2 (KB) = %q", v)
	}
	if v, _ := f.GetCellValue(metricsSheet, "K5"); v != "req_a" {
		t.Errorf("K5 (request id) = %q", v)
	}
	if v, _ := f.GetCellValue(summarySheet, "B2"); v != "2" {
		t.Errorf("complete count = %q", v)
	}
}

func TestWriteXLSXWithoutCompleteRows(t *testing.T) {
	data, err := NewReporter(DefaultPricing, quietLogger()).WriteXLSX([]Metric{{FileName: "a.png"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("empty workbook")
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-12 }
