package analysis

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	metricsSheet = "Metrics"
	chartsSheet  = "Charts"
	summarySheet = "Summary"
)

// costAxisMax keeps both cost charts on the same scale.
const costAxisMax = 0.0075

// Reporter renders metrics as an XLSX workbook with scatter charts.
type Reporter struct {
	pricing Pricing
	logger  *slog.Logger
}

func NewReporter(p Pricing, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{pricing: p, logger: logger}
}

var headers = []string{
	"File",
	"Image Bytes",
	"Image KB",
	"Prompt Tokens",
	"Completion Tokens",
	"Total Tokens",
	"Total Tokens (K)",
	"Processing ms",
	"Cost ($)",
	"Batch Cost ($)",
	"Request ID",
}

// WriteXLSX returns the workbook bytes. Metrics are written in the order
// given; rows of the same file should be adjacent so each file becomes one
// chart series.
func (r *Reporter) WriteXLSX(metrics []Metric) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", metricsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{chartsSheet, summarySheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(metricsSheet, cell, h)
	}

	type span struct {
		name       string
		first, end int
	}
	var spans []span

	row := 2
	for _, m := range metrics {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(metricsSheet, cell, v)
		}
		write(1, m.FileName)
		if m.HasImageSize {
			write(2, m.ImageSizeBytes)
			write(3, round(m.ImageSizeKB(), 2))
		}
		if m.HasUsage {
			c := r.pricing.Cost(m)
			write(4, m.PromptTokens)
			write(5, m.CompletionTokens)
			write(6, m.TotalTokens)
			write(7, round(float64(m.TotalTokens)/1000, 3))
			write(9, c.Total())
			write(10, c.BatchTotal())
		}
		if m.HasProcessing {
			write(8, m.ProcessingMS)
		}
		write(11, m.RequestID)

		if m.Complete() {
			if n := len(spans); n > 0 && spans[n-1].name == m.FileName && spans[n-1].end == row-1 {
				spans[n-1].end = row
			} else {
				spans = append(spans, span{name: m.FileName, first: row, end: row})
			}
		}
		row++
	}

	_ = f.SetColWidth(metricsSheet, "A", "A", 32)
	_ = f.SetColWidth(metricsSheet, "B", "J", 16)
	_ = f.SetColWidth(metricsSheet, "K", "K", 40)

	if len(spans) > 0 {
		charts := []struct {
			cell   string
			title  string
			yTitle string
			col    string
			costly bool
		}{
			{"A1", "Total Request Tokens vs. JPEG File Size", "Total Request Tokens (Thousands)", "G", false},
			{"K1", "Processing Time vs. JPEG File Size", "Processing Time (ms)", "H", false},
			{"A23", "Normal API Cost vs. JPEG File Size", "Normal API Cost ($)", "I", true},
			{"K23", "Batch API Cost vs. JPEG File Size", "Batch API Cost ($)", "J", true},
		}
		for _, c := range charts {
			series := make([]excelize.ChartSeries, 0, len(spans))
			for _, s := range spans {
				series = append(series, excelize.ChartSeries{
					Name:       fmt.Sprintf("%s!$A$%d", metricsSheet, s.first),
					Categories: fmt.Sprintf("%s!$C$%d:$C$%d", metricsSheet, s.first, s.end),
					Values:     fmt.Sprintf("%s!$%s$%d:$%s$%d", metricsSheet, c.col, s.first, c.col, s.end),
					Marker:     excelize.ChartMarker{Symbol: "circle", Size: 8},
					Line:       excelize.ChartLine{Type: excelize.ChartLineNone},
				})
			}
			yAxis := excelize.ChartAxis{
				Title:          []excelize.RichTextRun{{Text: c.yTitle}},
				MajorGridLines: true,
			}
			if c.costly {
				lo, hi := 0.0, costAxisMax
				yAxis.Minimum, yAxis.Maximum = &lo, &hi
			}
			chart := &excelize.Chart{
				Type:   excelize.Scatter,
				Series: series,
				Title:  []excelize.RichTextRun{{Text: c.title}},
				XAxis: excelize.ChartAxis{
					Title:          []excelize.RichTextRun{{Text: "JPEG File Size (KB)"}},
					MajorGridLines: true,
				},
				YAxis:     yAxis,
				Legend:    excelize.ChartLegend{Position: "right"},
				Dimension: excelize.ChartDimension{Width: 720, Height: 420},
			}
			if err := f.AddChart(chartsSheet, c.cell, chart); err != nil {
				return nil, fmt.Errorf("add chart %q: %w", c.title, err)
			}
		}
	}

	s := Summarize(metrics, r.pricing)
	summary := [][2]any{
		{"Interactions", s.Interactions},
		{"Complete", s.Complete},
		{"Total tokens", s.TotalTokens},
		{"Mean tokens", round(s.MeanTokens, 1)},
		{"Mean processing ms", round(s.MeanProcessingMS, 1)},
		{"Mean image KB", round(s.MeanImageKB, 2)},
		{"Total cost ($)", s.TotalCost},
		{"Total batch cost ($)", s.TotalBatchCost},
	}
	for i, kv := range summary {
		_ = f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &[]any{kv[0], kv[1]})
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 24)

	idx, _ := f.GetSheetIndex(metricsSheet)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	r.logger.Info("analysis.xlsx.ok",
		"rows", len(metrics),
		"series", len(spans),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func round(v float64, places int) float64 {
	p := 1.0
	for i := 0; i < places; i++ {
		p *= 10
	}
	return float64(int64(v*p+0.5)) / p
}
