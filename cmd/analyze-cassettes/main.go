package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/joseph-ayodele/doc-classifier/internal/analysis"
	"github.com/joseph-ayodele/doc-classifier/internal/common"
)

func main() {
	var (
		cassettes = flag.String("cassettes", "cassettes", "directory of recorded cassettes")
		files     = flag.String("files", "files", "directory of the original inputs")
		converted = flag.String("converted", "output_images", "directory of the stitched JPEGs written for PDFs")
		xlsx      = flag.String("xlsx", "", "also write an XLSX report with charts to this path")
	)
	flag.Parse()

	cfg := common.LoadConfig()
	logger := common.NewCLILogger(cfg.Log.Level, cfg.Log.Format)

	metrics, err := analysis.Analyze(analysis.Options{
		CassettesDir: *cassettes,
		FilesDir:     *files,
		ConvertedDir: *converted,
	}, logger)
	if err != nil {
		logger.Error("analysis.failed", "error", err)
		os.Exit(1)
	}
	if len(metrics) == 0 {
		fmt.Fprintf(os.Stderr, "no interactions found in %s\n", *cassettes)
		os.Exit(1)
	}

	p := analysis.DefaultPricing
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"File", "Image", "Prompt", "Completion", "Total", "ms", "Cost $", "Batch $"})
	table.SetAutoWrapText(false)
	for _, m := range metrics {
		row := []string{m.FileName, "-", "-", "-", "-", "-", "-", "-"}
		if m.HasImageSize {
			row[1] = humanize.IBytes(uint64(m.ImageSizeBytes))
		}
		if m.HasUsage {
			c := p.Cost(m)
			row[2] = strconv.Itoa(m.PromptTokens)
			row[3] = strconv.Itoa(m.CompletionTokens)
			row[4] = strconv.Itoa(m.TotalTokens)
			row[6] = fmt.Sprintf("%.6f", c.Total())
			row[7] = fmt.Sprintf("%.6f", c.BatchTotal())
		}
		if m.HasProcessing {
			row[5] = strconv.FormatInt(m.ProcessingMS, 10)
		}
		table.Append(row)
	}
	s := analysis.Summarize(metrics, p)
	table.SetFooter([]string{
		fmt.Sprintf("%d/%d complete", s.Complete, s.Interactions), "", "", "",
		humanize.Comma(int64(s.TotalTokens)), fmt.Sprintf("%.0f avg", s.MeanProcessingMS),
		fmt.Sprintf("%.6f", s.TotalCost), fmt.Sprintf("%.6f", s.TotalBatchCost),
	})
	table.Render()

	if *xlsx != "" {
		data, err := analysis.NewReporter(p, logger).WriteXLSX(metrics)
		if err != nil {
			logger.Error("analysis.xlsx.failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsx, data, 0o644); err != nil {
			logger.Error("analysis.xlsx.write_failed", "path", *xlsx, "error", err)
			os.Exit(1)
		}
		fmt.Printf("report written to %s (%s)\n", *xlsx, humanize.Bytes(uint64(len(data))))
	}
}
