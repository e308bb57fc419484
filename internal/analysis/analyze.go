// Package analysis summarizes recorded classifier calls: token usage,
// latency and estimated cost against the size of the image that was sent.
package analysis

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/doc-classifier/internal/cassette"
)

// Metric is one recorded API interaction.
type Metric struct {
	FileName         string // cassette name without .yaml, i.e. the input file name
	ImageSizeBytes   int64
	HasImageSize     bool
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	HasUsage         bool
	ProcessingMS     int64
	HasProcessing    bool
	RequestID        string
}

// ImageSizeKB is the image size in KiB.
func (m Metric) ImageSizeKB() float64 { return float64(m.ImageSizeBytes) / 1024 }

// Complete reports whether the metric has every field the charts need.
func (m Metric) Complete() bool { return m.HasImageSize && m.HasUsage && m.HasProcessing }

type Options struct {
	CassettesDir string
	FilesDir     string // original uploads
	ConvertedDir string // stitched JPEGs written for PDFs
}

// Analyze reads every *.yaml cassette in opts.CassettesDir, sorted by name.
func Analyze(opts Options, logger *slog.Logger) ([]Metric, error) {
	if logger == nil {
		logger = slog.Default()
	}
	paths, err := filepath.Glob(filepath.Join(opts.CassettesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("glob cassettes: %w", err)
	}
	sort.Strings(paths)

	var metrics []Metric
	for _, p := range paths {
		c, err := cassette.Load(p)
		if err != nil {
			logger.Warn("analysis.cassette.skip", "path", p, "error", err)
			continue
		}
		name := strings.TrimSuffix(filepath.Base(p), ".yaml")
		size, hasSize := imageSize(opts, name)
		for i, in := range c.Interactions {
			m := Metric{
				FileName:       name,
				ImageSizeBytes: size,
				HasImageSize:   hasSize,
				RequestID:      in.Response.Headers.Get("x-request-id"),
			}
			if v := in.Response.Headers.Get("openai-processing-ms"); v != "" {
				if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
					m.ProcessingMS, m.HasProcessing = ms, true
				}
			}
			if in.Response.Body.String != "" {
				if err := fillUsage(&m, in.Response.Body.String); err != nil {
					logger.Warn("analysis.body.unparsed", "path", p, "interaction", i, "error", err)
				}
			}
			metrics = append(metrics, m)
		}
	}
	logger.Info("analysis.ok", "cassettes", len(paths), "interactions", len(metrics))
	return metrics, nil
}

func fillUsage(m *Metric, body string) error {
	raw, err := cassette.DecodeBody(body)
	if err != nil {
		return err
	}
	var resp struct {
		Usage *struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	if resp.Usage != nil {
		m.PromptTokens = resp.Usage.PromptTokens
		m.CompletionTokens = resp.Usage.CompletionTokens
		m.TotalTokens = resp.Usage.TotalTokens
		m.HasUsage = true
	}
	return nil
}

// imageSize finds the image that was sent for name: the converted JPEG for
// PDFs, the original file otherwise.
func imageSize(opts Options, name string) (int64, bool) {
	path := filepath.Join(opts.FilesDir, name)
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		path = filepath.Join(opts.ConvertedDir, strings.TrimSuffix(name, filepath.Ext(name))+".jpg")
	}
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return 0, false
	}
	return st.Size(), true
}
