// Package app wires the components the binaries share from a Config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/joseph-ayodele/doc-classifier/internal/artifacts"
	"github.com/joseph-ayodele/doc-classifier/internal/cassette"
	"github.com/joseph-ayodele/doc-classifier/internal/classify"
	"github.com/joseph-ayodele/doc-classifier/internal/common"
	"github.com/joseph-ayodele/doc-classifier/internal/llm/openai"
	"github.com/joseph-ayodele/doc-classifier/internal/normalize"
	"github.com/joseph-ayodele/doc-classifier/internal/raster"
)

type App struct {
	Config     *common.Config
	Logger     *slog.Logger
	Normalizer *normalize.Normalizer
	Store      artifacts.Store
	Classifier *openai.Client   // nil unless built with the classifier
	Service    *classify.Service // nil unless built with the classifier
	Cassettes  cassette.Mode
}

// NewNormalizer builds the normalizer with the configured rasterizer. When
// the rasterizer is unavailable the normalizer still serves images and
// reports PDFs as rasterization failures.
func NewNormalizer(cfg common.NormalizeConfig, logger *slog.Logger) *normalize.Normalizer {
	var r normalize.Rasterizer
	backend, err := raster.New(cfg.Rasterizer, cfg.PdftoppmPath, logger)
	if err != nil {
		logger.Warn("app.rasterizer.unavailable", "rasterizer", cfg.Rasterizer, "error", err)
	} else {
		r = backend
	}
	return normalize.NewNormalizer(normalize.Config{
		DPI:         cfg.DPI,
		JPEGQuality: cfg.JPEGQuality,
		Workers:     cfg.Workers,
		MaxPages:    cfg.MaxPages,
	}, r, logger)
}

// Build validates cfg and wires the pipeline. The classifier is only
// built when withClassifier is set, so normalize-only tools run without
// credentials.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger, withClassifier bool) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := cassette.ParseMode(cfg.Cassette.Mode)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:     cfg,
		Logger:     logger,
		Normalizer: NewNormalizer(cfg.Normalize, logger),
		Cassettes:  mode,
	}

	a.Store, err = artifacts.New(ctx, cfg.Artifacts, logger)
	if err != nil {
		return nil, fmt.Errorf("artifact store: %w", err)
	}

	if !withClassifier {
		return a, nil
	}
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	oc := openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		ImageDetail: cfg.LLM.ImageDetail,
		Lenient:     cfg.LLM.Lenient,
	}
	if mode != cassette.ModeDisabled {
		oc.Transport = &cassette.Transport{}
	}
	a.Classifier, err = openai.NewClient(oc, logger)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	a.Service = classify.NewService(a.Normalizer, a.Classifier, a.Store, logger)
	logger.Info("app.ready",
		"model", a.Classifier.Model(),
		"rasterizer", cfg.Normalize.Rasterizer,
		"artifacts", cfg.Artifacts.Store,
		"cassettes", mode,
	)
	return a, nil
}

// CassetteContext attaches the cassette for path to ctx, one cassette per
// input file under the configured cassette directory. It is a no-op when
// cassettes are disabled.
func (a *App) CassetteContext(ctx context.Context, path string) (context.Context, error) {
	if a.Cassettes == cassette.ModeDisabled {
		return ctx, nil
	}
	rec, err := cassette.Open(cassette.PathFor(a.Config.Cassette.Dir, filepath.Base(path)), a.Cassettes, a.Logger)
	if err != nil {
		return nil, err
	}
	return cassette.WithRecorder(ctx, rec), nil
}
