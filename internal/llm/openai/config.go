package openai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/doc-classifier/internal/llm"
)

// Config for the OpenAI client.
type Config struct {
	APIKey      string            // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string            // default https://api.openai.com/v1
	Model       string            // e.g., "gpt-4o-mini"
	Temperature float32           // 0..2
	Timeout     time.Duration     // http client timeout
	ImageDetail string            // auto | low | high
	Transport   http.RoundTripper // optional, e.g. a cassette recorder
	// Lenient retries schema validation after canonicalizing the answer.
	Lenient bool
}

type Client struct {
	cfg       Config
	api       *goopenai.Client
	schema    map[string]any
	validator *llm.SchemaValidator
	logger    *slog.Logger
}

var _ llm.Classifier = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = goopenai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	switch strings.ToLower(cfg.ImageDetail) {
	case "low", "high", "auto":
		cfg.ImageDetail = strings.ToLower(cfg.ImageDetail)
	default:
		cfg.ImageDetail = "auto"
	}
	if logger == nil {
		logger = slog.Default()
	}

	schema := llm.BuildDocumentAnalysisSchema()
	validator, err := llm.CompileSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("document analysis schema: %w", err)
	}

	oc := goopenai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport}

	return &Client{
		cfg:       cfg,
		api:       goopenai.NewClientWithConfig(oc),
		schema:    schema,
		validator: validator,
		logger:    logger,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
