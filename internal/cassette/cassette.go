// Package cassette records HTTP interactions to YAML files and replays them,
// in the layout vcrpy uses, so classifier runs can be repeated offline.
package cassette

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrCassetteNotFound    = errors.New("cassette not found")
	ErrInteractionNotFound = errors.New("no recorded interaction matches request")
)

// Headers keeps header values as lists, keyed as recorded.
type Headers map[string][]string

// Get returns the first value for key, ignoring case.
func (h Headers) Get(key string) string {
	for k, v := range h {
		if strings.EqualFold(k, key) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

type Cassette struct {
	Interactions []Interaction `yaml:"interactions"`
	Version      int           `yaml:"version"`
}

type Interaction struct {
	Request  Request  `yaml:"request"`
	Response Response `yaml:"response"`
}

type Request struct {
	Body    string  `yaml:"body"`
	Headers Headers `yaml:"headers"`
	Method  string  `yaml:"method"`
	URI     string  `yaml:"uri"`
}

type Response struct {
	Body    Body    `yaml:"body"`
	Headers Headers `yaml:"headers"`
	Status  Status  `yaml:"status"`
}

type Body struct {
	String string `yaml:"string"`
}

type Status struct {
	Code    int    `yaml:"code"`
	Message string `yaml:"message"`
}

// PathFor returns the cassette path used for an input file: "<dir>/<base name>.yaml".
func PathFor(dir, filename string) string {
	return filepath.Join(dir, filepath.Base(filename)+".yaml")
}

// Load reads a cassette file.
func Load(path string) (*Cassette, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCassetteNotFound, path)
		}
		return nil, fmt.Errorf("read cassette: %w", err)
	}
	var c Cassette
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse cassette %s: %w", path, err)
	}
	return &c, nil
}

// Save writes the cassette, creating parent directories as needed.
func (c *Cassette) Save(path string) error {
	if c.Version == 0 {
		c.Version = 1
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cassette: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir cassette dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write cassette: %w", err)
	}
	return nil
}

// filteredHeaders are never written to disk.
var filteredHeaders = map[string]struct{}{
	"authorization":       {},
	"api-key":             {},
	"openai-organization": {},
	"openai-project":      {},
	"cookie":              {},
	"set-cookie":          {},
}

// fromHTTP copies h with lowercased keys and credentials removed.
func fromHTTP(h http.Header) Headers {
	out := make(Headers, len(h))
	for k, v := range h {
		lk := strings.ToLower(k)
		if _, skip := filteredHeaders[lk]; skip {
			continue
		}
		out[lk] = append([]string(nil), v...)
	}
	return out
}

func (h Headers) toHTTP() http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		for _, s := range v {
			out.Add(k, s)
		}
	}
	return out
}
