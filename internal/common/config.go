package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Normalize NormalizeConfig
	LLM       LLMConfig
	Server    ServerConfig
	Artifacts ArtifactsConfig
	Cassette  CassetteConfig
	Log       LogConfig
}

// NormalizeConfig holds document normalization settings
type NormalizeConfig struct {
	DPI          int
	JPEGQuality  int
	Workers      int
	MaxPages     int
	Rasterizer   string // fitz | poppler
	PdftoppmPath string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	ImageDetail string
	Lenient     bool // canonicalize near-miss answers before schema validation
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string
	GRPCAddr        string
	MaxUploadMB     int
	RateLimitPerMin int
	ShutdownTimeout time.Duration
}

// ArtifactsConfig selects where converted images are kept, if anywhere
type ArtifactsConfig struct {
	Store       string // none | fs | s3
	Dir         string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool
}

// CassetteConfig controls HTTP interaction recording for the classifier
type CassetteConfig struct {
	Dir  string
	Mode string // disabled | once | replay | record
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables, after merging
// a .env file from the working directory when one exists.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Normalize: NormalizeConfig{
			DPI:          getEnvAsInt("NORMALIZE_DPI", 200),
			JPEGQuality:  getEnvAsInt("NORMALIZE_JPEG_QUALITY", 90),
			Workers:      getEnvAsInt("NORMALIZE_WORKERS", 1),
			MaxPages:     getEnvAsInt("NORMALIZE_MAX_PAGES", 0),
			Rasterizer:   strings.ToLower(getEnv("RASTERIZER", "fitz")),
			PdftoppmPath: getEnv("PDFTOPPM_PATH", "pdftoppm"),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			ImageDetail: getEnv("OPENAI_IMAGE_DETAIL", "auto"),
			Lenient:     getEnvAsBool("OPENAI_LENIENT", false),
		},
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:        getEnv("GRPC_ADDR", ":9090"),
			MaxUploadMB:     getEnvAsInt("MAX_UPLOAD_MB", 20),
			RateLimitPerMin: getEnvAsInt("RATE_LIMIT_PER_MIN", 60),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Artifacts: ArtifactsConfig{
			Store:       strings.ToLower(getEnv("ARTIFACT_STORE", "none")),
			Dir:         getEnv("ARTIFACT_DIR", "output_images"),
			S3Endpoint:  getEnv("S3_ENDPOINT", ""),
			S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey: getEnv("S3_SECRET_KEY", ""),
			S3Bucket:    getEnv("S3_BUCKET", ""),
			S3Region:    getEnv("S3_REGION", "us-east-1"),
			S3UseSSL:    getEnvAsBool("S3_USE_SSL", true),
		},
		Cassette: CassetteConfig{
			Dir:  getEnv("CASSETTE_DIR", ""),
			Mode: strings.ToLower(getEnv("CASSETTE_MODE", "disabled")),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the settings every binary depends on. Classifier
// credentials are checked separately by RequireLLM since the normalize
// tooling runs without them.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("NORMALIZE_DPI", c.Normalize.DPI, IntRange(1, 1200)).
		Field("NORMALIZE_JPEG_QUALITY", c.Normalize.JPEGQuality, IntRange(1, 100)).
		Field("NORMALIZE_WORKERS", c.Normalize.Workers, IntRange(1, 64)).
		Field("NORMALIZE_MAX_PAGES", c.Normalize.MaxPages, IntRange(0, 10000)).
		Field("RASTERIZER", c.Normalize.Rasterizer, OneOf("fitz", "poppler")).
		Field("ARTIFACT_STORE", c.Artifacts.Store, OneOf("none", "fs", "s3")).
		Field("CASSETTE_MODE", c.Cassette.Mode, OneOf("disabled", "once", "replay", "record"))

	if c.Artifacts.Store == "s3" {
		v.Field("S3_ENDPOINT", c.Artifacts.S3Endpoint, Required).
			Field("S3_BUCKET", c.Artifacts.S3Bucket, Required)
	}
	if c.Cassette.Mode != "disabled" {
		v.Field("CASSETTE_DIR", c.Cassette.Dir, Required)
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// RequireLLM validates the classifier settings.
func (c *Config) RequireLLM() error {
	// replayed cassettes never reach the network, so no key is needed
	if c.Cassette.Mode == "replay" {
		return nil
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}
