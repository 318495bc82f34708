package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/docsplit/internal/chapter"
	"github.com/dgallion1/docsplit/internal/document"
	"github.com/dgallion1/docsplit/internal/logger"
)

type Config struct {
	// Splitting
	PDFEngine            string
	PDFFallbackPdftotext bool
	Dedupe               bool
	RangePolicy          chapter.RangePolicy

	// Logging
	LogLevel  string
	LogFormat string

	// Server
	Port       string
	APIKey     string
	OutputRoot string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration
}

func Load() Config {
	cfg := Config{
		PDFEngine:            envOr("DOCSPLIT_PDF_ENGINE", document.EngineNative),
		PDFFallbackPdftotext: envBool("DOCSPLIT_PDF_FALLBACK_PDFTOTEXT", true),
		Dedupe:               envBool("DOCSPLIT_DEDUPE", false),
		RangePolicy:          chapter.RangePolicy(envOr("DOCSPLIT_RANGE_POLICY", string(chapter.RangesAccept))),

		LogLevel:  envOr("DOCSPLIT_LOG_LEVEL", "info"),
		LogFormat: envOr("DOCSPLIT_LOG_FORMAT", "text"),

		Port:       envOr("PORT", "8090"),
		APIKey:     os.Getenv("DOCSPLIT_API_KEY"),
		OutputRoot: envOr("DOCSPLIT_OUTPUT_ROOT", "./exports"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings both binaries use and normalizes the
// engine and range policy names.
func (c *Config) Validate() error {
	engine, err := document.ParseEngine(c.PDFEngine)
	if err != nil {
		return fmt.Errorf("DOCSPLIT_PDF_ENGINE: %w", err)
	}
	c.PDFEngine = engine

	policy, err := chapter.ParseRangePolicy(string(c.RangePolicy))
	if err != nil {
		return fmt.Errorf("DOCSPLIT_RANGE_POLICY: %w", err)
	}
	c.RangePolicy = policy

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("DOCSPLIT_LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("DOCSPLIT_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ValidateServer adds the checks only the HTTP service needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("DOCSPLIT_API_KEY is required")
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("DOCSPLIT_OUTPUT_ROOT is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
