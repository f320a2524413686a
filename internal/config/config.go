package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	CORS       CORSConfig
	Upload     UploadConfig
	Completion CompletionConfig
	OCR        OCRConfig
	Reconcile  ReconcileConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	FrontendDir  string        `mapstructure:"frontend_dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// UploadConfig holds limits for incoming documents.
type UploadConfig struct {
	Dir               string   `mapstructure:"dir"`
	MaxFileSizeMB     int64    `mapstructure:"max_file_size_mb"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// MaxBytes returns the upload limit in bytes.
func (u *UploadConfig) MaxBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// CompletionConfig holds settings for the language-model completion endpoint.
type CompletionConfig struct {
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
}

// OCRConfig holds settings for the recognition engine and rasterizer.
type OCRConfig struct {
	Tesseract string `mapstructure:"tesseract"`
	Pdftoppm  string `mapstructure:"pdftoppm"`
	Language  string `mapstructure:"language"`
	DPI       int    `mapstructure:"dpi"`
	MaxPages  int    `mapstructure:"max_pages"`
	Enhance   bool   `mapstructure:"enhance"`
	WorkDir   string `mapstructure:"work_dir"`
}

// ReconcileConfig controls the advisory arithmetic check on extracted invoices.
type ReconcileConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Tolerance float64 `mapstructure:"tolerance"`
}

// Validate reports whether the configuration is usable for extraction.
// A failure here degrades the service instead of stopping it.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Completion.APIKey) == "" {
		return errors.New("INVOICEAI_COMPLETION_API_KEY not found in environment variables")
	}
	return nil
}

// Load reads configuration from a .env file (if present) and environment
// variables with the INVOICEAI_ prefix.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("INVOICEAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.frontend_dir", "frontend")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://localhost:8000,http://127.0.0.1:3000,http://127.0.0.1:8000,http://localhost:5500,http://127.0.0.1:5500")

	// Upload defaults
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_file_size_mb", 10)
	v.SetDefault("upload.allowed_extensions", "pdf,jpg,jpeg,png")

	// Completion defaults
	v.SetDefault("completion.provider", "cerebras")
	v.SetDefault("completion.api_key", "")
	v.SetDefault("completion.base_url", "")
	v.SetDefault("completion.model", "")
	v.SetDefault("completion.temperature", 0.1)
	v.SetDefault("completion.max_tokens", 2000)
	v.SetDefault("completion.timeout_secs", 60)

	// OCR defaults
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.dpi", 200)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.enhance", false)
	v.SetDefault("ocr.work_dir", "")

	// Reconcile defaults
	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.tolerance", 0.01)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "INVOICEAI_SERVER_PORT",
		"server.read_timeout":       "INVOICEAI_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "INVOICEAI_SERVER_WRITE_TIMEOUT",
		"server.environment":        "INVOICEAI_SERVER_ENVIRONMENT",
		"server.frontend_dir":       "INVOICEAI_SERVER_FRONTEND_DIR",
		"log.level":                 "INVOICEAI_LOG_LEVEL",
		"log.format":                "INVOICEAI_LOG_FORMAT",
		"cors.allowed_origins":      "INVOICEAI_CORS_ALLOWED_ORIGINS",
		"upload.dir":                "INVOICEAI_UPLOAD_DIR",
		"upload.max_file_size_mb":   "INVOICEAI_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.allowed_extensions": "INVOICEAI_UPLOAD_ALLOWED_EXTENSIONS",
		"completion.provider":       "INVOICEAI_COMPLETION_PROVIDER",
		"completion.api_key":        "INVOICEAI_COMPLETION_API_KEY",
		"completion.base_url":       "INVOICEAI_COMPLETION_BASE_URL",
		"completion.model":          "INVOICEAI_COMPLETION_MODEL",
		"completion.temperature":    "INVOICEAI_COMPLETION_TEMPERATURE",
		"completion.max_tokens":     "INVOICEAI_COMPLETION_MAX_TOKENS",
		"completion.timeout_secs":   "INVOICEAI_COMPLETION_TIMEOUT_SECS",
		"ocr.tesseract":             "INVOICEAI_OCR_TESSERACT",
		"ocr.pdftoppm":              "INVOICEAI_OCR_PDFTOPPM",
		"ocr.language":              "INVOICEAI_OCR_LANGUAGE",
		"ocr.dpi":                   "INVOICEAI_OCR_DPI",
		"ocr.max_pages":             "INVOICEAI_OCR_MAX_PAGES",
		"ocr.enhance":               "INVOICEAI_OCR_ENHANCE",
		"ocr.work_dir":              "INVOICEAI_OCR_WORK_DIR",
		"reconcile.enabled":         "INVOICEAI_RECONCILE_ENABLED",
		"reconcile.tolerance":       "INVOICEAI_RECONCILE_TOLERANCE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if INVOICEAI_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("INVOICEAI_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		FrontendDir:  v.GetString("server.frontend_dir"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	var exts []string
	for _, e := range splitList(v.GetString("upload.allowed_extensions")) {
		exts = append(exts, strings.ToLower(strings.TrimPrefix(e, ".")))
	}
	cfg.Upload = UploadConfig{
		Dir:               v.GetString("upload.dir"),
		MaxFileSizeMB:     v.GetInt64("upload.max_file_size_mb"),
		AllowedExtensions: exts,
	}

	cfg.Completion = CompletionConfig{
		Provider:    v.GetString("completion.provider"),
		APIKey:      v.GetString("completion.api_key"),
		BaseURL:     v.GetString("completion.base_url"),
		Model:       v.GetString("completion.model"),
		Temperature: v.GetFloat64("completion.temperature"),
		MaxTokens:   v.GetInt("completion.max_tokens"),
		TimeoutSecs: v.GetInt("completion.timeout_secs"),
	}

	cfg.OCR = OCRConfig{
		Tesseract: v.GetString("ocr.tesseract"),
		Pdftoppm:  v.GetString("ocr.pdftoppm"),
		Language:  v.GetString("ocr.language"),
		DPI:       v.GetInt("ocr.dpi"),
		MaxPages:  v.GetInt("ocr.max_pages"),
		Enhance:   v.GetBool("ocr.enhance"),
		WorkDir:   v.GetString("ocr.work_dir"),
	}

	cfg.Reconcile = ReconcileConfig{
		Enabled:   v.GetBool("reconcile.enabled"),
		Tolerance: v.GetFloat64("reconcile.tolerance"),
	}

	if cfg.Upload.MaxFileSizeMB <= 0 {
		return nil, fmt.Errorf("upload.max_file_size_mb must be positive, got %d", cfg.Upload.MaxFileSizeMB)
	}

	return cfg, nil
}

// splitList parses a comma-separated setting, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
