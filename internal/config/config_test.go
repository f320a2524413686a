package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceai/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INVOICEAI_COMPLETION_API_KEY", "")
	t.Setenv("PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.Equal(t, int64(10), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxBytes())
	assert.Equal(t, []string{"pdf", "jpg", "jpeg", "png"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, "cerebras", cfg.Completion.Provider)
	assert.InDelta(t, 0.1, cfg.Completion.Temperature, 1e-9)
	assert.Equal(t, 2000, cfg.Completion.MaxTokens)
	assert.Equal(t, 60, cfg.Completion.TimeoutSecs)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 200, cfg.OCR.DPI)
	assert.True(t, cfg.Reconcile.Enabled)
	assert.Contains(t, cfg.CORS.AllowedOrigins, "http://localhost:3000")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INVOICEAI_COMPLETION_API_KEY", "csk-test")
	t.Setenv("INVOICEAI_COMPLETION_MODEL", "llama-3.3-70b")
	t.Setenv("INVOICEAI_UPLOAD_MAX_FILE_SIZE_MB", "5")
	t.Setenv("INVOICEAI_UPLOAD_ALLOWED_EXTENSIONS", ".PDF, png")
	t.Setenv("INVOICEAI_CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("INVOICEAI_OCR_ENHANCE", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "csk-test", cfg.Completion.APIKey)
	assert.Equal(t, "llama-3.3-70b", cfg.Completion.Model)
	assert.Equal(t, int64(5), cfg.Upload.MaxFileSizeMB)
	assert.Equal(t, []string{"pdf", "png"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.OCR.Enhance)
}

func TestLoad_PlatformPort(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("INVOICEAI_SERVER_PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)
}

func TestLoad_RejectsNonPositiveUploadLimit(t *testing.T) {
	t.Setenv("INVOICEAI_UPLOAD_MAX_FILE_SIZE_MB", "0")

	cfg, err := config.Load()
	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := &config.Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY")

	cfg.Completion.APIKey = "csk-test"
	assert.NoError(t, cfg.Validate())
}
