package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"invoiceai/internal/config"
	"invoiceai/internal/domain"
	"invoiceai/internal/port"
	"invoiceai/internal/reconcile"
	"invoiceai/pkg/logger"
)

// MinTextLength is the shortest cleaned text worth sending to the model.
const MinTextLength = 10

// UploadInput is the DTO for an extraction request.
type UploadInput struct {
	File     io.Reader
	Filename string
	Size     int64
}

// ExtractionService defines the invoice extraction contract.
//
// Process returns an error only for pre-flight rejections (missing file,
// unsupported extension, unconfigured service, oversized upload). Every later
// failure is reported through a failed ResultEnvelope.
type ExtractionService interface {
	Process(ctx context.Context, input UploadInput) (*domain.ResultEnvelope, error)
}

type extractionService struct {
	text      port.TextExtractor
	invoices  port.InvoiceExtractor
	upload    config.UploadConfig
	reconcile config.ReconcileConfig
	configErr error
	allowed   map[string]domain.FileType
	logger    *slog.Logger
}

// NewExtractionService creates a new ExtractionService implementation.
// configErr is the result of validating configuration at startup; when it
// is non-nil every request is rejected with ErrServiceNotConfigured.
func NewExtractionService(
	text port.TextExtractor,
	invoices port.InvoiceExtractor,
	upload *config.UploadConfig,
	rec *config.ReconcileConfig,
	configErr error,
	log *slog.Logger,
) ExtractionService {
	if log == nil {
		log = slog.Default()
	}
	allowed := make(map[string]domain.FileType, len(upload.AllowedExtensions))
	for _, ext := range upload.AllowedExtensions {
		if kind, ok := domain.AllowedExtensions[ext]; ok {
			allowed[ext] = kind
		}
	}
	return &extractionService{
		text:      text,
		invoices:  invoices,
		upload:    *upload,
		reconcile: *rec,
		configErr: configErr,
		allowed:   allowed,
		logger:    log,
	}
}

func (s *extractionService) Process(ctx context.Context, input UploadInput) (env *domain.ResultEnvelope, err error) {
	log := logger.FromContext(ctx, s.logger)

	if input.File == nil {
		return nil, domain.ErrMissingFile
	}

	// Pre-flight: nothing is written to disk until these pass.
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Filename), "."))
	kind, ok := s.allowed[ext]
	if !ok {
		log.Warn("extract.rejected", "reason", "unsupported_extension", "filename", input.Filename)
		return nil, domain.ErrUnsupportedFileType
	}
	if s.configErr != nil {
		log.Warn("extract.rejected", "reason", "not_configured", "error", s.configErr)
		return nil, domain.ErrServiceNotConfigured
	}
	maxBytes := s.upload.MaxBytes()
	if input.Size > maxBytes {
		log.Warn("extract.rejected", "reason", "too_large", "size", input.Size, "limit", maxBytes)
		return nil, domain.ErrFileTooLarge
	}

	start := time.Now()
	path, err := s.save(input.File, ext, maxBytes)
	if errors.Is(err, domain.ErrFileTooLarge) {
		log.Warn("extract.rejected", "reason", "too_large", "limit", maxBytes)
		return nil, err
	}
	if err != nil {
		return s.fail(log, err, start), nil
	}
	defer s.remove(log, path)

	// a panicking stage still yields a failure envelope; the upload is removed after this runs
	defer func() {
		if r := recover(); r != nil {
			env, err = s.fail(log, fmt.Errorf("unexpected error during extraction: %v", r), start), nil
		}
	}()

	log.Info("extract.start",
		"filename", input.Filename,
		"file_type", kind,
		"content_type", domain.AllowedFileTypes[kind],
	)

	text, err := s.text.Extract(ctx, path, kind)
	if err != nil {
		return s.fail(log, err, start), nil
	}

	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < MinTextLength {
		return s.fail(log, domain.NewInsufficientContent(n), start), nil
	}

	record, err := s.invoices.ExtractInvoice(ctx, text)
	if err != nil {
		return s.fail(log, err, start), nil
	}

	env = domain.NewSuccessEnvelope(record, text)
	if s.reconcile.Enabled {
		if ds := reconcile.Check(record, s.reconcile.Tolerance); len(ds) > 0 {
			env.Warnings = reconcile.Messages(ds)
			log.Warn("extract.reconcile.mismatch", "count", len(ds), "warnings", env.Warnings)
		}
	}

	log.Info("extract.ok",
		"text_len", len(text),
		"line_items", len(record.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return env, nil
}

// save writes the upload to {dir}/{uuid}{ext}, reading at most limit+1 bytes
// so an undeclared oversize body is still caught.
func (s *extractionService) save(r io.Reader, ext string, limit int64) (string, error) {
	if err := os.MkdirAll(s.upload.Dir, 0o750); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	path := filepath.Join(s.upload.Dir, uuid.New().String()+"."+ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}

	n, copyErr := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("saving upload: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("saving upload: %w", closeErr)
	case n > limit:
		_ = os.Remove(path)
		return "", domain.ErrFileTooLarge
	}
	return path, nil
}

func (s *extractionService) remove(log *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Error("extract.cleanup.failed", "path", path, "error", err)
	}
}

func (s *extractionService) fail(log *slog.Logger, err error, start time.Time) *domain.ResultEnvelope {
	log.Error("extract.failed",
		"kind", domain.KindOf(err),
		"error", err,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return domain.NewFailureEnvelope(err)
}
