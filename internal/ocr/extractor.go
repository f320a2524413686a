package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"invoiceai/internal/config"
	"invoiceai/internal/domain"
	"invoiceai/pkg/logger"
)

// PageBreak separates the text of consecutive PDF pages.
const PageBreak = "\n\n--- PAGE BREAK ---\n\n"

// Extractor converts an image or PDF document into cleaned text.
// It holds no per-request state and is safe for concurrent use.
type Extractor struct {
	recognizer Recognizer
	rasterizer Rasterizer
	enhance    bool
	maxPages   int
	workDir    string
	logger     *slog.Logger
}

// NewExtractor builds an Extractor backed by tesseract and pdftoppm.
func NewExtractor(cfg *config.OCRConfig, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	runner := execRunner{logger: log}
	return NewExtractorWithEngines(
		NewTesseract(cfg.Tesseract, cfg.Language, runner),
		NewPdftoppm(cfg.Pdftoppm, cfg.DPI, runner),
		cfg, log,
	)
}

// NewExtractorWithEngines builds an Extractor around the given engines (for testing
// or alternative engines with the same contract).
func NewExtractorWithEngines(rec Recognizer, ras Rasterizer, cfg *config.OCRConfig, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{
		recognizer: rec,
		rasterizer: ras,
		enhance:    cfg.Enhance,
		maxPages:   cfg.MaxPages,
		workDir:    cfg.WorkDir,
		logger:     log,
	}
}

// Extract recognizes the document at path and returns its cleaned text.
func (e *Extractor) Extract(ctx context.Context, path string, kind domain.FileType) (string, error) {
	log := logger.FromContext(ctx, e.logger)
	start := time.Now()
	log.Debug("ocr.extract.start", "path", path, "kind", kind)

	var (
		raw string
		err error
	)
	switch {
	case kind == domain.FileTypePDF:
		raw, err = e.extractPDF(ctx, path)
	case kind.IsImage():
		raw, err = e.recognizeImage(ctx, path)
		if err != nil {
			err = domain.NewExtractionFailure("failed to extract text from image", err)
		}
	default:
		log.Error("ocr.extract.unsupported", "kind", kind)
		return "", domain.NewUnsupportedFormat(string(kind))
	}
	if err != nil {
		log.Error("ocr.extract.failed", "kind", kind, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}

	text := Clean(raw)
	log.Info("ocr.extract.ok",
		"kind", kind,
		"raw_chars", len(raw),
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (string, error) {
	pages, err := e.rasterizer.PageCount(path)
	if err != nil {
		return "", domain.NewExtractionFailure("failed to extract text from PDF", err)
	}
	if pages == 0 {
		return "", domain.NewExtractionFailure("failed to extract text from PDF", errors.New("document has no pages"))
	}
	if e.maxPages > 0 && pages > e.maxPages {
		e.logger.Warn("ocr.pdf.pages_capped", "pages", pages, "max_pages", e.maxPages)
		pages = e.maxPages
	}

	scratch, err := os.MkdirTemp(e.workDir, "invoiceai-pages-*")
	if err != nil {
		return "", domain.NewExtractionFailure("failed to extract text from PDF", fmt.Errorf("creating page directory: %w", err))
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			e.logger.Warn("ocr.pdf.cleanup_failed", "dir", scratch, "error", rmErr)
		}
	}()

	texts := make([]string, 0, pages)
	for page := 1; page <= pages; page++ {
		txt, err := e.extractPage(ctx, path, page, scratch)
		if err != nil {
			return "", domain.NewExtractionFailure("failed to extract text from PDF", err)
		}
		texts = append(texts, txt)
	}
	return strings.Join(texts, PageBreak), nil
}

// extractPage rasterizes a single page, recognizes it and deletes the image
// before returning, whatever the outcome.
func (e *Extractor) extractPage(ctx context.Context, pdfPath string, page int, dir string) (string, error) {
	img, err := e.rasterizer.RenderPage(ctx, pdfPath, page, dir)
	if err != nil {
		return "", err
	}
	defer e.removeQuietly(ctx, img)

	txt, err := e.recognizeImage(ctx, img)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", page, err)
	}
	return txt, nil
}

func (e *Extractor) recognizeImage(ctx context.Context, path string) (string, error) {
	if e.enhance {
		enhanced, err := e.enhanceCopy(ctx, path)
		if err != nil {
			e.logger.Warn("ocr.enhance.failed", "path", path, "error", err)
		} else {
			defer e.removeQuietly(ctx, enhanced)
			path = enhanced
		}
	}

	frags, err := e.recognizer.Recognize(ctx, path)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(frags))
	for _, f := range frags {
		lines = append(lines, f.Text)
	}
	return strings.Join(lines, "\n"), nil
}

func (e *Extractor) enhanceCopy(ctx context.Context, path string) (string, error) {
	f, err := os.CreateTemp(e.workDir, "invoiceai-enhanced-*.png")
	if err != nil {
		return "", err
	}
	out := f.Name()
	_ = f.Close()

	if err := EnhanceImage(path, out); err != nil {
		e.removeQuietly(ctx, out)
		return "", err
	}
	return out, nil
}

func (e *Extractor) removeQuietly(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.FromContext(ctx, e.logger).Warn("ocr.cleanup_failed", "path", filepath.Base(path), "error", err)
	}
}
