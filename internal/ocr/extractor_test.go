package ocr_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceai/internal/config"
	"invoiceai/internal/domain"
	"invoiceai/internal/ocr"
	"invoiceai/pkg/logger"
)

// fakeRecognizer returns canned fragments per image and records which images
// existed at the time they were recognized.
type fakeRecognizer struct {
	byPage  map[string][]ocr.Fragment
	failOn  string
	seen    []string
	existed []bool
}

func (f *fakeRecognizer) Recognize(_ context.Context, path string) ([]ocr.Fragment, error) {
	f.seen = append(f.seen, path)
	_, err := os.Stat(path)
	f.existed = append(f.existed, err == nil)
	base := filepath.Base(path)
	if base == f.failOn {
		return nil, errors.New("engine crashed")
	}
	return f.byPage[base], nil
}

// fakeRasterizer writes a placeholder file per rendered page.
type fakeRasterizer struct {
	pages    int
	countErr error
	rendered []string
}

func (f *fakeRasterizer) PageCount(string) (int, error) { return f.pages, f.countErr }

func (f *fakeRasterizer) RenderPage(_ context.Context, _ string, page int, dir string) (string, error) {
	out := filepath.Join(dir, fmt.Sprintf("page-%d.png", page))
	f.rendered = append(f.rendered, out)
	return out, os.WriteFile(out, []byte("png"), 0o600)
}

func newTestExtractor(rec ocr.Recognizer, ras ocr.Rasterizer, workDir string) *ocr.Extractor {
	return ocr.NewExtractorWithEngines(rec, ras, &config.OCRConfig{WorkDir: workDir}, nil)
}

func TestExtractor_Image(t *testing.T) {
	rec := &fakeRecognizer{byPage: map[string][]ocr.Fragment{
		"invoice.png": {
			{Text: "Invoice #123,", Confidence: 0.98},
			{Text: "Qty 2 x $50 = $100", Confidence: 0.91},
			{Text: "Tax 10% = $10, Total $110", Confidence: 0.87},
		},
	}}
	e := newTestExtractor(rec, &fakeRasterizer{}, t.TempDir())

	text, err := e.Extract(context.Background(), "/uploads/invoice.png", domain.FileTypePNG)
	require.NoError(t, err)
	assert.Equal(t, "Invoice #123, Qty 2 x $50 = $100 Tax 10% = $10, Total $110", text)
}

func TestExtractor_Image_RecognitionFailure(t *testing.T) {
	rec := &fakeRecognizer{failOn: "scan.jpg"}
	e := newTestExtractor(rec, &fakeRasterizer{}, t.TempDir())

	_, err := e.Extract(context.Background(), "/uploads/scan.jpg", domain.FileTypeJPG)
	require.Error(t, err)
	assert.Equal(t, domain.KindExtractionFailure, domain.KindOf(err))
	assert.Contains(t, err.Error(), "engine crashed")
}

func TestExtractor_UnsupportedKind(t *testing.T) {
	e := newTestExtractor(&fakeRecognizer{}, &fakeRasterizer{}, t.TempDir())

	_, err := e.Extract(context.Background(), "notes.txt", domain.FileType("txt"))
	require.Error(t, err)
	assert.Equal(t, domain.KindUnsupportedFormat, domain.KindOf(err))
}

func TestExtractor_PDF_JoinsPagesAndDeletesImages(t *testing.T) {
	work := t.TempDir()
	rec := &fakeRecognizer{byPage: map[string][]ocr.Fragment{
		"page-1.png": {{Text: "Invoice #123"}},
		"page-2.png": {{Text: "Total $110"}},
	}}
	ras := &fakeRasterizer{pages: 2}
	e := newTestExtractor(rec, ras, work)

	text, err := e.Extract(context.Background(), "doc.pdf", domain.FileTypePDF)
	require.NoError(t, err)
	assert.Equal(t, "Invoice #123 --- PAGE BREAK --- Total $110", text)

	assert.Equal(t, []bool{true, true}, rec.existed)
	for _, img := range ras.rendered {
		assert.NoFileExists(t, img)
	}
	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory should be removed")
}

func TestExtractor_PDF_PageFailureStillCleansUp(t *testing.T) {
	work := t.TempDir()
	rec := &fakeRecognizer{failOn: "page-2.png", byPage: map[string][]ocr.Fragment{
		"page-1.png": {{Text: "first"}},
	}}
	ras := &fakeRasterizer{pages: 3}
	e := newTestExtractor(rec, ras, work)

	_, err := e.Extract(context.Background(), "doc.pdf", domain.FileTypePDF)
	require.Error(t, err)
	assert.Equal(t, domain.KindExtractionFailure, domain.KindOf(err))
	assert.Contains(t, err.Error(), "page 2")

	assert.Len(t, ras.rendered, 2, "processing stops at the failing page")
	for _, img := range ras.rendered {
		assert.NoFileExists(t, img)
	}
	entries, _ := os.ReadDir(work)
	assert.Empty(t, entries)
}

func TestExtractor_PDF_MaxPages(t *testing.T) {
	rec := &fakeRecognizer{}
	ras := &fakeRasterizer{pages: 5}
	e := ocr.NewExtractorWithEngines(rec, ras, &config.OCRConfig{WorkDir: t.TempDir(), MaxPages: 2}, nil)

	_, err := e.Extract(context.Background(), "doc.pdf", domain.FileTypePDF)
	require.NoError(t, err)
	assert.Len(t, ras.rendered, 2)
}

func TestExtractor_PDF_PageCountErrors(t *testing.T) {
	tests := []struct {
		name string
		ras  *fakeRasterizer
	}{
		{"unreadable", &fakeRasterizer{countErr: errors.New("not a PDF file")}},
		{"no pages", &fakeRasterizer{pages: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExtractor(&fakeRecognizer{}, tt.ras, t.TempDir())

			_, err := e.Extract(context.Background(), "doc.pdf", domain.FileTypePDF)
			require.Error(t, err)
			assert.Equal(t, domain.KindExtractionFailure, domain.KindOf(err))
			assert.Empty(t, tt.ras.rendered)
		})
	}
}

func TestExtractor_EnhanceUsesTransientCopy(t *testing.T) {
	dir := t.TempDir()
	work := t.TempDir()
	src := filepath.Join(dir, "receipt.png")
	writePNG(t, src)

	rec := &fakeRecognizer{}
	e := ocr.NewExtractorWithEngines(rec, &fakeRasterizer{}, &config.OCRConfig{WorkDir: work, Enhance: true}, nil)

	_, err := e.Extract(context.Background(), src, domain.FileTypePNG)
	require.NoError(t, err)

	require.Len(t, rec.seen, 1)
	assert.NotEqual(t, src, rec.seen[0])
	assert.Equal(t, []bool{true}, rec.existed)
	assert.NoFileExists(t, rec.seen[0])
	assert.FileExists(t, src)
}

// stickyRasterizer renders each page as a non-empty directory so that
// removing the page image fails.
type stickyRasterizer struct{}

func (stickyRasterizer) PageCount(string) (int, error) { return 1, nil }

func (stickyRasterizer) RenderPage(_ context.Context, _ string, page int, dir string) (string, error) {
	out := filepath.Join(dir, fmt.Sprintf("page-%d.png", page))
	if err := os.MkdirAll(out, 0o700); err != nil {
		return "", err
	}
	return out, os.WriteFile(filepath.Join(out, "keep"), []byte("x"), 0o600)
}

func TestExtractor_CleanupFailureUsesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	rec := &fakeRecognizer{byPage: map[string][]ocr.Fragment{
		"page-1.png": {{Text: "Invoice #77 Total $10", Confidence: 0.9}},
	}}
	workDir := t.TempDir()
	e := ocr.NewExtractorWithEngines(rec, stickyRasterizer{}, &config.OCRConfig{WorkDir: workDir}, log)

	ctx := logger.WithRequestID(context.Background(), "req-cleanup")
	text, err := e.Extract(ctx, "/uploads/doc.pdf", domain.FileTypePDF)
	require.NoError(t, err)
	assert.Equal(t, "Invoice #77 Total $10", text)

	out := buf.String()
	assert.Contains(t, out, "msg=ocr.cleanup_failed")
	assert.Contains(t, out, "request_id=req-cleanup")

	// the scratch directory is still removed as a whole
	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
