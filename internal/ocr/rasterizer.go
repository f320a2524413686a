package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Rasterizer renders PDF pages to images one at a time.
type Rasterizer interface {
	PageCount(pdfPath string) (int, error)
	// RenderPage writes page (1-based) as a PNG inside dir and returns its path.
	RenderPage(ctx context.Context, pdfPath string, page int, dir string) (string, error)
}

// Pdftoppm rasterizes with poppler's pdftoppm and counts pages with a pure-Go reader.
type Pdftoppm struct {
	bin    string
	dpi    int
	runner Runner
}

// NewPdftoppm creates a Pdftoppm rasterizer. dpi <= 0 falls back to 200.
func NewPdftoppm(bin string, dpi int, runner Runner) *Pdftoppm {
	if bin == "" {
		bin = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 200
	}
	return &Pdftoppm{bin: bin, dpi: dpi, runner: runner}
}

func (p *Pdftoppm) PageCount(pdfPath string) (n int, err error) {
	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("reading pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("opening pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	return r.NumPage(), nil
}

func (p *Pdftoppm) RenderPage(ctx context.Context, pdfPath string, page int, dir string) (string, error) {
	prefix := filepath.Join(dir, fmt.Sprintf("page-%d", page))
	pg := strconv.Itoa(page)

	// pdftoppm -f N -l N -r DPI -png -singlefile <in.pdf> <dir/page-N>
	_, errb, err := p.runner.Run(ctx, p.bin, "-f", pg, "-l", pg, "-r", strconv.Itoa(p.dpi), "-png", "-singlefile", pdfPath, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm page %d: %w: %s", page, err, strings.TrimSpace(string(errb)))
	}

	out := prefix + ".png"
	if _, statErr := os.Stat(out); statErr != nil {
		return "", fmt.Errorf("pdftoppm produced no image for page %d: %w", page, statErr)
	}
	return out, nil
}
