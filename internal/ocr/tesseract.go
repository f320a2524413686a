package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Fragment is one recognized region of text in reading order.
type Fragment struct {
	Text       string
	Confidence float64 // 0..1, or -1 when the engine gave none
}

// Recognizer turns an image file into text fragments.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) ([]Fragment, error)
}

// Tesseract recognizes images with the tesseract CLI in TSV mode.
type Tesseract struct {
	bin    string
	lang   string
	runner Runner
}

// NewTesseract creates a Tesseract recognizer. Empty values fall back to
// "tesseract" and "eng".
func NewTesseract(bin, lang string, runner Runner) *Tesseract {
	if bin == "" {
		bin = "tesseract"
	}
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{bin: bin, lang: lang, runner: runner}
}

func (t *Tesseract) Recognize(ctx context.Context, imagePath string) ([]Fragment, error) {
	// tesseract <file> stdout -l <lang> tsv
	out, errb, err := t.runner.Run(ctx, t.bin, imagePath, "stdout", "-l", t.lang, "tsv")
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	return parseTSV(string(out)), nil
}

type lineKey struct {
	page, block, par, line string
}

// parseTSV groups word rows (level 5) into line fragments, preserving the
// order in which tesseract emitted them.
func parseTSV(tsv string) []Fragment {
	type acc struct {
		words   []string
		confSum float64
		confN   int
	}
	var order []lineKey
	lines := map[lineKey]*acc{}

	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || strings.TrimSpace(ln) == "" {
			continue
		} // header
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		word := strings.TrimSpace(strings.Join(cols[11:], "\t"))
		if word == "" {
			continue
		}
		key := lineKey{cols[1], cols[2], cols[3], cols[4]}
		a, ok := lines[key]
		if !ok {
			a = &acc{}
			lines[key] = a
			order = append(order, key)
		}
		a.words = append(a.words, word)
		if c, err := strconv.ParseFloat(cols[10], 64); err == nil && c >= 0 {
			a.confSum += c
			a.confN++
		}
	}

	frags := make([]Fragment, 0, len(order))
	for _, k := range order {
		a := lines[k]
		conf := -1.0
		if a.confN > 0 {
			conf = a.confSum / float64(a.confN) / 100
		}
		frags = append(frags, Fragment{Text: strings.Join(a.words, " "), Confidence: conf})
	}
	return frags
}
