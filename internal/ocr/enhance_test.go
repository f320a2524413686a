package ocr_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceai/internal/ocr"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for x := 0; x < 20; x++ {
		img.Set(x, 5, color.RGBA{R: 200, G: 30, B: 30, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestEnhanceImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.png")
	writePNG(t, src)

	require.NoError(t, ocr.EnhanceImage(src, dst))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())

	r, g, b, _ := img.At(3, 5).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestEnhanceImage_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := ocr.EnhanceImage(filepath.Join(dir, "missing.png"), filepath.Join(dir, "out.png"))
	assert.Error(t, err)
}
