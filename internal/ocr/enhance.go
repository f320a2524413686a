package ocr

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// EnhanceImage writes a copy of src tuned for recognition to dst: grayscale,
// stronger contrast, sharpening, and a mild brightness and gamma lift.
func EnhanceImage(src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}

	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 30)
	out = imaging.Sharpen(out, 1.5)
	out = imaging.AdjustBrightness(out, 10)
	out = imaging.AdjustGamma(out, 1.2)

	if err := imaging.Save(out, dst); err != nil {
		return fmt.Errorf("saving enhanced image: %w", err)
	}
	return nil
}
