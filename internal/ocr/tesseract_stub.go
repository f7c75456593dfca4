//go:build !cgo

package ocr

import (
	"fmt"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
)

// Available reports whether this build can run Tesseract.
const Available = false

// ExtractWords always fails: Tesseract needs cgo.
func ExtractWords(imagePath string, language string) ([]TextRegion, error) {
	return nil, fmt.Errorf("OCR of %s needs a cgo build: %w", imagePath, domain.ErrUnsupported)
}

// TextMaskFromImage always fails: Tesseract needs cgo.
func TextMaskFromImage(imagePath string, opts MaskOptions) (*TextMask, error) {
	_, err := ExtractWords(imagePath, opts.Language)
	return nil, err
}
