//go:build cgo

package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Available reports whether this build can run Tesseract.
const Available = true

// ExtractWords runs Tesseract on an image file and returns its words with
// their bounding boxes.
//
// The language data for language must be installed on the system. Empty
// words are filtered out.
func ExtractWords(imagePath string, language string) ([]TextRegion, error) {
	if language == "" {
		language = "eng"
	}
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	words := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		words = append(words, TextRegion{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}
	return words, nil
}

// TextMaskFromImage runs Tesseract on an image file and returns the region
// covered by its words. Line l and column k of the region are pixel (k, l)
// of the image.
//
// # Errors
//
//   - Returns the Tesseract error if the image cannot be read or recognized
//   - Returns ErrDomainDataInvalid for a negative Pad
func TextMaskFromImage(imagePath string, opts MaskOptions) (*TextMask, error) {
	words, err := ExtractWords(imagePath, opts.Language)
	if err != nil {
		return nil, err
	}
	return MaskFromWords(words, opts)
}
