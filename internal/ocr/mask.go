package ocr

import (
	"fmt"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
// Min is inclusive and Max exclusive, as Tesseract reports them.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextRegion is a recognized word with its location and OCR confidence.
type TextRegion struct {
	// Text is the recognized text content.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this word in the image.
	Bounds Bounds `json:"bounds"`
}

// MaskOptions controls how word boxes become a region.
type MaskOptions struct {
	// Language is the Tesseract language code. Empty means "eng".
	Language string

	// MinConfidence drops words scored below it (0.0 to 1.0).
	MinConfidence float64

	// Pad grows every word box by this many pixels on each side.
	Pad int
}

// TextMask is the result of TextMaskFromImage.
type TextMask struct {
	// Object covers every accepted word box. It holds one link owned by the
	// caller.
	Object *object.Object

	// Words are the accepted words, in reading order.
	Words []TextRegion
}

// MaskFromWords builds the union of the word boxes that pass the
// confidence filter. Words with empty text or an empty box are skipped.
// Overlapping and touching boxes merge into a single interval per line.
//
// The result is Empty when no word is accepted.
func MaskFromWords(words []TextRegion, opts MaskOptions) (*TextMask, error) {
	if opts.Pad < 0 {
		return nil, fmt.Errorf("text mask padding %d: %w", opts.Pad, domain.ErrDomainDataInvalid)
	}
	b := domain.NewBuilder()
	var kept []TextRegion
	for _, w := range words {
		if w.Text == "" || w.Confidence < opts.MinConfidence {
			continue
		}
		x1, y1 := w.Bounds.X1-opts.Pad, w.Bounds.Y1-opts.Pad
		x2, y2 := w.Bounds.X2-1+opts.Pad, w.Bounds.Y2-1+opts.Pad
		if w.Bounds.X2 <= w.Bounds.X1 || w.Bounds.Y2 <= w.Bounds.Y1 {
			continue
		}
		for y := y1; y <= y2; y++ {
			if err := b.Add(y, x1, x2); err != nil {
				return nil, err
			}
		}
		kept = append(kept, w)
	}

	d := b.Build()
	if d.IsEmpty() {
		d.Free()
		return &TextMask{Object: object.NewEmpty(), Words: kept}, nil
	}
	obj, err := object.New2D(d, nil)
	if err != nil {
		return nil, err
	}
	return &TextMask{Object: obj, Words: kept}, nil
}
