package imaging

import (
	"fmt"
	"image"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
	"github.com/ironsheep/region-tools-mcp/internal/setops"
)

// NamedRegion returns the rectangle of a named part of bounds: one of the
// quadrants "top-left", "top-right", "bottom-left", "bottom-right", the
// halves "top-half", "bottom-half", "left-half", "right-half", or "center"
// for the middle 50%. Max is exclusive.
func NamedRegion(bounds image.Rectangle, region string) (image.Rectangle, error) {
	w := bounds.Dx()
	h := bounds.Dy()
	midX := w / 2
	midY := h / 2

	var x1, y1, x2, y2 int
	switch region {
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, w, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, h
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, w, h
	case "top-half":
		x1, y1, x2, y2 = 0, 0, w, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, w, h
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, h
	case "right-half":
		x1, y1, x2, y2 = midX, 0, w, h
	case "center":
		qW := w / 4
		qH := h / 4
		x1, y1, x2, y2 = qW, qH, w-qW, h-qH
	default:
		return image.Rectangle{}, fmt.Errorf("unknown region %q: %w", region, domain.ErrUnsupported)
	}
	return image.Rect(x1, y1, x2, y2).Add(bounds.Min), nil
}

// RectBox converts an image rectangle, Max exclusive, to an inclusive
// bounding box.
func RectBox(r image.Rectangle) domain.BBox {
	return domain.BBox{Line1: r.Min.Y, LastLn: r.Max.Y - 1, Kol1: r.Min.X, LastKl: r.Max.X - 1}
}

// CropObject returns the part of obj inside box, sharing obj's values.
//
// # Errors
//
//   - Returns ErrDomainDataInvalid if box is empty
//   - Returns ErrTypeMismatch if obj is a volume
func CropObject(obj *object.Object, box domain.BBox) (*object.Object, error) {
	if err := obj.Check(); err != nil {
		return nil, fmt.Errorf("crop: %w", err)
	}
	if obj.Kind() == object.Kind3D {
		return nil, fmt.Errorf("crop of volume: %w", domain.ErrTypeMismatch)
	}
	r, err := domain.NewRect(box.Line1, box.LastLn, box.Kol1, box.LastKl)
	if err != nil {
		return nil, fmt.Errorf("crop: %w", err)
	}
	frame, err := object.New2D(r, nil)
	if err != nil {
		return nil, err
	}
	defer object.Free(frame)
	return setops.Intersection([]*object.Object{obj, frame}, true)
}
