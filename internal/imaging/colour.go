package imaging

import (
	"errors"
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
	"github.com/ironsheep/region-tools-mcp/internal/scan"
)

// ParseColour accepts a "#RRGGBB" hex colour.
func ParseColour(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("colour %q: %w", hex, domain.ErrUnsupported)
	}
	return c, nil
}

// ColourThreshold keeps the pixels of an RGBA object whose colour lies
// within maxDist of target in CIE L*a*b* space. Distances are on the
// go-colorful scale, where identical colours are 0 and black to white is
// about 1. The result shares obj's values.
//
// # Errors
//
//   - Returns ErrNullInput if obj is nil or released
//   - Returns ErrTypeMismatch if obj is not a planar object with RGBA values
func ColourThreshold(obj *object.Object, target colorful.Color, maxDist float64) (*object.Object, error) {
	if err := obj.Check(); err != nil {
		return nil, fmt.Errorf("colour threshold: %w", err)
	}
	if obj.IsEmpty() {
		return object.NewEmpty(), nil
	}
	if obj.Kind() != object.Kind2D || obj.Values() == nil || obj.Values().Type != object.PixelRGBA {
		return nil, fmt.Errorf("colour threshold needs planar RGBA values: %w", domain.ErrTypeMismatch)
	}

	s, err := scan.NewGreyScan(obj)
	if err != nil {
		return nil, fmt.Errorf("colour threshold: %w", err)
	}
	b := domain.NewBuilder()
	for {
		sp, err := s.Next()
		if errors.Is(err, domain.ErrEndOfObject) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("colour threshold: %w", err)
		}
		start := -1
		for i := 0; i < sp.Len(); i++ {
			c, _ := colorful.MakeColor(sp.Table.RGBAAt(sp.Offset + i*sp.Stride))
			if c.DistanceLab(target) <= maxDist {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				_ = b.Add(sp.Line, sp.Left+start, sp.Left+i-1)
				start = -1
			}
		}
		if start >= 0 {
			_ = b.Add(sp.Line, sp.Left+start, sp.Right)
		}
	}
	return object.New2D(b.Build(), obj.Values().Assign())
}

// MeanColour returns the average colour of an RGBA object, blended in
// linear RGB, as a "#rrggbb" string.
func MeanColour(obj *object.Object) (string, error) {
	if err := obj.Check(); err != nil {
		return "", fmt.Errorf("mean colour: %w", err)
	}
	if obj.Kind() != object.Kind2D || obj.Values() == nil || obj.Values().Type != object.PixelRGBA {
		return "", fmt.Errorf("mean colour needs planar RGBA values: %w", domain.ErrTypeMismatch)
	}
	var r, g, bl float64
	n := 0
	t := obj.Values()
	obj.Domain().ForEachLine(func(l int, ivs []domain.Interval) {
		for _, iv := range ivs {
			for k := iv.Left; k <= iv.Right; k++ {
				c, _ := colorful.MakeColor(t.RGBA(l, k))
				lr, lg, lb := c.LinearRgb()
				r, g, bl = r+lr, g+lg, bl+lb
				n++
			}
		}
	})
	if n == 0 {
		return "", fmt.Errorf("mean colour of empty object: %w", domain.ErrDomainDataInvalid)
	}
	fn := float64(n)
	return colorful.LinearRgb(r/fn, g/fn, bl/fn).Clamped().Hex(), nil
}
