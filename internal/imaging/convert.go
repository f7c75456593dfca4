package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
	"github.com/ironsheep/region-tools-mcp/internal/scan"
)

// ConvertOptions controls how an image becomes an object.
type ConvertOptions struct {
	// Crop, when non-empty, limits the object to this rectangle of the
	// image. Max is exclusive, as for image.Rectangle.
	Crop image.Rectangle

	// Blur is the radius of a Gaussian pre-smoothing. Zero disables it.
	Blur float64

	// Colour keeps RGBA samples instead of converting to grey.
	Colour bool
}

// ObjectFromImage builds a planar object whose domain is the rectangle of
// the image (or of opts.Crop) and whose values are the image's pixels. Pixel
// (x, y) becomes column x of line y.
//
// # Errors
//
//   - Returns ErrDomainDataInvalid if the crop rectangle lies outside the image
//   - Returns ErrNullInput for an empty image
func ObjectFromImage(img image.Image, opts ConvertOptions) (*object.Object, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image has no pixels: %w", domain.ErrNullInput)
	}
	origin := bounds.Min
	if !opts.Crop.Empty() {
		if !opts.Crop.In(bounds) {
			return nil, fmt.Errorf("crop %v outside image %v: %w", opts.Crop, bounds, domain.ErrDomainDataInvalid)
		}
		img = imaging.Crop(img, opts.Crop)
		origin = opts.Crop.Min
	}
	if opts.Blur > 0 {
		img = blur.Gaussian(img, opts.Blur)
	}

	typ := object.PixelUByte
	if opts.Colour {
		typ = object.PixelRGBA
	} else {
		img = imaging.Grayscale(img)
	}

	b := img.Bounds()
	box := domain.BBox{
		Line1:  origin.Y,
		LastLn: origin.Y + b.Dy() - 1,
		Kol1:   origin.X,
		LastKl: origin.X + b.Dx() - 1,
	}
	d, err := domain.NewRect(box.Line1, box.LastLn, box.Kol1, box.LastKl)
	if err != nil {
		return nil, err
	}
	t, err := object.NewGreyTable(typ, box)
	if err != nil {
		d.Free()
		return nil, err
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			l, k := box.Line1+y, box.Kol1+x
			if opts.Colour {
				t.SetRGBA(l, k, color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
			} else {
				t.Set(l, k, float64(c.R))
			}
		}
	}
	return object.New2D(d, t)
}

// ThresholdMode selects which side of the level Threshold keeps.
type ThresholdMode int

const (
	// ThresholdHigh keeps samples greater than or equal to the level.
	ThresholdHigh ThresholdMode = iota
	// ThresholdLow keeps samples strictly below the level.
	ThresholdLow
)

// ParseThresholdMode accepts "high" or "low".
func ParseThresholdMode(s string) (ThresholdMode, error) {
	switch s {
	case "", "high":
		return ThresholdHigh, nil
	case "low":
		return ThresholdLow, nil
	}
	return 0, fmt.Errorf("threshold mode %q: %w", s, domain.ErrUnsupported)
}

// Threshold returns the part of obj whose samples lie on the chosen side of
// level. The result shares obj's values. RGBA samples are compared by
// luminance.
//
// # Errors
//
//   - Returns ErrNullInput if obj is nil or released
//   - Returns ErrTypeMismatch if obj carries no values
func Threshold(obj *object.Object, level float64, mode ThresholdMode) (*object.Object, error) {
	keep := func(v float64) bool { return v >= level }
	if mode == ThresholdLow {
		keep = func(v float64) bool { return v < level }
	}
	return selectPixels(obj, keep)
}

// selectPixels keeps the pixels of obj whose sample satisfies keep.
func selectPixels(obj *object.Object, keep func(float64) bool) (*object.Object, error) {
	s, err := scan.NewGreyScan(obj)
	if err != nil {
		return nil, fmt.Errorf("threshold: %w", err)
	}
	if obj.IsEmpty() {
		return object.NewEmpty(), nil
	}

	builders := map[int]*domain.Builder{}
	for {
		sp, err := s.Next()
		if errors.Is(err, domain.ErrEndOfObject) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("threshold: %w", err)
		}
		b, ok := builders[sp.Plane]
		if !ok {
			b = domain.NewBuilder()
			builders[sp.Plane] = b
		}
		start := -1
		for i := 0; i < sp.Len(); i++ {
			if keep(sp.Value(i)) {
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

	if obj.Kind() == object.Kind2D {
		return object.New2D(builders[0].Build(), obj.Values().Assign())
	}
	box := obj.Planes().BBox()
	pd, err := domain.NewPlaneDomain(box.Plane1, box.LastPl, obj.Planes().VoxelSize())
	if err != nil {
		return nil, err
	}
	for p, b := range builders {
		if err := pd.SetPlane(p, b.Build()); err != nil {
			pd.Free()
			return nil, err
		}
	}
	return object.New3D(pd, obj.VoxelValues().Assign())
}

// MaskFromImage returns a planar object, without values, covering the
// pixels of img whose luminance is at least level.
func MaskFromImage(img image.Image, level uint8) (*object.Object, error) {
	d, err := maskDomain(img, level)
	if err != nil {
		return nil, err
	}
	return object.New2D(d, nil)
}

func maskDomain(img image.Image, level uint8) (*domain.IntervalDomain, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image has no pixels: %w", domain.ErrNullInput)
	}
	mask := segment.Threshold(img, level)
	mb := mask.Bounds()
	b := domain.NewBuilder()
	for y := 0; y < mb.Dy(); y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+mb.Dx()]
		start := -1
		for x, v := range row {
			if v != 0 {
				if start < 0 {
					start = x
				}
				continue
			}
			if start >= 0 {
				_ = b.Add(bounds.Min.Y+y, bounds.Min.X+start, bounds.Min.X+x-1)
				start = -1
			}
		}
		if start >= 0 {
			_ = b.Add(bounds.Min.Y+y, bounds.Min.X+start, bounds.Min.X+len(row)-1)
		}
	}
	return b.Build(), nil
}

// StackFromImages builds a volume with one plane per image, plane i holding
// the mask of imgs[i] at level. Blank slices leave their plane absent.
//
// # Errors
//
//   - Returns ErrNullInput if imgs is empty
func StackFromImages(imgs []image.Image, level uint8, voxel domain.VoxelSize) (*object.Object, error) {
	if len(imgs) == 0 {
		return nil, fmt.Errorf("stack of no images: %w", domain.ErrNullInput)
	}
	pd, err := domain.NewPlaneDomain(0, len(imgs)-1, voxel)
	if err != nil {
		return nil, err
	}
	for i, img := range imgs {
		d, err := maskDomain(img, level)
		if err == nil {
			err = pd.SetPlane(i, d)
		}
		if err != nil {
			pd.Free()
			return nil, fmt.Errorf("slice %d: %w", i, err)
		}
	}
	return object.New3D(pd, nil)
}

// PolygonObject scan-converts a closed integer polygon, given as (x, y)
// vertices, into a planar object without values.
func PolygonObject(pts []image.Point) (*object.Object, error) {
	d, err := domain.FromPolygon(pts)
	if err != nil {
		return nil, err
	}
	return object.New2D(d, nil)
}
