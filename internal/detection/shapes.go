package detection

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/label"
	"github.com/ironsheep/region-tools-mcp/internal/object"
)

// Bounds is an inclusive bounding box in pixel coordinates: X is the
// column and Y the line.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Point is a position in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Kind names the shape a component most resembles.
type Kind string

const (
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindLine      Kind = "line"
	KindIrregular Kind = "irregular"
)

// Shape describes one connected component.
type Shape struct {
	// Index is the component's position in labeling discovery order.
	Index int `json:"index"`

	Kind   Kind   `json:"kind"`
	Bounds Bounds `json:"bounds"`

	// Center is the centroid of the component's pixels.
	Center Point `json:"center"`

	Width  int   `json:"width"`
	Height int   `json:"height"`
	Area   int64 `json:"area"`

	// Rectangularity is the area over the bounding box area (0.0 to 1.0).
	Rectangularity float64 `json:"rectangularity"`

	// Circularity is the area over the area of the circle inscribed in the
	// bounding box, capped at 1.0. It is 0 for boxes with a large aspect
	// ratio.
	Circularity float64 `json:"circularity"`

	// Confidence is the score of the chosen Kind (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

// ShapesResult contains the shapes found in an object.
type ShapesResult struct {
	// Shapes is the list of classified components, sorted by area (largest
	// first).
	Shapes []Shape `json:"shapes"`

	// Count is the number of shapes.
	Count int `json:"count"`

	// Truncated is set when labeling stopped at its component limit.
	Truncated bool `json:"truncated,omitempty"`
}

// Options controls DetectShapes.
type Options struct {
	// Label configures the component search.
	Label label.Options

	// MinArea drops components with fewer pixels.
	MinArea int64

	// Tolerance is the score a component needs to be called a rectangle or
	// a circle. Typical: 0.8-0.95.
	Tolerance float64
}

// DetectShapes labels a planar object and classifies each component.
//
// # Algorithm
//
//  1. Labeling: split obj into connected components
//  2. Filtering: drop components smaller than MinArea
//  3. Scoring: compare each component with its bounding box
//     (rectangularity) and with the ellipse inscribed in that box
//     (circularity)
//  4. Classification: components one pixel thick, or with an aspect ratio
//     of at least 8, are lines; otherwise the best score at or above
//     Tolerance wins; anything else is irregular
//
// # Limitations
//
//   - Only detects axis-aligned rectangles (not rotated)
//   - Ellipses with a small aspect ratio score as circles
//   - Holes lower both scores
//
// # Errors
//
//   - Returns ErrTypeMismatch for a volume
//   - Returns the labeling error otherwise
func DetectShapes(obj *object.Object, opts Options) (*ShapesResult, error) {
	if err := obj.Check(); err != nil {
		return nil, fmt.Errorf("detect shapes: %w", err)
	}
	if obj.Kind() == object.Kind3D {
		return nil, fmt.Errorf("detect shapes in volume: %w", domain.ErrTypeMismatch)
	}
	res, err := label.Label(obj, opts.Label)
	if err != nil {
		return nil, fmt.Errorf("detect shapes: %w", err)
	}
	defer res.Free()

	shapes := make([]Shape, 0, res.Count())
	for i, comp := range res.Objects {
		if comp.Size() < opts.MinArea {
			continue
		}
		s := Classify(comp.Domain(), opts.Tolerance)
		s.Index = i
		shapes = append(shapes, s)
	}

	sort.SliceStable(shapes, func(i, j int) bool {
		return shapes[i].Area > shapes[j].Area
	})

	return &ShapesResult{
		Shapes:    shapes,
		Count:     len(shapes),
		Truncated: res.Truncated,
	}, nil
}

// lineAspect is the aspect ratio from which a component counts as a line.
const lineAspect = 8

// Classify scores a single planar domain.
func Classify(d *domain.IntervalDomain, tolerance float64) Shape {
	if d.IsEmpty() {
		return Shape{Kind: KindIrregular}
	}
	box := d.BBox()
	w, h := box.Cols(), box.Lines()
	area := d.Area()

	var sumX, sumY float64
	d.ForEachLine(func(l int, ivs []domain.Interval) {
		for _, iv := range ivs {
			n := float64(iv.Len())
			sumX += n * float64(iv.Left+iv.Right) / 2
			sumY += n * float64(l)
		}
	})

	s := Shape{
		Kind:           KindIrregular,
		Bounds:         Bounds{X1: box.Kol1, Y1: box.Line1, X2: box.LastKl, Y2: box.LastLn},
		Center:         Point{X: sumX / float64(area), Y: sumY / float64(area)},
		Width:          w,
		Height:         h,
		Area:           area,
		Rectangularity: float64(area) / (float64(w) * float64(h)),
	}

	long, short := max(w, h), min(w, h)
	if short == 1 || long >= lineAspect*short {
		s.Kind = KindLine
		s.Confidence = 1 - float64(short)/float64(long)
		if short == 1 {
			s.Confidence = s.Rectangularity
		}
		return s
	}

	if float64(long) <= 1.25*float64(short) {
		ellipse := math.Pi * float64(w) * float64(h) / 4
		s.Circularity = math.Min(1, float64(area)/ellipse)
		// A full box overfills its inscribed circle; penalize the excess.
		if over := float64(area) - ellipse; over > 0 {
			s.Circularity = math.Max(0, 1-over/ellipse)
		}
	}

	switch {
	case s.Rectangularity >= tolerance && s.Rectangularity >= s.Circularity:
		s.Kind, s.Confidence = KindRectangle, s.Rectangularity
	case s.Circularity >= tolerance:
		s.Kind, s.Confidence = KindCircle, s.Circularity
	default:
		s.Confidence = 1 - math.Max(s.Rectangularity, s.Circularity)
	}
	return s
}
