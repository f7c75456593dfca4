package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
	"github.com/ironsheep/region-tools-mcp/internal/scan"
)

// maxSamples bounds the per-pixel or per-interval slices one call builds.
const maxSamples = 1 << 27

func checkSamples(n int64) error {
	if n > maxSamples {
		return fmt.Errorf("%d samples: %w", n, domain.ErrAllocFailure)
	}
	return nil
}

// Grey summarizes the samples of an object over its domain.
type Grey struct {
	Count  int64   `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Sum    float64 `json:"sum"`
	SumSq  float64 `json:"sum_sq"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
}

// GreyStats collects the samples of obj, in raster order, and summarizes
// them. RGBA samples are reduced to their luminance. An Empty object gives
// a zero summary.
//
// # Errors
//
//   - Returns ErrNullInput if obj is nil or released
//   - Returns ErrTypeMismatch if obj carries no values
//   - Returns ErrAllocFailure for objects of more than maxSamples pixels
func GreyStats(obj *object.Object) (Grey, error) {
	samples, err := Samples(obj)
	if err != nil {
		return Grey{}, err
	}
	if len(samples) == 0 {
		return Grey{}, nil
	}

	g := Grey{
		Count: int64(len(samples)),
		Min:   floats.Min(samples),
		Max:   floats.Max(samples),
		Sum:   floats.Sum(samples),
		SumSq: floats.Dot(samples, samples),
	}
	if len(samples) > 1 {
		g.Mean, g.StdDev = stat.MeanStdDev(samples, nil)
	} else {
		g.Mean = samples[0]
	}
	sort.Float64s(samples)
	g.Median = stat.Quantile(0.5, stat.Empirical, samples, nil)
	return g, nil
}

// Samples returns every sample of obj in raster order.
func Samples(obj *object.Object) ([]float64, error) {
	s, err := scan.NewGreyScan(obj)
	if err != nil {
		return nil, fmt.Errorf("grey stats: %w", err)
	}
	if err := checkSamples(obj.Size()); err != nil {
		return nil, fmt.Errorf("grey stats: %w", err)
	}
	out := make([]float64, 0, obj.Size())
	for {
		sp, err := s.Next()
		if errors.Is(err, domain.ErrEndOfObject) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("grey stats: %w", err)
		}
		for i := 0; i < sp.Len(); i++ {
			out = append(out, sp.Value(i))
		}
	}
}

// Point is a position in plane, line, column space.
type Point struct {
	Plane float64 `json:"plane"`
	Line  float64 `json:"line"`
	Col   float64 `json:"col"`
}

// Centroid returns the mean position of the pixels of obj. When weighted is
// set and obj carries values, each pixel counts in proportion to its
// sample. Otherwise each interval counts once, weighted by its length.
//
// # Errors
//
//   - Returns ErrNullInput if obj is nil or released
//   - Returns ErrDomainDataInvalid if obj is empty or the weights sum to zero
//   - Returns ErrAllocFailure when more than maxSamples pixels (weighted) or
//     intervals (unweighted) would be visited
func Centroid(obj *object.Object, weighted bool) (Point, error) {
	if err := obj.Check(); err != nil {
		return Point{}, fmt.Errorf("centroid: %w", err)
	}
	if obj.IsEmpty() {
		return Point{}, fmt.Errorf("centroid of empty object: %w", domain.ErrDomainDataInvalid)
	}
	perPixel := weighted && obj.HasValues()
	n := int64(obj.IntervalCount())
	if perPixel {
		n = obj.Size()
	}
	if err := checkSamples(n); err != nil {
		return Point{}, fmt.Errorf("centroid: %w", err)
	}
	planes := make([]float64, 0, n)
	lines := make([]float64, 0, n)
	cols := make([]float64, 0, n)

	var weights []float64
	if perPixel {
		w, err := Samples(obj)
		if err != nil {
			return Point{}, err
		}
		if floats.Sum(w) == 0 {
			return Point{}, fmt.Errorf("centroid weights sum to zero: %w", domain.ErrDomainDataInvalid)
		}
		weights = w
	} else {
		weights = make([]float64, 0, n)
	}

	s, err := scan.NewIntervalScan(obj)
	if err != nil {
		return Point{}, fmt.Errorf("centroid: %w", err)
	}
	for {
		sp, err := s.Next()
		if errors.Is(err, domain.ErrEndOfObject) {
			break
		}
		if err != nil {
			return Point{}, fmt.Errorf("centroid: %w", err)
		}
		if !perPixel {
			planes = append(planes, float64(sp.Plane))
			lines = append(lines, float64(sp.Line))
			cols = append(cols, (float64(sp.Left)+float64(sp.Right))/2)
			weights = append(weights, float64(sp.Right)-float64(sp.Left)+1)
			continue
		}
		for k := sp.Left; k <= sp.Right; k++ {
			planes = append(planes, float64(sp.Plane))
			lines = append(lines, float64(sp.Line))
			cols = append(cols, float64(k))
		}
	}
	return Point{
		Plane: stat.Mean(planes, weights),
		Line:  stat.Mean(lines, weights),
		Col:   stat.Mean(cols, weights),
	}, nil
}

// Correlation returns the Pearson correlation of the samples of a and b over
// the pixels they share. It returns NaN when fewer than two pixels are
// shared, and fails with ErrAllocFailure when the smaller object has more
// than maxSamples pixels.
func Correlation(a, b *object.Object) (float64, error) {
	for _, o := range []*object.Object{a, b} {
		if err := o.Check(); err != nil {
			return 0, fmt.Errorf("correlation: %w", err)
		}
		if o.Kind() != object.Kind2D {
			return 0, fmt.Errorf("correlation of %s object: %w", o.Kind(), domain.ErrTypeMismatch)
		}
	}
	if !a.HasValues() || !b.HasValues() {
		return 0, fmt.Errorf("correlation of objects without values: %w", domain.ErrTypeMismatch)
	}
	if err := checkSamples(min(a.Size(), b.Size())); err != nil {
		return 0, fmt.Errorf("correlation: %w", err)
	}
	var xs, ys []float64
	da, db := a.Domain(), b.Domain()
	va, vb := a.Values(), b.Values()
	da.ForEachLine(func(l int, ivs []domain.Interval) {
		for _, iv := range domain.IntersectLines(ivs, db.Line(l)) {
			for k := iv.Left; k <= iv.Right; k++ {
				xs = append(xs, va.Value(l, k))
				ys = append(ys, vb.Value(l, k))
			}
		}
	})
	if len(xs) < 2 {
		return math.NaN(), nil
	}
	return stat.Correlation(xs, ys, nil), nil
}
