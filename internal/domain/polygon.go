package domain

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// FromPolygon scan-converts a closed polygon into a domain. Vertices are in
// image coordinates (X is the column, Y is the line) and lie on pixel
// corners, so the polygon (0,0) (4,0) (4,4) (0,4) covers lines 0..3 and
// columns 0..3. A pixel belongs to the domain when its centre is inside the
// polygon under the even-odd rule.
//
// # Errors
//
//   - Returns ErrDomainDataInvalid for fewer than three vertices
//   - Returns ErrAllocFailure if the polygon spans more than MaxLines lines
func FromPolygon(pts []image.Point) (*IntervalDomain, error) {
	if len(pts) < 3 {
		return nil, fmt.Errorf("polygon with %d vertices: %w", len(pts), ErrDomainDataInvalid)
	}
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	if maxY == minY {
		return NewEmpty(), nil
	}
	n, ok := span(minY, maxY-1)
	if !ok {
		return nil, fmt.Errorf("polygon lines %d..%d: %w", minY, maxY-1, ErrAllocFailure)
	}
	if err := CheckLines(n); err != nil {
		return nil, fmt.Errorf("polygon: %w", err)
	}

	lines := make([][]Interval, n)
	xs := make([]float64, 0, len(pts))
	for l := minY; l < maxY; l++ {
		y := float64(l) + 0.5
		xs = xs[:0]
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			if (float64(a.Y) <= y) == (float64(b.Y) <= y) {
				continue
			}
			t := (y - float64(a.Y)) / float64(b.Y-a.Y)
			xs = append(xs, float64(a.X)+t*float64(b.X-a.X))
		}
		sort.Float64s(xs)
		var line []Interval
		for i := 0; i+1 < len(xs); i += 2 {
			left := int(math.Ceil(xs[i] - 0.5))
			right := int(math.Ceil(xs[i+1]-0.5)) - 1
			if right >= left {
				line = append(line, Interval{Left: left, Right: right})
			}
		}
		lines[l-minY] = line
	}
	return FromLines(minY, lines), nil
}
