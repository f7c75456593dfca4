package domain

import (
	"fmt"
	"math"
)

// MaxLines bounds the line slots a single domain operation may allocate.
// Anything taller fails with ErrAllocFailure.
const MaxLines = 1 << 24

// BBox is an inclusive 2D bounding box in line (row) and column (kol)
// coordinates.
type BBox struct {
	Line1  int `json:"line1"`
	LastLn int `json:"lastln"`
	Kol1   int `json:"kol1"`
	LastKl int `json:"lastkl"`
}

// Lines returns the number of lines spanned by the box.
func (b BBox) Lines() int { return b.LastLn - b.Line1 + 1 }

// Cols returns the number of columns spanned by the box.
func (b BBox) Cols() int { return b.LastKl - b.Kol1 + 1 }

// Valid reports whether the box covers at least one pixel.
func (b BBox) Valid() bool { return b.LastLn >= b.Line1 && b.LastKl >= b.Kol1 }

// Addressable reports whether the box is Valid and its line count, column
// count and pixel count all fit in an int.
func (b BBox) Addressable() bool {
	lines, ok := span(b.Line1, b.LastLn)
	if !ok {
		return false
	}
	cols, ok := span(b.Kol1, b.LastKl)
	if !ok {
		return false
	}
	return cols <= math.MaxInt64/lines
}

// span returns hi-lo+1 and false when hi < lo or the count overflows.
func span(lo, hi int) (int, bool) {
	if hi < lo {
		return 0, false
	}
	d := hi - lo
	if d < 0 || d == math.MaxInt {
		return 0, false
	}
	return d + 1, true
}

// CheckLines returns ErrAllocFailure when n line slots exceed MaxLines.
func CheckLines(n int) error {
	if n < 0 || n > MaxLines {
		return fmt.Errorf("%d lines: %w", n, ErrAllocFailure)
	}
	return nil
}

// Contains reports whether (line, kol) lies inside the box.
func (b BBox) Contains(line, kol int) bool {
	return line >= b.Line1 && line <= b.LastLn && kol >= b.Kol1 && kol <= b.LastKl
}

// Union returns the smallest box covering both boxes.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		Line1:  min(b.Line1, o.Line1),
		LastLn: max(b.LastLn, o.LastLn),
		Kol1:   min(b.Kol1, o.Kol1),
		LastKl: max(b.LastKl, o.LastKl),
	}
}

// Intersect returns the overlap of two boxes. The result is not Valid when
// the boxes are disjoint.
func (b BBox) Intersect(o BBox) BBox {
	return BBox{
		Line1:  max(b.Line1, o.Line1),
		LastLn: min(b.LastLn, o.LastLn),
		Kol1:   max(b.Kol1, o.Kol1),
		LastKl: min(b.LastKl, o.LastKl),
	}
}

func (b BBox) String() string {
	return fmt.Sprintf("lines[%d..%d]x cols[%d..%d]", b.Line1, b.LastLn, b.Kol1, b.LastKl)
}

// BBox3 is an inclusive 3D bounding box.
type BBox3 struct {
	Plane1 int `json:"plane1"`
	LastPl int `json:"lastpl"`
	BBox
}

// Planes returns the number of planes spanned by the box.
func (b BBox3) Planes() int { return b.LastPl - b.Plane1 + 1 }

// VoxelSize is the physical extent of one voxel along each axis.
type VoxelSize struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// UnitVoxel is the voxel size given to plane domains that are built without
// an explicit one.
var UnitVoxel = VoxelSize{X: 1, Y: 1, Z: 1}
