package scan

import (
	"fmt"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
)

// GreySpan is an interval together with the location of its samples: the
// sample for column Left sits at byte Offset of Table.Data, and successive
// columns follow at Stride bytes.
type GreySpan struct {
	Span
	Table  *object.GreyTable
	Offset int
	Stride int
}

// Value returns the sample for the i-th column of the span.
func (g GreySpan) Value(i int) float64 {
	return g.Table.ValueAt(g.Offset + i*g.Stride)
}

// SetValue overwrites the sample for the i-th column of the span. The table
// is shared with every object that links it.
func (g GreySpan) SetValue(i int, v float64) {
	g.Table.SetAt(g.Offset+i*g.Stride, v)
}

// GreyScan walks the intervals of an object that carries values, reporting
// each interval with the position of its samples.
type GreyScan struct {
	intervals *IntervalScan
	obj       *object.Object
}

// NewGreyScan binds a grey scan to obj.
//
// # Errors
//
//   - Returns ErrNullInput if obj is nil or released
//   - Returns ErrTypeMismatch if obj carries no values
func NewGreyScan(obj *object.Object, opts ...Option) (*GreyScan, error) {
	s, err := NewIntervalScan(obj, opts...)
	if err != nil {
		return nil, err
	}
	if !obj.IsEmpty() && !obj.HasValues() {
		return nil, fmt.Errorf("grey scan of object without values: %w", domain.ErrTypeMismatch)
	}
	return &GreyScan{intervals: s, obj: obj}, nil
}

// Reset restarts the scan.
func (g *GreyScan) Reset() { g.intervals.Reset() }

// Next returns the next interval with its sample position, or
// ErrEndOfObject when the scan is exhausted.
func (g *GreyScan) Next() (GreySpan, error) {
	sp, err := g.intervals.Next()
	if err != nil {
		return GreySpan{}, err
	}
	t := g.obj.Values()
	if g.obj.Kind() == object.Kind3D {
		t = g.obj.VoxelValues().Plane(sp.Plane)
	}
	if t == nil {
		return GreySpan{}, fmt.Errorf("plane %d has no values: %w", sp.Plane, domain.ErrDomainDataInvalid)
	}
	off, ok := t.Offset(sp.Line, sp.Left)
	if !ok {
		return GreySpan{}, fmt.Errorf("line %d column %d outside values: %w", sp.Line, sp.Left, domain.ErrDomainDataInvalid)
	}
	return GreySpan{Span: sp, Table: t, Offset: off, Stride: t.Type.Stride()}, nil
}
