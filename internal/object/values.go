package object

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"math"

	"golang.org/x/exp/constraints"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
)

// PixelType identifies the sample encoding of a GreyTable.
type PixelType int

const (
	PixelInt PixelType = iota
	PixelShort
	PixelUByte
	PixelFloat
	PixelDouble
	PixelRGBA
)

// Stride returns the number of bytes one sample occupies.
func (p PixelType) Stride() int {
	switch p {
	case PixelInt, PixelFloat, PixelRGBA:
		return 4
	case PixelShort:
		return 2
	case PixelUByte:
		return 1
	case PixelDouble:
		return 8
	default:
		return 0
	}
}

func (p PixelType) String() string {
	switch p {
	case PixelInt:
		return "int"
	case PixelShort:
		return "short"
	case PixelUByte:
		return "ubyte"
	case PixelFloat:
		return "float"
	case PixelDouble:
		return "double"
	case PixelRGBA:
		return "rgba"
	default:
		return fmt.Sprintf("pixel(%d)", int(p))
	}
}

// ParsePixelType is the inverse of PixelType.String.
func ParsePixelType(s string) (PixelType, error) {
	for p := PixelInt; p <= PixelRGBA; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("pixel type %q: %w", s, domain.ErrUnsupported)
}

// maxTableBytes bounds a single table allocation.
const maxTableBytes = 1 << 34

// GreyTable is a rectangular block of samples addressed by (line, column).
// The sample for (l, k) sits at byte offset ((l-Line1)*Width + (k-Kol1)) *
// stride in Data, little endian. A table is attached to an object whose
// domain lies inside the table's rectangle; objects derived from that object
// by thresholding or labeling share the same table.
//
// Set and SetRGBA mutate the table in place and are seen by every object
// sharing it.
type GreyTable struct {
	Type       PixelType
	Line1      int
	Kol1       int
	Width      int
	Height     int
	Background float64
	Data       []byte

	refs domain.RefCount
}

// NewGreyTable allocates a zeroed table covering box.
func NewGreyTable(t PixelType, box domain.BBox) (*GreyTable, error) {
	stride := t.Stride()
	if stride == 0 {
		return nil, fmt.Errorf("%s: %w", t, domain.ErrUnsupported)
	}
	if !box.Valid() {
		return nil, fmt.Errorf("table %s: %w", box, domain.ErrDomainDataInvalid)
	}
	size := int64(box.Lines()) * int64(box.Cols()) * int64(stride)
	if size > maxTableBytes {
		return nil, fmt.Errorf("table of %d bytes: %w", size, domain.ErrAllocFailure)
	}
	g := &GreyTable{
		Type:   t,
		Line1:  box.Line1,
		Kol1:   box.Kol1,
		Width:  box.Cols(),
		Height: box.Lines(),
		Data:   make([]byte, size),
	}
	g.refs.Init()
	return g, nil
}

// Assign adds a link to g and returns it.
func (g *GreyTable) Assign() *GreyTable {
	if g != nil {
		g.refs.Acquire()
	}
	return g
}

// Free drops a link and clears the samples on the last one.
func (g *GreyTable) Free() {
	if g != nil && g.refs.Release() {
		g.Data = nil
	}
}

// LinkCount reports the number of outstanding links.
func (g *GreyTable) LinkCount() int32 { return g.refs.Count() }

// BBox returns the rectangle covered by the table.
func (g *GreyTable) BBox() domain.BBox {
	return domain.BBox{Line1: g.Line1, LastLn: g.Line1 + g.Height - 1, Kol1: g.Kol1, LastKl: g.Kol1 + g.Width - 1}
}

// Covers reports whether every pixel of box has a sample.
func (g *GreyTable) Covers(box domain.BBox) bool {
	t := g.BBox()
	return box.Line1 >= t.Line1 && box.LastLn <= t.LastLn && box.Kol1 >= t.Kol1 && box.LastKl <= t.LastKl
}

// Offset returns the byte offset of sample (l, k) and whether the table
// holds it.
func (g *GreyTable) Offset(l, k int) (int, bool) {
	if l < g.Line1 || l >= g.Line1+g.Height || k < g.Kol1 || k >= g.Kol1+g.Width {
		return 0, false
	}
	return ((l-g.Line1)*g.Width + (k - g.Kol1)) * g.Type.Stride(), true
}

// ValueAt decodes the sample stored at byte offset off. RGBA samples decode
// to their luminance.
func (g *GreyTable) ValueAt(off int) float64 {
	b := g.Data[off:]
	switch g.Type {
	case PixelInt:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case PixelShort:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case PixelUByte:
		return float64(b[0])
	case PixelFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case PixelDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case PixelRGBA:
		return luminance(color.RGBA{R: b[0], G: b[1], B: b[2], A: b[3]})
	}
	return 0
}

// SetAt encodes v at byte offset off, clamping to the range of integer types.
// RGBA samples are set to an opaque grey.
func (g *GreyTable) SetAt(off int, v float64) {
	b := g.Data[off:]
	switch g.Type {
	case PixelInt:
		binary.LittleEndian.PutUint32(b, uint32(clampTo[int32](v)))
	case PixelShort:
		binary.LittleEndian.PutUint16(b, uint16(clampTo[int16](v)))
	case PixelUByte:
		b[0] = clampTo[uint8](v)
	case PixelFloat:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case PixelDouble:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	case PixelRGBA:
		y := clampTo[uint8](v)
		b[0], b[1], b[2], b[3] = y, y, y, 0xff
	}
}

// Value returns the sample at (l, k), or Background when the table does not
// hold it.
func (g *GreyTable) Value(l, k int) float64 {
	off, ok := g.Offset(l, k)
	if !ok {
		return g.Background
	}
	return g.ValueAt(off)
}

// Set stores v at (l, k). It reports false when the table does not hold the
// pixel.
func (g *GreyTable) Set(l, k int, v float64) bool {
	off, ok := g.Offset(l, k)
	if ok {
		g.SetAt(off, v)
	}
	return ok
}

// RGBA returns the colour sample at (l, k). Non-RGBA tables return an opaque
// grey built from the numeric sample.
func (g *GreyTable) RGBA(l, k int) color.RGBA {
	off, ok := g.Offset(l, k)
	if !ok {
		y := clampTo[uint8](g.Background)
		return color.RGBA{R: y, G: y, B: y, A: 0xff}
	}
	return g.RGBAAt(off)
}

// RGBAAt is RGBA addressed by byte offset.
func (g *GreyTable) RGBAAt(off int) color.RGBA {
	if g.Type != PixelRGBA {
		y := clampTo[uint8](g.ValueAt(off))
		return color.RGBA{R: y, G: y, B: y, A: 0xff}
	}
	b := g.Data[off:]
	return color.RGBA{R: b[0], G: b[1], B: b[2], A: b[3]}
}

// SetRGBA stores c at (l, k) in an RGBA table.
func (g *GreyTable) SetRGBA(l, k int, c color.RGBA) bool {
	if g.Type != PixelRGBA {
		return g.Set(l, k, luminance(c))
	}
	off, ok := g.Offset(l, k)
	if ok {
		b := g.Data[off:]
		b[0], b[1], b[2], b[3] = c.R, c.G, c.B, c.A
	}
	return ok
}

func luminance(c color.RGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

func clampTo[T constraints.Integer](v float64) T {
	lo, hi := intRange[T]()
	switch {
	case math.IsNaN(v):
		return 0
	case v <= lo:
		return T(lo)
	case v >= hi:
		return T(hi)
	}
	return T(math.Round(v))
}

func intRange[T constraints.Integer]() (float64, float64) {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 0, math.MaxUint8
	case int16:
		return math.MinInt16, math.MaxInt16
	case int32:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

// VoxelValues holds one GreyTable per plane of a volumetric object. A nil
// entry means the plane carries no samples.
type VoxelValues struct {
	first  int
	tables []*GreyTable
	refs   domain.RefCount
}

// NewVoxelValues returns an empty per-plane table set for planes
// plane1..lastpl.
func NewVoxelValues(plane1, lastpl int) (*VoxelValues, error) {
	if lastpl < plane1 {
		return nil, fmt.Errorf("planes %d..%d: %w", plane1, lastpl, domain.ErrDomainDataInvalid)
	}
	v := &VoxelValues{first: plane1, tables: make([]*GreyTable, lastpl-plane1+1)}
	v.refs.Init()
	return v, nil
}

// Assign adds a link to v and returns it.
func (v *VoxelValues) Assign() *VoxelValues {
	if v != nil {
		v.refs.Acquire()
	}
	return v
}

// Free drops a link; the last one frees every plane table.
func (v *VoxelValues) Free() {
	if v != nil && v.refs.Release() {
		for _, t := range v.tables {
			t.Free()
		}
		v.tables = nil
	}
}

// PlaneRange returns the first and last plane slots.
func (v *VoxelValues) PlaneRange() (int, int) { return v.first, v.first + len(v.tables) - 1 }

// Plane returns the table for plane p without adding a link.
func (v *VoxelValues) Plane(p int) *GreyTable {
	if v == nil || p < v.first || p >= v.first+len(v.tables) {
		return nil
	}
	return v.tables[p-v.first]
}

// SetPlane stores t for plane p, adopting the caller's link.
func (v *VoxelValues) SetPlane(p int, t *GreyTable) error {
	if p < v.first || p >= v.first+len(v.tables) {
		t.Free()
		return fmt.Errorf("plane %d: %w", p, domain.ErrDomainDataInvalid)
	}
	old := v.tables[p-v.first]
	v.tables[p-v.first] = t
	old.Free()
	return nil
}

// Type returns the pixel type of the first table present.
func (v *VoxelValues) Type() (PixelType, bool) {
	for _, t := range v.tables {
		if t != nil {
			return t.Type, true
		}
	}
	return 0, false
}
