package morph

import (
	"fmt"
	"math"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
	"github.com/ironsheep/region-tools-mcp/internal/setops"
)

// Dilation grows obj by one step of the given connectivity. Planar objects
// take 4 or 8; 6 is treated as 4 and 18 or 26 as 8. Volumes take 6, 18 or
// 26. The result carries no values.
//
// # Errors
//
//   - Returns ErrNullInput if obj is nil or released
//   - Returns ErrUnsupported for any other connectivity, or a planar
//     connectivity on a volume
//   - Returns ErrAllocFailure when the result would span more than
//     domain.MaxLines lines
//   - Returns ErrDomainDataInvalid when growing would leave the int range
func Dilation(obj *object.Object, conn domain.Connectivity) (*object.Object, error) {
	return apply(obj, conn, DilateDomain, dilatePlanes)
}

// Erosion shrinks obj by one step of the given connectivity, keeping only
// pixels whose whole neighbourhood lies inside obj. Connectivities are
// handled as for Dilation.
func Erosion(obj *object.Object, conn domain.Connectivity) (*object.Object, error) {
	return apply(obj, conn, ErodeDomain, erodePlanes)
}

type planarOp func(*domain.IntervalDomain, domain.Connectivity) (*domain.IntervalDomain, error)
type volumeOp func(*domain.PlaneDomain, domain.Connectivity) (*domain.PlaneDomain, error)

func apply(obj *object.Object, conn domain.Connectivity, planar planarOp, volume volumeOp) (*object.Object, error) {
	if err := obj.Check(); err != nil {
		return nil, err
	}
	switch obj.Kind() {
	case object.Kind2D:
		c, err := conn.Planar()
		if err != nil {
			return nil, err
		}
		d, err := planar(obj.Domain(), c)
		if err != nil {
			return nil, err
		}
		return object.New2D(d, nil)
	case object.Kind3D:
		if !conn.Is3D() {
			return nil, fmt.Errorf("%s on a volume: %w", conn, domain.ErrUnsupported)
		}
		pd, err := volume(obj.Planes(), conn)
		if err != nil {
			return nil, err
		}
		return object.New3D(pd, nil)
	}
	if !conn.Is2D() && !conn.Is3D() {
		return nil, fmt.Errorf("%s: %w", conn, domain.ErrUnsupported)
	}
	return object.NewEmpty(), nil
}

// DilateDomain dilates a planar domain with 4 or 8 connectivity.
//
// With 4 connectivity a pixel joins the result when it or one of its edge
// neighbours is in d: each line is widened by one column and merged with
// the unwidened lines above and below. With 8 connectivity the lines above
// and below are widened too. An 8-connected dilation of a Rect is the Rect
// grown by one on every side.
func DilateDomain(d *domain.IntervalDomain, conn domain.Connectivity) (*domain.IntervalDomain, error) {
	if d == nil || d.Released() {
		return nil, domain.ErrNullInput
	}
	if !conn.Is2D() {
		return nil, fmt.Errorf("planar dilation with %s: %w", conn, domain.ErrUnsupported)
	}
	if d.IsEmpty() {
		return domain.NewEmpty(), nil
	}
	box := d.BBox()
	if box.Line1 == math.MinInt || box.LastLn == math.MaxInt || box.Kol1 == math.MinInt || box.LastKl == math.MaxInt {
		return nil, fmt.Errorf("dilating %s leaves the coordinate range: %w", box, domain.ErrDomainDataInvalid)
	}
	if d.Kind() == domain.KindRect && conn == domain.Conn8 {
		return domain.NewRect(box.Line1-1, box.LastLn+1, box.Kol1-1, box.LastKl+1)
	}
	if err := domain.CheckLines(box.Lines() + 2); err != nil {
		return nil, fmt.Errorf("planar dilation: %w", err)
	}

	line1 := box.Line1 - 1
	lines := make([][]domain.Interval, box.Lines()+2)
	for l := line1; l <= box.LastLn+1; l++ {
		above, cur, below := d.Line(l-1), d.Line(l), d.Line(l+1)
		switch conn {
		case domain.Conn4:
			lines[l-line1] = domain.UnionLines(domain.WidenLine(cur, 1), above, below)
		case domain.Conn8:
			lines[l-line1] = domain.WidenLine(domain.UnionLines(above, cur, below), 1)
		}
	}
	return domain.FromLines(line1, lines), nil
}

// ErodeDomain erodes a planar domain with 4 or 8 connectivity.
//
// With 4 connectivity a pixel survives when it and its four edge neighbours
// are in d: each line is shrunk by one column at both ends of every interval
// and intersected with the lines above and below. With 8 connectivity the
// lines above and below are shrunk too. Eroding a Rect gives the Rect shrunk
// by one on every side, or Empty.
func ErodeDomain(d *domain.IntervalDomain, conn domain.Connectivity) (*domain.IntervalDomain, error) {
	if d == nil || d.Released() {
		return nil, domain.ErrNullInput
	}
	if !conn.Is2D() {
		return nil, fmt.Errorf("planar erosion with %s: %w", conn, domain.ErrUnsupported)
	}
	if d.IsEmpty() {
		return domain.NewEmpty(), nil
	}
	box := d.BBox()
	if d.Kind() == domain.KindRect {
		if box.Lines() <= 2 || box.Cols() <= 2 {
			return domain.NewEmpty(), nil
		}
		return domain.NewRect(box.Line1+1, box.LastLn-1, box.Kol1+1, box.LastKl-1)
	}
	if box.Lines() <= 2 {
		return domain.NewEmpty(), nil
	}
	if err := domain.CheckLines(box.Lines()); err != nil {
		return nil, fmt.Errorf("planar erosion: %w", err)
	}

	line1 := box.Line1 + 1
	lines := make([][]domain.Interval, box.Lines()-2)
	for l := line1; l <= box.LastLn-1; l++ {
		above, cur, below := d.Line(l-1), d.Line(l), d.Line(l+1)
		var out []domain.Interval
		switch conn {
		case domain.Conn4:
			out = domain.IntersectLines(domain.ShrinkLine(cur, 1), above)
			out = domain.IntersectLines(out, below)
		case domain.Conn8:
			out = domain.IntersectLines(domain.ShrinkLine(cur, 1), domain.ShrinkLine(above, 1))
			out = domain.IntersectLines(out, domain.ShrinkLine(below, 1))
		}
		lines[l-line1] = out
	}
	return domain.FromLines(line1, lines), nil
}

// planeStencil gives the in-plane connectivity applied to the previous,
// current and next plane for each volumetric connectivity. Zero means the
// neighbouring plane is used as is.
func planeStencil(conn domain.Connectivity) (outer, centre domain.Connectivity, err error) {
	switch conn {
	case domain.Conn6:
		return 0, domain.Conn4, nil
	case domain.Conn18:
		return domain.Conn4, domain.Conn8, nil
	case domain.Conn26:
		return domain.Conn8, domain.Conn8, nil
	default:
		return 0, 0, fmt.Errorf("volumetric morphology with %s: %w", conn, domain.ErrUnsupported)
	}
}

// dilatePlanes computes, for each output plane p, the union of the
// neighbouring planes p-1 and p+1 (dilated by the outer stencil) with plane
// p (dilated by the centre stencil). The plane range grows by one.
func dilatePlanes(pd *domain.PlaneDomain, conn domain.Connectivity) (*domain.PlaneDomain, error) {
	outer, centre, err := planeStencil(conn)
	if err != nil {
		return nil, err
	}
	if pd.IsEmpty() {
		return domain.NewPlaneDomain(0, 0, pd.VoxelSize())
	}
	box := pd.BBox()
	out, err := domain.NewPlaneDomain(box.Plane1-1, box.LastPl+1, pd.VoxelSize())
	if err != nil {
		return nil, err
	}

	// Each source plane is dilated at most twice: once by the outer and once
	// by the centre stencil.
	outerCache := map[int]*domain.IntervalDomain{}
	centreCache := map[int]*domain.IntervalDomain{}
	defer func() {
		for _, d := range outerCache {
			d.Free()
		}
		for _, d := range centreCache {
			d.Free()
		}
	}()
	grow := func(cache map[int]*domain.IntervalDomain, p int, c domain.Connectivity) (*domain.IntervalDomain, error) {
		if d, ok := cache[p]; ok {
			return d, nil
		}
		src := pd.Plane(p)
		var d *domain.IntervalDomain
		switch {
		case src.IsEmpty():
			d = domain.NewEmpty()
		case c == 0:
			d = src.Assign()
		default:
			var err error
			if d, err = DilateDomain(src, c); err != nil {
				return nil, err
			}
		}
		cache[p] = d
		return d, nil
	}

	for p := box.Plane1 - 1; p <= box.LastPl+1; p++ {
		prev, err := grow(outerCache, p-1, outer)
		if err != nil {
			out.Free()
			return nil, err
		}
		cur, err := grow(centreCache, p, centre)
		if err != nil {
			out.Free()
			return nil, err
		}
		next, err := grow(outerCache, p+1, outer)
		if err != nil {
			out.Free()
			return nil, err
		}
		merged, err := setops.UnionDomains(prev, cur, next)
		if err != nil {
			out.Free()
			return nil, err
		}
		if err := out.SetPlane(p, merged); err != nil {
			out.Free()
			return nil, err
		}
	}
	return out, nil
}

// erodePlanes computes, for each plane p, the intersection of the eroded
// neighbouring planes with the eroded plane p. A plane whose neighbour is
// absent erodes away.
func erodePlanes(pd *domain.PlaneDomain, conn domain.Connectivity) (*domain.PlaneDomain, error) {
	outer, centre, err := planeStencil(conn)
	if err != nil {
		return nil, err
	}
	if pd.IsEmpty() || pd.BBox().Planes() <= 2 {
		return domain.NewPlaneDomain(0, 0, pd.VoxelSize())
	}
	box := pd.BBox()
	out, err := domain.NewPlaneDomain(box.Plane1+1, box.LastPl-1, pd.VoxelSize())
	if err != nil {
		return nil, err
	}

	shrink := func(p int, c domain.Connectivity) (*domain.IntervalDomain, error) {
		src := pd.Plane(p)
		switch {
		case src.IsEmpty():
			return domain.NewEmpty(), nil
		case c == 0:
			return src.Assign(), nil
		default:
			return ErodeDomain(src, c)
		}
	}

	for p := box.Plane1 + 1; p <= box.LastPl-1; p++ {
		var parts [3]*domain.IntervalDomain
		var err error
		for i, nb := range []struct {
			plane int
			conn  domain.Connectivity
		}{{p - 1, outer}, {p, centre}, {p + 1, outer}} {
			if parts[i], err = shrink(nb.plane, nb.conn); err != nil {
				break
			}
		}
		if err != nil {
			for _, d := range parts {
				d.Free()
			}
			out.Free()
			return nil, err
		}
		res, err := setops.IntersectDomains(parts[:]...)
		for _, d := range parts {
			d.Free()
		}
		if err != nil {
			out.Free()
			return nil, err
		}
		if err := out.SetPlane(p, res); err != nil {
			out.Free()
			return nil, err
		}
	}
	return out, nil
}
