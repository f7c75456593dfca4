package setops

import (
	"fmt"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
)

// UnionDomains returns the pixels covered by any of ds. Nil and empty
// domains are ignored. A single non-empty input is shared: the result is
// that domain with one added link. It fails with ErrAllocFailure when the
// combined bounding box spans more than MaxLines lines.
func UnionDomains(ds ...*domain.IntervalDomain) (*domain.IntervalDomain, error) {
	live := make([]*domain.IntervalDomain, 0, len(ds))
	for _, d := range ds {
		if !d.IsEmpty() {
			live = append(live, d)
		}
	}
	switch len(live) {
	case 0:
		return domain.NewEmpty(), nil
	case 1:
		return live[0].Assign(), nil
	}

	box := live[0].BBox()
	for _, d := range live[1:] {
		box = box.Union(d.BBox())
	}
	if err := checkBox(box); err != nil {
		return nil, fmt.Errorf("union: %w", err)
	}
	lines := make([][]domain.Interval, box.Lines())
	parts := make([][]domain.Interval, 0, len(live))
	for l := box.Line1; l <= box.LastLn; l++ {
		parts = parts[:0]
		for _, d := range live {
			if ivs := d.Line(l); len(ivs) > 0 {
				parts = append(parts, ivs)
			}
		}
		lines[l-box.Line1] = domain.UnionLines(parts...)
	}
	return domain.FromLines(box.Line1, lines), nil
}

// IntersectDomains returns the pixels covered by every one of ds. Any empty
// input gives an Empty result. A single input is shared.
func IntersectDomains(ds ...*domain.IntervalDomain) (*domain.IntervalDomain, error) {
	if len(ds) == 0 {
		return domain.NewEmpty(), nil
	}
	for _, d := range ds {
		if d.IsEmpty() {
			return domain.NewEmpty(), nil
		}
	}
	if len(ds) == 1 {
		return ds[0].Assign(), nil
	}

	box := ds[0].BBox()
	allRect := ds[0].Kind() == domain.KindRect
	for _, d := range ds[1:] {
		box = box.Intersect(d.BBox())
		allRect = allRect && d.Kind() == domain.KindRect
	}
	if !box.Valid() {
		return domain.NewEmpty(), nil
	}
	if allRect {
		return domain.NewRect(box.Line1, box.LastLn, box.Kol1, box.LastKl)
	}
	if err := checkBox(box); err != nil {
		return nil, fmt.Errorf("intersection: %w", err)
	}

	lines := make([][]domain.Interval, box.Lines())
	for l := box.Line1; l <= box.LastLn; l++ {
		acc := ds[0].Line(l)
		for _, d := range ds[1:] {
			if len(acc) == 0 {
				break
			}
			acc = domain.IntersectLines(acc, d.Line(l))
		}
		if len(acc) > 0 {
			lines[l-box.Line1] = append([]domain.Interval(nil), acc...)
		}
	}
	return domain.FromLines(box.Line1, lines), nil
}

// DiffDomains returns the pixels of a that are not in b. When b cannot
// remove anything the result shares a.
func DiffDomains(a, b *domain.IntervalDomain) (*domain.IntervalDomain, error) {
	if a.IsEmpty() {
		return domain.NewEmpty(), nil
	}
	if b.IsEmpty() || !a.BBox().Intersect(b.BBox()).Valid() {
		return a.Assign(), nil
	}
	box := a.BBox()
	if err := checkBox(box); err != nil {
		return nil, fmt.Errorf("difference: %w", err)
	}
	lines := make([][]domain.Interval, box.Lines())
	for l := box.Line1; l <= box.LastLn; l++ {
		lines[l-box.Line1] = domain.DiffLines(a.Line(l), b.Line(l))
	}
	return domain.FromLines(box.Line1, lines), nil
}

// checkBox refuses boxes whose line table could not be allocated.
func checkBox(box domain.BBox) error {
	if !box.Addressable() {
		return fmt.Errorf("box %s: %w", box, domain.ErrAllocFailure)
	}
	return domain.CheckLines(box.Lines())
}

// DomainsIntersect reports whether a and b share at least one pixel.
func DomainsIntersect(a, b *domain.IntervalDomain) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	box := a.BBox().Intersect(b.BBox())
	if !box.Valid() {
		return false
	}
	for l := box.Line1; l <= box.LastLn; l++ {
		if domain.OverlapsLines(a.Line(l), b.Line(l), 0) {
			return true
		}
	}
	return false
}

// planeOp combines the planar domains found in one plane slot of each input.
type planeOp func(ds []*domain.IntervalDomain) (*domain.IntervalDomain, error)

// UnionPlanes is UnionDomains applied plane by plane. A plane missing from
// an input contributes nothing.
func UnionPlanes(pds ...*domain.PlaneDomain) (*domain.PlaneDomain, error) {
	return combinePlanes(pds, false, func(ds []*domain.IntervalDomain) (*domain.IntervalDomain, error) {
		return UnionDomains(ds...)
	})
}

// IntersectPlanes is IntersectDomains applied plane by plane. A plane
// missing from any input is absent in the result.
func IntersectPlanes(pds ...*domain.PlaneDomain) (*domain.PlaneDomain, error) {
	return combinePlanes(pds, true, func(ds []*domain.IntervalDomain) (*domain.IntervalDomain, error) {
		return IntersectDomains(ds...)
	})
}

// DiffPlanes is DiffDomains applied plane by plane. Planes of a with no
// counterpart in b are shared into the result unchanged.
func DiffPlanes(a, b *domain.PlaneDomain) (*domain.PlaneDomain, error) {
	if a.IsEmpty() {
		return domain.NewPlaneDomain(0, 0, a.VoxelSize())
	}
	box := a.BBox()
	out, err := domain.NewPlaneDomain(box.Plane1, box.LastPl, a.VoxelSize())
	if err != nil {
		return nil, err
	}
	for p := box.Plane1; p <= box.LastPl; p++ {
		pa := a.Plane(p)
		if pa.IsEmpty() {
			continue
		}
		d, err := DiffDomains(pa, b.Plane(p))
		if err != nil {
			out.Free()
			return nil, err
		}
		if err := out.SetPlane(p, d); err != nil {
			out.Free()
			return nil, err
		}
	}
	return out, nil
}

func combinePlanes(pds []*domain.PlaneDomain, needAll bool, op planeOp) (*domain.PlaneDomain, error) {
	voxel := domain.UnitVoxel
	var box domain.BBox3
	started := false
	for _, pd := range pds {
		if pd.IsEmpty() {
			if needAll {
				return domain.NewPlaneDomain(0, 0, voxel)
			}
			continue
		}
		b := pd.BBox()
		if !started {
			box, voxel, started = b, pd.VoxelSize(), true
			continue
		}
		if needAll {
			box.Plane1, box.LastPl = max(box.Plane1, b.Plane1), min(box.LastPl, b.LastPl)
		} else {
			box.Plane1, box.LastPl = min(box.Plane1, b.Plane1), max(box.LastPl, b.LastPl)
		}
	}
	if !started || box.LastPl < box.Plane1 {
		return domain.NewPlaneDomain(0, 0, voxel)
	}

	out, err := domain.NewPlaneDomain(box.Plane1, box.LastPl, voxel)
	if err != nil {
		return nil, err
	}
	ds := make([]*domain.IntervalDomain, 0, len(pds))
	for p := box.Plane1; p <= box.LastPl; p++ {
		ds = ds[:0]
		missing := false
		for _, pd := range pds {
			d := pd.Plane(p)
			if d.IsEmpty() {
				missing = true
				continue
			}
			ds = append(ds, d)
		}
		if len(ds) == 0 || (needAll && missing) {
			continue
		}
		d, err := op(ds)
		if err != nil {
			out.Free()
			return nil, err
		}
		if err := out.SetPlane(p, d); err != nil {
			out.Free()
			return nil, err
		}
	}
	return out, nil
}
