package domain

import "fmt"

// PlaneDomain is the shape of a volumetric region: an ordered stack of
// planar domains, one optional slot per plane, together with a 3D bounding
// box and the physical voxel size.
//
// A plane slot is either absent or holds an IntervalDomain reference. Absent
// and empty slots are equivalent for every query. The same IntervalDomain may
// sit in several plane domains at once; each slot owns one link to it.
//
// The bounding box is retightened whenever a slot changes, so it always
// covers exactly the non-empty planes. Storage may still hold absent slots
// at either end until Standardize is called.
type PlaneDomain struct {
	first  int
	planes []*IntervalDomain
	box    BBox3
	empty  bool
	voxel  VoxelSize
	refs   RefCount
}

// NewPlaneDomain returns a plane domain with absent slots for planes
// plane1..lastpl.
//
// # Errors
//
//   - Returns ErrDomainDataInvalid if lastpl < plane1
//   - Returns ErrAllocFailure for more than MaxLines planes
func NewPlaneDomain(plane1, lastpl int, voxel VoxelSize) (*PlaneDomain, error) {
	n, ok := span(plane1, lastpl)
	if !ok {
		return nil, fmt.Errorf("planes %d..%d: %w", plane1, lastpl, ErrDomainDataInvalid)
	}
	if n > MaxLines {
		return nil, fmt.Errorf("%d planes: %w", n, ErrAllocFailure)
	}
	if voxel == (VoxelSize{}) {
		voxel = UnitVoxel
	}
	pd := &PlaneDomain{
		first:  plane1,
		planes: make([]*IntervalDomain, n),
		empty:  true,
		voxel:  voxel,
	}
	pd.refs.Init()
	return pd, nil
}

// Assign adds a link to pd and returns it.
func (pd *PlaneDomain) Assign() *PlaneDomain {
	if pd != nil {
		pd.refs.Acquire()
	}
	return pd
}

// Free drops a link. On the last link every plane slot is freed.
func (pd *PlaneDomain) Free() {
	if pd == nil {
		return
	}
	if pd.refs.Release() {
		for i, d := range pd.planes {
			d.Free()
			pd.planes[i] = nil
		}
		pd.planes = nil
		pd.empty = true
		pd.box = BBox3{}
	}
}

// LinkCount reports the number of outstanding links.
func (pd *PlaneDomain) LinkCount() int32 { return pd.refs.Count() }

// Released reports whether every link has been dropped.
func (pd *PlaneDomain) Released() bool { return pd == nil || pd.refs.Released() }

// PlaneRange returns the first and last plane slots held in storage.
func (pd *PlaneDomain) PlaneRange() (int, int) {
	return pd.first, pd.first + len(pd.planes) - 1
}

// VoxelSize returns the physical voxel size.
func (pd *PlaneDomain) VoxelSize() VoxelSize { return pd.voxel }

// SetVoxelSize replaces the voxel size.
func (pd *PlaneDomain) SetVoxelSize(v VoxelSize) { pd.voxel = v }

// IsEmpty reports whether no plane holds any pixel.
func (pd *PlaneDomain) IsEmpty() bool { return pd == nil || pd.empty }

// BBox returns the tight bounding box over the non-empty planes.
func (pd *PlaneDomain) BBox() BBox3 { return pd.box }

// Plane returns the domain in slot p, or nil when the slot is absent or out
// of range. The caller does not receive a link.
func (pd *PlaneDomain) Plane(p int) *IntervalDomain {
	if pd == nil || p < pd.first || p >= pd.first+len(pd.planes) {
		return nil
	}
	return pd.planes[p-pd.first]
}

// SetPlane stores d in slot p, adopting the caller's link, and frees the
// domain previously held there. A nil or empty d makes the slot absent.
//
// # Errors
//
//   - Returns ErrDomainDataInvalid if p is outside the plane range
func (pd *PlaneDomain) SetPlane(p int, d *IntervalDomain) error {
	if p < pd.first || p >= pd.first+len(pd.planes) {
		d.Free()
		return fmt.Errorf("plane %d outside %d..%d: %w", p, pd.first, pd.first+len(pd.planes)-1, ErrDomainDataInvalid)
	}
	if d.IsEmpty() {
		d.Free()
		d = nil
	}
	old := pd.planes[p-pd.first]
	pd.planes[p-pd.first] = d
	old.Free()
	pd.retighten()
	return nil
}

func (pd *PlaneDomain) retighten() { pd.box, pd.empty = pd.tightBox() }

func (pd *PlaneDomain) tightBox() (BBox3, bool) {
	var box BBox3
	empty := true
	for i, d := range pd.planes {
		if d.IsEmpty() {
			continue
		}
		p := pd.first + i
		if empty {
			box = BBox3{Plane1: p, LastPl: p, BBox: d.BBox()}
			empty = false
			continue
		}
		box.LastPl = p
		box.BBox = box.BBox.Union(d.BBox())
	}
	return box, empty
}

// Standardize trims absent slots from both ends of storage so the plane
// range equals the bounding box. It reports whether any plane remains.
func (pd *PlaneDomain) Standardize() bool {
	if pd.empty {
		for _, d := range pd.planes {
			d.Free()
		}
		pd.planes = nil
		return false
	}
	lo := pd.box.Plane1 - pd.first
	hi := pd.box.LastPl - pd.first
	pd.planes = append([]*IntervalDomain(nil), pd.planes[lo:hi+1]...)
	pd.first = pd.box.Plane1
	return true
}

// Contains reports whether voxel (p, l, k) belongs to the domain.
func (pd *PlaneDomain) Contains(p, l, k int) bool {
	return pd.Plane(p).Contains(l, k)
}

// Volume returns the number of voxels covered.
func (pd *PlaneDomain) Volume() int64 {
	if pd == nil {
		return 0
	}
	var n int64
	for _, d := range pd.planes {
		n += d.Area()
	}
	return n
}

// IntervalCount returns the total number of intervals over all planes.
func (pd *PlaneDomain) IntervalCount() int {
	if pd == nil {
		return 0
	}
	n := 0
	for _, d := range pd.planes {
		n += d.IntervalCount()
	}
	return n
}

// PlaneCount returns the number of non-empty planes.
func (pd *PlaneDomain) PlaneCount() int {
	if pd == nil {
		return 0
	}
	n := 0
	for _, d := range pd.planes {
		if !d.IsEmpty() {
			n++
		}
	}
	return n
}

// Shift returns a new plane domain translated by dp planes, dl lines and dk
// columns.
func (pd *PlaneDomain) Shift(dp, dl, dk int) *PlaneDomain {
	first, last := pd.PlaneRange()
	if len(pd.planes) == 0 {
		first, last = 0, 0
	}
	out, _ := NewPlaneDomain(first+dp, last+dp, pd.voxel)
	for i, d := range pd.planes {
		if d.IsEmpty() {
			continue
		}
		_ = out.SetPlane(pd.first+i+dp, d.Shift(dl, dk))
	}
	return out
}

// Equal reports whether two plane domains cover the same voxels.
func (pd *PlaneDomain) Equal(o *PlaneDomain) bool {
	if pd.IsEmpty() || o.IsEmpty() {
		return pd.IsEmpty() && o.IsEmpty()
	}
	if pd.box != o.box {
		return false
	}
	for p := pd.box.Plane1; p <= pd.box.LastPl; p++ {
		if !pd.Plane(p).Equal(o.Plane(p)) {
			return false
		}
	}
	return true
}

// Validate checks every plane and the bounding box.
func (pd *PlaneDomain) Validate() error {
	if pd == nil || pd.Released() {
		return ErrNullInput
	}
	for i, d := range pd.planes {
		if d == nil {
			continue
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("plane %d: %w", pd.first+i, err)
		}
	}
	if box, empty := pd.tightBox(); box != pd.box || empty != pd.empty {
		return fmt.Errorf("plane bounding box is not tight: %w", ErrDomainDataInvalid)
	}
	return nil
}
