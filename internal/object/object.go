package object

import (
	"fmt"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
)

// Kind tags the variant held by an Object.
type Kind int

const (
	KindEmpty Kind = iota
	Kind2D
	Kind3D
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case Kind2D:
		return "2d"
	case Kind3D:
		return "3d"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Object is a reference-counted handle pairing a region's shape with its
// optional samples and properties.
//
// An Object is one of three variants: Empty (no pixels), 2D (an
// IntervalDomain with an optional GreyTable) or 3D (a PlaneDomain with
// optional VoxelValues). Objects never change shape once built.
//
// # Ownership
//
// Constructors return an object holding one link. Assign adds a link for each
// extra holder and Free drops one; when the last link goes the object drops
// its own link on the domain, the values and the property list, each of which
// may live on in other objects that share it. Every method on a released
// object reports ErrNullInput.
//
// # Example Usage
//
//	d, _ := domain.NewRect(0, 4, 0, 4)
//	obj, err := object.New2D(d, nil)
//	if err != nil {
//	    return err
//	}
//	defer object.Free(obj)
type Object struct {
	kind   Kind
	dom    *domain.IntervalDomain
	planes *domain.PlaneDomain
	values *GreyTable
	voxels *VoxelValues
	props  *PropertyList
	refs   domain.RefCount
}

// NewEmpty returns an Empty object holding one link.
func NewEmpty() *Object {
	o := &Object{kind: KindEmpty}
	o.refs.Init()
	return o
}

// New2D wraps a planar domain and optional values. The caller's links to d
// and v pass to the object. An empty d yields an Empty object and releases
// both.
//
// # Errors
//
//   - Returns ErrNullInput if d is nil or released
//   - Returns ErrDomainDataInvalid if v does not cover the domain's bounding box
func New2D(d *domain.IntervalDomain, v *GreyTable) (*Object, error) {
	if d == nil || d.Released() {
		v.Free()
		return nil, fmt.Errorf("new 2D object: %w", domain.ErrNullInput)
	}
	if d.IsEmpty() {
		d.Free()
		v.Free()
		return NewEmpty(), nil
	}
	if v != nil && !v.Covers(d.BBox()) {
		d.Free()
		v.Free()
		return nil, fmt.Errorf("values %s do not cover %s: %w", v.BBox(), d.BBox(), domain.ErrDomainDataInvalid)
	}
	o := &Object{kind: Kind2D, dom: d, values: v}
	o.refs.Init()
	return o, nil
}

// New3D wraps a volumetric domain and optional per-plane values, adopting the
// caller's links. The plane domain is standardized; an empty one yields an
// Empty object.
//
// # Errors
//
//   - Returns ErrNullInput if pd is nil or released
//   - Returns ErrDomainDataInvalid if a non-empty plane lacks a covering table
func New3D(pd *domain.PlaneDomain, v *VoxelValues) (*Object, error) {
	if pd == nil || pd.Released() {
		v.Free()
		return nil, fmt.Errorf("new 3D object: %w", domain.ErrNullInput)
	}
	if !pd.Standardize() {
		pd.Free()
		v.Free()
		return NewEmpty(), nil
	}
	if v != nil {
		box := pd.BBox()
		for p := box.Plane1; p <= box.LastPl; p++ {
			d := pd.Plane(p)
			if d.IsEmpty() {
				continue
			}
			if t := v.Plane(p); t == nil || !t.Covers(d.BBox()) {
				pd.Free()
				v.Free()
				return nil, fmt.Errorf("plane %d values do not cover %s: %w", p, d.BBox(), domain.ErrDomainDataInvalid)
			}
		}
	}
	o := &Object{kind: Kind3D, planes: pd, voxels: v}
	o.refs.Init()
	return o, nil
}

// Assign adds a link to o and returns it. Assign on nil returns nil.
func Assign(o *Object) *Object {
	if o != nil {
		o.refs.Acquire()
	}
	return o
}

// Free drops a link to o. Dropping the last link releases the object's
// domain, values and properties. Free on nil or on an already released
// object does nothing.
func Free(o *Object) {
	if o == nil || !o.refs.Release() {
		return
	}
	o.dom.Free()
	o.planes.Free()
	o.values.Free()
	o.voxels.Free()
	o.props.Free()
	o.dom, o.planes, o.values, o.voxels, o.props = nil, nil, nil, nil, nil
}

// FreeAll frees every object in objs.
func FreeAll(objs []*Object) {
	for _, o := range objs {
		Free(o)
	}
}

// Check returns ErrNullInput for a nil or released object.
func (o *Object) Check() error {
	if o == nil || o.refs.Released() {
		return domain.ErrNullInput
	}
	return nil
}

// LinkCount reports the number of outstanding links.
func (o *Object) LinkCount() int32 { return o.refs.Count() }

// Kind returns the variant tag.
func (o *Object) Kind() Kind { return o.kind }

// IsEmpty reports whether the object covers nothing.
func (o *Object) IsEmpty() bool {
	switch o.kind {
	case Kind2D:
		return o.dom.IsEmpty()
	case Kind3D:
		return o.planes.IsEmpty()
	default:
		return true
	}
}

// Domain returns the planar domain of a 2D object without adding a link.
func (o *Object) Domain() *domain.IntervalDomain { return o.dom }

// Planes returns the plane domain of a 3D object without adding a link.
func (o *Object) Planes() *domain.PlaneDomain { return o.planes }

// Values returns the sample table of a 2D object without adding a link.
func (o *Object) Values() *GreyTable { return o.values }

// VoxelValues returns the per-plane tables of a 3D object without adding a
// link.
func (o *Object) VoxelValues() *VoxelValues { return o.voxels }

// HasValues reports whether the object carries samples.
func (o *Object) HasValues() bool { return o.values != nil || o.voxels != nil }

// Props returns the property list, which may be nil.
func (o *Object) Props() *PropertyList { return o.props }

// SetProps replaces the property list, adopting the caller's link.
func (o *Object) SetProps(p *PropertyList) {
	old := o.props
	o.props = p
	old.Free()
}

// Size returns the pixel count of a 2D object or the voxel count of a 3D
// object.
func (o *Object) Size() int64 {
	switch o.kind {
	case Kind2D:
		return o.dom.Area()
	case Kind3D:
		return o.planes.Volume()
	default:
		return 0
	}
}

// BBox returns the 3D bounding box. Planar objects report plane 0.
func (o *Object) BBox() domain.BBox3 {
	switch o.kind {
	case Kind2D:
		return domain.BBox3{BBox: o.dom.BBox()}
	case Kind3D:
		return o.planes.BBox()
	default:
		return domain.BBox3{}
	}
}

// IntervalCount returns the total number of intervals.
func (o *Object) IntervalCount() int {
	switch o.kind {
	case Kind2D:
		return o.dom.IntervalCount()
	case Kind3D:
		return o.planes.IntervalCount()
	default:
		return 0
	}
}

// Validate checks the structural rules of the object's domain.
func (o *Object) Validate() error {
	if err := o.Check(); err != nil {
		return err
	}
	switch o.kind {
	case Kind2D:
		return o.dom.Validate()
	case Kind3D:
		return o.planes.Validate()
	default:
		return nil
	}
}

// Shift returns a translated copy sharing no storage with o. Values are not
// carried over.
func Shift(o *Object, dp, dl, dk int) (*Object, error) {
	if err := o.Check(); err != nil {
		return nil, err
	}
	switch o.kind {
	case Kind2D:
		return New2D(o.dom.Shift(dl, dk), nil)
	case Kind3D:
		return New3D(o.planes.Shift(dp, dl, dk), nil)
	default:
		return NewEmpty(), nil
	}
}

// SameKind checks that every object is live and that all non-empty objects
// share one dimensionality, which it returns. When every object is empty it
// returns KindEmpty.
func SameKind(objs ...*Object) (Kind, error) {
	kind := KindEmpty
	for i, o := range objs {
		if err := o.Check(); err != nil {
			return 0, fmt.Errorf("object %d: %w", i, err)
		}
		if o.kind == KindEmpty {
			continue
		}
		if kind != KindEmpty && o.kind != kind {
			return 0, fmt.Errorf("object %d is %s, expected %s: %w", i, o.kind, kind, domain.ErrTypeMismatch)
		}
		kind = o.kind
	}
	return kind, nil
}
