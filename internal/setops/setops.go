package setops

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
)

// Union returns an object covering every pixel of every input.
//
// All non-empty inputs must share a dimensionality. Empty inputs are
// ignored, no inputs give an Empty result, and a single non-empty input is
// shared rather than copied.
//
// When transferValues is set and the inputs carry values, the result gets a
// new table whose samples average the inputs covering each pixel. All value
// tables must have the same pixel type.
//
// # Errors
//
//   - Returns ErrNullInput if any input is nil or released
//   - Returns ErrTypeMismatch for mixed 2D and 3D inputs or mixed pixel types
//   - Returns ErrAllocFailure when the result would span more than
//     domain.MaxLines lines or planes
func Union(objs []*object.Object, transferValues bool) (*object.Object, error) {
	kind, err := object.SameKind(objs...)
	if err != nil {
		return nil, fmt.Errorf("union: %w", err)
	}
	live := nonEmpty(objs)

	switch kind {
	case object.Kind2D:
		doms := make([]*domain.IntervalDomain, len(live))
		tables := make([]*object.GreyTable, len(live))
		for i, o := range live {
			doms[i], tables[i] = o.Domain(), o.Values()
		}
		d, err := UnionDomains(doms...)
		if err != nil {
			return nil, err
		}
		var v *object.GreyTable
		if transferValues {
			if v, err = mergeValues(d, doms, tables); err != nil {
				d.Free()
				return nil, fmt.Errorf("union: %w", err)
			}
		}
		return object.New2D(d, v)

	case object.Kind3D:
		pds := make([]*domain.PlaneDomain, len(live))
		for i, o := range live {
			pds[i] = o.Planes()
		}
		pd, err := UnionPlanes(pds...)
		if err != nil {
			return nil, fmt.Errorf("union: %w", err)
		}
		var vv *object.VoxelValues
		if transferValues {
			if vv, err = mergeVoxelValues(pd, live); err != nil {
				pd.Free()
				return nil, fmt.Errorf("union: %w", err)
			}
		}
		return object.New3D(pd, vv)
	}
	return object.NewEmpty(), nil
}

// Intersection returns an object covering the pixels common to every input.
// Any Empty input, or no inputs at all, give an Empty result. For volumes, a
// plane missing from any input is absent from the result.
//
// When transferValues is set the result shares the first input's values.
func Intersection(objs []*object.Object, transferValues bool) (*object.Object, error) {
	kind, err := object.SameKind(objs...)
	if err != nil {
		return nil, fmt.Errorf("intersection: %w", err)
	}
	if len(objs) == 0 || len(nonEmpty(objs)) < len(objs) {
		return object.NewEmpty(), nil
	}

	first := objs[0]
	switch kind {
	case object.Kind2D:
		doms := make([]*domain.IntervalDomain, len(objs))
		for i, o := range objs {
			doms[i] = o.Domain()
		}
		d, err := IntersectDomains(doms...)
		if err != nil {
			return nil, err
		}
		var v *object.GreyTable
		if transferValues {
			v = first.Values().Assign()
		}
		return object.New2D(d, v)

	case object.Kind3D:
		pds := make([]*domain.PlaneDomain, len(objs))
		for i, o := range objs {
			pds[i] = o.Planes()
		}
		pd, err := IntersectPlanes(pds...)
		if err != nil {
			return nil, fmt.Errorf("intersection: %w", err)
		}
		var vv *object.VoxelValues
		if transferValues {
			vv = first.VoxelValues().Assign()
		}
		return object.New3D(pd, vv)
	}
	return object.NewEmpty(), nil
}

// Difference returns the pixels of a that are not in b. The result shares
// a's values. When b removes nothing the result shares a's domain as well.
func Difference(a, b *object.Object) (*object.Object, error) {
	kind, err := object.SameKind(a, b)
	if err != nil {
		return nil, fmt.Errorf("difference: %w", err)
	}
	if a.IsEmpty() {
		return object.NewEmpty(), nil
	}
	switch kind {
	case object.Kind2D:
		d, err := DiffDomains(a.Domain(), b.Domain())
		if err != nil {
			return nil, err
		}
		return object.New2D(d, a.Values().Assign())
	case object.Kind3D:
		pd, err := DiffPlanes(a.Planes(), b.Planes())
		if err != nil {
			return nil, fmt.Errorf("difference: %w", err)
		}
		return object.New3D(pd, a.VoxelValues().Assign())
	}
	return object.NewEmpty(), nil
}

// SymmetricDifference returns the pixels in exactly one of a and b, computed
// as (a - b) union (b - a). With parallel set the two differences run on
// separate goroutines; both only read a and b.
func SymmetricDifference(a, b *object.Object, parallel bool) (*object.Object, error) {
	if _, err := object.SameKind(a, b); err != nil {
		return nil, fmt.Errorf("symmetric difference: %w", err)
	}

	var (
		ab, ba       *object.Object
		errAB, errBA error
	)
	if parallel {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			ab, errAB = Difference(a, b)
		}()
		go func() {
			defer wg.Done()
			ba, errBA = Difference(b, a)
		}()
		wg.Wait()
	} else {
		ab, errAB = Difference(a, b)
		ba, errBA = Difference(b, a)
	}
	defer object.Free(ab)
	defer object.Free(ba)
	if errAB != nil {
		return nil, errAB
	}
	if errBA != nil {
		return nil, errBA
	}
	return Union([]*object.Object{ab, ba}, a.HasValues() && b.HasValues())
}

// HasIntersection reports whether a and b share at least one pixel.
func HasIntersection(a, b *object.Object) (bool, error) {
	kind, err := object.SameKind(a, b)
	if err != nil {
		return false, fmt.Errorf("has intersection: %w", err)
	}
	if a.IsEmpty() || b.IsEmpty() {
		return false, nil
	}
	switch kind {
	case object.Kind2D:
		return DomainsIntersect(a.Domain(), b.Domain()), nil
	case object.Kind3D:
		box := a.Planes().BBox()
		for p := box.Plane1; p <= box.LastPl; p++ {
			if DomainsIntersect(a.Planes().Plane(p), b.Planes().Plane(p)) {
				return true, nil
			}
		}
	}
	return false, nil
}

// Complement returns the pixels of box that are not in the planar object
// obj.
func Complement(obj *object.Object, box domain.BBox) (*object.Object, error) {
	if err := obj.Check(); err != nil {
		return nil, fmt.Errorf("complement: %w", err)
	}
	if obj.Kind() == object.Kind3D {
		return nil, fmt.Errorf("complement of 3D object: %w", domain.ErrTypeMismatch)
	}
	r, err := domain.NewRect(box.Line1, box.LastLn, box.Kol1, box.LastKl)
	if err != nil {
		return nil, fmt.Errorf("complement: %w", err)
	}
	frame, err := object.New2D(r, nil)
	if err != nil {
		return nil, err
	}
	defer object.Free(frame)
	if obj.IsEmpty() {
		return object.Assign(frame), nil
	}
	return Difference(frame, obj)
}

func nonEmpty(objs []*object.Object) []*object.Object {
	out := make([]*object.Object, 0, len(objs))
	for _, o := range objs {
		if !o.IsEmpty() {
			out = append(out, o)
		}
	}
	return out
}

// mergeValues builds a table over result whose samples average the tables
// of the inputs covering each pixel. It returns nil when no input carries
// values, and shares the table of a lone input that covers the result.
func mergeValues(result *domain.IntervalDomain, doms []*domain.IntervalDomain, tables []*object.GreyTable) (*object.GreyTable, error) {
	if result.IsEmpty() {
		return nil, nil
	}
	var (
		typ     object.PixelType
		withVal int
		only    *object.GreyTable
	)
	for _, t := range tables {
		if t == nil {
			continue
		}
		if withVal > 0 && t.Type != typ {
			return nil, fmt.Errorf("pixel types %s and %s: %w", typ, t.Type, domain.ErrTypeMismatch)
		}
		typ, only = t.Type, t
		withVal++
	}
	switch {
	case withVal == 0:
		return nil, nil
	case len(doms) == 1 && only.Covers(result.BBox()):
		return only.Assign(), nil
	}

	out, err := object.NewGreyTable(typ, result.BBox())
	if err != nil {
		return nil, err
	}
	result.ForEachLine(func(l int, ivs []domain.Interval) {
		for _, iv := range ivs {
			for k := iv.Left; k <= iv.Right; k++ {
				if typ == object.PixelRGBA {
					out.SetRGBA(l, k, averageRGBA(l, k, doms, tables))
				} else {
					out.Set(l, k, averageValue(l, k, doms, tables))
				}
			}
		}
	})
	return out, nil
}

func averageValue(l, k int, doms []*domain.IntervalDomain, tables []*object.GreyTable) float64 {
	var sum float64
	n := 0
	for i, d := range doms {
		if tables[i] == nil || !d.Contains(l, k) {
			continue
		}
		sum += tables[i].Value(l, k)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func averageRGBA(l, k int, doms []*domain.IntervalDomain, tables []*object.GreyTable) color.RGBA {
	var r, g, b, a, n int
	for i, d := range doms {
		if tables[i] == nil || !d.Contains(l, k) {
			continue
		}
		c := tables[i].RGBA(l, k)
		r, g, b, a = r+int(c.R), g+int(c.G), b+int(c.B), a+int(c.A)
		n++
	}
	if n == 0 {
		return color.RGBA{}
	}
	return color.RGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n), A: uint8(a / n)}
}

func mergeVoxelValues(pd *domain.PlaneDomain, objs []*object.Object) (*object.VoxelValues, error) {
	hasValues := false
	for _, o := range objs {
		hasValues = hasValues || o.VoxelValues() != nil
	}
	if !hasValues || pd.IsEmpty() {
		return nil, nil
	}
	box := pd.BBox()
	vv, err := object.NewVoxelValues(box.Plane1, box.LastPl)
	if err != nil {
		return nil, err
	}
	doms := make([]*domain.IntervalDomain, len(objs))
	tables := make([]*object.GreyTable, len(objs))
	for p := box.Plane1; p <= box.LastPl; p++ {
		d := pd.Plane(p)
		if d.IsEmpty() {
			continue
		}
		for i, o := range objs {
			doms[i], tables[i] = o.Planes().Plane(p), o.VoxelValues().Plane(p)
		}
		t, err := mergeValues(d, doms, tables)
		if err != nil {
			vv.Free()
			return nil, fmt.Errorf("plane %d: %w", p, err)
		}
		if t == nil {
			vv.Free()
			return nil, nil
		}
		if err := vv.SetPlane(p, t); err != nil {
			vv.Free()
			return nil, err
		}
	}
	return vv, nil
}
