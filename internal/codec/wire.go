package codec

import (
	"fmt"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
)

// formatVersion is written into every encoded object.
const formatVersion = 1

type wireObject struct {
	Version int             `codec:"v"`
	Kind    string          `codec:"kind"`
	Domain  *wireDomain     `codec:"domain,omitempty"`
	Planes  *wirePlanes     `codec:"planes,omitempty"`
	Values  *wireTable      `codec:"values,omitempty"`
	Voxels  []*wireTable    `codec:"voxels,omitempty"`
	Props   *wireProperties `codec:"props,omitempty"`
}

// wireDomain stores a Rect as its bounding box and an Intervals domain as
// flattened left,right pairs per line, starting at Line1.
type wireDomain struct {
	Kind   string  `codec:"kind"`
	Line1  int     `codec:"line1"`
	LastLn int     `codec:"lastln"`
	Kol1   int     `codec:"kol1"`
	LastKl int     `codec:"lastkl"`
	Lines  [][]int `codec:"lines,omitempty"`
}

type wirePlanes struct {
	Plane1 int           `codec:"plane1"`
	Voxel  [3]float64    `codec:"voxel"`
	Planes []*wireDomain `codec:"planes"`
}

type wireTable struct {
	Type       string  `codec:"type"`
	Line1      int     `codec:"line1"`
	Kol1       int     `codec:"kol1"`
	Width      int     `codec:"width"`
	Height     int     `codec:"height"`
	Background float64 `codec:"bg"`
	Data       []byte  `codec:"data"`
}

type wireProperties struct {
	Strings map[string]string  `codec:"s,omitempty"`
	Numbers map[string]float64 `codec:"n,omitempty"`
}

func toWire(obj *object.Object) *wireObject {
	w := &wireObject{Version: formatVersion, Kind: obj.Kind().String()}
	switch obj.Kind() {
	case object.Kind2D:
		w.Domain = domainToWire(obj.Domain())
		w.Values = tableToWire(obj.Values())
	case object.Kind3D:
		pd := obj.Planes()
		box := pd.BBox()
		v := pd.VoxelSize()
		w.Planes = &wirePlanes{Plane1: box.Plane1, Voxel: [3]float64{v.X, v.Y, v.Z}}
		for p := box.Plane1; p <= box.LastPl; p++ {
			w.Planes.Planes = append(w.Planes.Planes, domainToWire(pd.Plane(p)))
		}
		if vv := obj.VoxelValues(); vv != nil {
			for p := box.Plane1; p <= box.LastPl; p++ {
				w.Voxels = append(w.Voxels, tableToWire(vv.Plane(p)))
			}
		}
	}
	if props := obj.Props(); props != nil {
		wp := &wireProperties{Strings: map[string]string{}, Numbers: map[string]float64{}}
		for k, v := range props.Snapshot() {
			switch v := v.(type) {
			case string:
				wp.Strings[k] = v
			case float64:
				wp.Numbers[k] = v
			}
		}
		w.Props = wp
	}
	return w
}

func domainToWire(d *domain.IntervalDomain) *wireDomain {
	if d.IsEmpty() {
		return &wireDomain{Kind: domain.KindEmpty.String()}
	}
	box := d.BBox()
	w := &wireDomain{
		Kind:   d.Kind().String(),
		Line1:  box.Line1,
		LastLn: box.LastLn,
		Kol1:   box.Kol1,
		LastKl: box.LastKl,
	}
	if d.Kind() == domain.KindIntervals {
		w.Lines = make([][]int, 0, box.Lines())
		d.ForEachLine(func(_ int, ivs []domain.Interval) {
			pairs := make([]int, 0, 2*len(ivs))
			for _, iv := range ivs {
				pairs = append(pairs, iv.Left, iv.Right)
			}
			w.Lines = append(w.Lines, pairs)
		})
	}
	return w
}

func tableToWire(t *object.GreyTable) *wireTable {
	if t == nil {
		return nil
	}
	return &wireTable{
		Type:       t.Type.String(),
		Line1:      t.Line1,
		Kol1:       t.Kol1,
		Width:      t.Width,
		Height:     t.Height,
		Background: t.Background,
		Data:       t.Data,
	}
}

func fromWire(w *wireObject) (*object.Object, error) {
	if w.Version != formatVersion {
		return nil, fmt.Errorf("format version %d: %w", w.Version, domain.ErrUnsupported)
	}
	var (
		obj *object.Object
		err error
	)
	switch w.Kind {
	case object.KindEmpty.String():
		obj = object.NewEmpty()
	case object.Kind2D.String():
		obj, err = object2DFromWire(w)
	case object.Kind3D.String():
		obj, err = object3DFromWire(w)
	default:
		return nil, fmt.Errorf("object kind %q: %w", w.Kind, domain.ErrDomainDataInvalid)
	}
	if err != nil {
		return nil, err
	}
	if w.Props != nil {
		props := object.NewPropertyList()
		for k, v := range w.Props.Strings {
			props.SetString(k, v)
		}
		for k, v := range w.Props.Numbers {
			props.SetNumber(k, v)
		}
		obj.SetProps(props)
	}
	return obj, nil
}

func object2DFromWire(w *wireObject) (*object.Object, error) {
	if w.Domain == nil {
		return nil, fmt.Errorf("2D object without domain: %w", domain.ErrDomainDataInvalid)
	}
	d, err := domainFromWire(w.Domain)
	if err != nil {
		return nil, err
	}
	v, err := tableFromWire(w.Values)
	if err != nil {
		d.Free()
		return nil, err
	}
	return object.New2D(d, v)
}

func object3DFromWire(w *wireObject) (*object.Object, error) {
	wp := w.Planes
	if wp == nil || len(wp.Planes) == 0 {
		return nil, fmt.Errorf("3D object without planes: %w", domain.ErrDomainDataInvalid)
	}
	if w.Voxels != nil && len(w.Voxels) != len(wp.Planes) {
		return nil, fmt.Errorf("%d value planes for %d domain planes: %w", len(w.Voxels), len(wp.Planes), domain.ErrDomainDataInvalid)
	}
	lastpl := wp.Plane1 + len(wp.Planes) - 1
	voxel := domain.VoxelSize{X: wp.Voxel[0], Y: wp.Voxel[1], Z: wp.Voxel[2]}
	pd, err := domain.NewPlaneDomain(wp.Plane1, lastpl, voxel)
	if err != nil {
		return nil, err
	}
	for i, wd := range wp.Planes {
		d, err := domainFromWire(wd)
		if err != nil {
			pd.Free()
			return nil, fmt.Errorf("plane %d: %w", wp.Plane1+i, err)
		}
		if err := pd.SetPlane(wp.Plane1+i, d); err != nil {
			pd.Free()
			return nil, err
		}
	}

	var vv *object.VoxelValues
	if w.Voxels != nil {
		if vv, err = object.NewVoxelValues(wp.Plane1, lastpl); err != nil {
			pd.Free()
			return nil, err
		}
		for i, wt := range w.Voxels {
			t, err := tableFromWire(wt)
			if err == nil {
				err = vv.SetPlane(wp.Plane1+i, t)
			}
			if err != nil {
				pd.Free()
				vv.Free()
				return nil, fmt.Errorf("plane %d values: %w", wp.Plane1+i, err)
			}
		}
	}
	return object.New3D(pd, vv)
}

// domainFromWire rebuilds a domain and rejects anything that breaks the
// interval invariants rather than repairing it.
func domainFromWire(w *wireDomain) (*domain.IntervalDomain, error) {
	if w == nil {
		return domain.NewEmpty(), nil
	}
	switch w.Kind {
	case domain.KindEmpty.String():
		return domain.NewEmpty(), nil
	case domain.KindRect.String():
		d, err := domain.NewRect(w.Line1, w.LastLn, w.Kol1, w.LastKl)
		if err != nil {
			return nil, fmt.Errorf("rect: %w", domain.ErrDomainDataInvalid)
		}
		return d, nil
	case domain.KindIntervals.String():
	default:
		return nil, fmt.Errorf("domain kind %q: %w", w.Kind, domain.ErrDomainDataInvalid)
	}

	want := domain.BBox{Line1: w.Line1, LastLn: w.LastLn, Kol1: w.Kol1, LastKl: w.LastKl}
	if !want.Addressable() {
		return nil, fmt.Errorf("bbox %s: %w", want, domain.ErrDomainDataInvalid)
	}
	if len(w.Lines) != want.Lines() {
		return nil, fmt.Errorf("%d lines for %d..%d: %w", len(w.Lines), w.Line1, w.LastLn, domain.ErrDomainDataInvalid)
	}
	lines := make([][]domain.Interval, len(w.Lines))
	for i, pairs := range w.Lines {
		if len(pairs)%2 != 0 {
			return nil, fmt.Errorf("line %d: odd interval data: %w", w.Line1+i, domain.ErrDomainDataInvalid)
		}
		ivs := make([]domain.Interval, 0, len(pairs)/2)
		for j := 0; j < len(pairs); j += 2 {
			iv := domain.Interval{Left: pairs[j], Right: pairs[j+1]}
			if iv.Right < iv.Left {
				return nil, fmt.Errorf("line %d: interval [%d,%d]: %w", w.Line1+i, iv.Left, iv.Right, domain.ErrDomainDataInvalid)
			}
			if n := len(ivs); n > 0 && iv.Left <= ivs[n-1].Right+1 {
				return nil, fmt.Errorf("line %d: intervals out of order or touching: %w", w.Line1+i, domain.ErrDomainDataInvalid)
			}
			ivs = append(ivs, iv)
		}
		lines[i] = ivs
	}
	d := domain.FromLines(w.Line1, lines)
	if d.BBox() != want {
		got := d.BBox()
		d.Free()
		return nil, fmt.Errorf("bbox %s is not tight, content spans %s: %w", want, got, domain.ErrDomainDataInvalid)
	}
	return d, nil
}

func tableFromWire(w *wireTable) (*object.GreyTable, error) {
	if w == nil {
		return nil, nil
	}
	typ, err := object.ParsePixelType(w.Type)
	if err != nil {
		return nil, err
	}
	box := domain.BBox{Line1: w.Line1, LastLn: w.Line1 + w.Height - 1, Kol1: w.Kol1, LastKl: w.Kol1 + w.Width - 1}
	t, err := object.NewGreyTable(typ, box)
	if err != nil {
		return nil, err
	}
	if len(w.Data) != len(t.Data) {
		t.Free()
		return nil, fmt.Errorf("table of %d bytes, want %d: %w", len(w.Data), len(t.Data), domain.ErrDomainDataInvalid)
	}
	copy(t.Data, w.Data)
	t.Background = w.Background
	return t, nil
}
