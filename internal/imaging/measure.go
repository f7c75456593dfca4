package imaging

import (
	"fmt"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
)

// BoxResult is a bounding box in JSON form. Plane fields are zero for
// planar objects.
type BoxResult struct {
	Plane1 int `json:"plane1"`
	LastPl int `json:"lastpl"`
	Line1  int `json:"line1"`
	LastLn int `json:"lastln"`
	Kol1   int `json:"kol1"`
	LastKl int `json:"lastkl"`
}

// Measurement describes the extent of an object.
type Measurement struct {
	Kind string `json:"kind"`

	// Size is the pixel count of a planar object or the voxel count of a
	// volume.
	Size int64 `json:"size"`

	// Physical is Size scaled by the voxel size of a volume. It equals Size
	// for planar objects.
	Physical float64 `json:"physical"`

	BBox          *BoxResult `json:"bbox,omitempty"`
	IntervalCount int        `json:"interval_count"`
	LineCount     int        `json:"line_count"`
	PlaneCount    int        `json:"plane_count"`
	HasValues     bool       `json:"has_values"`

	// FillRatio is Size divided by the bounding box volume.
	FillRatio float64 `json:"fill_ratio"`
}

// Measure returns the area or volume and extent of obj.
func Measure(obj *object.Object) (*Measurement, error) {
	if err := obj.Check(); err != nil {
		return nil, fmt.Errorf("measure: %w", err)
	}
	m := &Measurement{
		Kind:          obj.Kind().String(),
		Size:          obj.Size(),
		IntervalCount: obj.IntervalCount(),
		HasValues:     obj.HasValues(),
	}
	m.Physical = float64(m.Size)
	if obj.IsEmpty() {
		return m, nil
	}

	box := obj.BBox()
	m.BBox = &BoxResult{
		Plane1: box.Plane1,
		LastPl: box.LastPl,
		Line1:  box.Line1,
		LastLn: box.LastLn,
		Kol1:   box.Kol1,
		LastKl: box.LastKl,
	}
	m.FillRatio = float64(m.Size) / (float64(box.Planes()) * float64(box.Lines()) * float64(box.Cols()))

	switch obj.Kind() {
	case object.Kind2D:
		m.PlaneCount = 1
		m.LineCount = lineCount(obj.Domain())
	case object.Kind3D:
		pd := obj.Planes()
		m.PlaneCount = pd.PlaneCount()
		for p := box.Plane1; p <= box.LastPl; p++ {
			m.LineCount += lineCount(pd.Plane(p))
		}
		v := pd.VoxelSize()
		m.Physical = float64(m.Size) * v.X * v.Y * v.Z
	}
	return m, nil
}

// lineCount returns the number of lines of d that hold intervals.
func lineCount(d *domain.IntervalDomain) int {
	if !d.IsEmpty() && d.Kind() == domain.KindRect {
		return d.BBox().Lines()
	}
	n := 0
	d.ForEachLine(func(_ int, ivs []domain.Interval) {
		if len(ivs) > 0 {
			n++
		}
	})
	return n
}
