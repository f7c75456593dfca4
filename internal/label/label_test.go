package label

import (
	"context"
	"errors"
	"testing"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
	"github.com/ironsheep/region-tools-mcp/internal/setops"
)

func objFromLines(t *testing.T, lines map[int][]domain.Interval) *object.Object {
	t.Helper()
	b := domain.NewBuilder()
	for l, ivs := range lines {
		b.AddLine(l, ivs)
	}
	obj, err := object.New2D(b.Build(), nil)
	if err != nil {
		t.Fatalf("New2D failed: %v", err)
	}
	return obj
}

func rectObj(t *testing.T, line1, lastln, kol1, lastkl int) *object.Object {
	t.Helper()
	d, err := domain.NewRect(line1, lastln, kol1, lastkl)
	if err != nil {
		t.Fatalf("NewRect failed: %v", err)
	}
	obj, _ := object.New2D(d, nil)
	return obj
}

func unionOf(t *testing.T, objs ...*object.Object) *object.Object {
	t.Helper()
	u, err := setops.Union(objs, false)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	return u
}

func TestLabelDropsShortComponents(t *testing.T) {
	a := rectObj(t, 0, 3, 0, 3)
	b := rectObj(t, 10, 12, 10, 14)
	line := rectObj(t, 20, 20, 0, 30)
	in := unionOf(t, a, b, line)

	res, err := Label(in, Options{Connectivity: domain.Conn8, MinLines: 2})
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	defer res.Free()

	if res.Count() != 2 {
		t.Fatalf("Count = %d, want 2", res.Count())
	}
	want := []domain.BBox{a.Domain().BBox(), b.Domain().BBox()}
	for i, comp := range res.Objects {
		if got := comp.Domain().BBox(); got != want[i] {
			t.Errorf("component %d bbox = %v, want %v", i, got, want[i])
		}
	}
}

func TestLabelConnectivity(t *testing.T) {
	// Two pixels touching only at a corner.
	diag := objFromLines(t, map[int][]domain.Interval{
		0: {{Left: 0, Right: 0}},
		1: {{Left: 1, Right: 1}},
	})
	tests := []struct {
		conn domain.Connectivity
		want int
	}{
		{domain.Conn4, 2},
		{domain.Conn8, 1},
	}
	for _, tt := range tests {
		t.Run(tt.conn.String(), func(t *testing.T) {
			res, err := Label(diag, Options{Connectivity: tt.conn})
			if err != nil {
				t.Fatalf("Label failed: %v", err)
			}
			defer res.Free()
			if res.Count() != tt.want {
				t.Errorf("Count = %d, want %d", res.Count(), tt.want)
			}
		})
	}
}

func TestLabelMergesBranches(t *testing.T) {
	// A U shape: the arms start as separate labels and join on the last line.
	u := objFromLines(t, map[int][]domain.Interval{
		0: {{Left: 0, Right: 1}, {Left: 5, Right: 6}},
		1: {{Left: 0, Right: 1}, {Left: 5, Right: 6}},
		2: {{Left: 0, Right: 6}},
	})
	res, err := Label(u, Options{Connectivity: domain.Conn4})
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	defer res.Free()
	if res.Count() != 1 {
		t.Fatalf("Count = %d, want 1", res.Count())
	}
	if !res.Objects[0].Domain().Equal(u.Domain()) {
		t.Error("single component should equal the input")
	}
}

func TestLabelDiscoveryOrder(t *testing.T) {
	// The right-hand blob starts on an earlier line, so it is found first.
	in := objFromLines(t, map[int][]domain.Interval{
		0: {{Left: 10, Right: 12}},
		1: {{Left: 0, Right: 2}, {Left: 10, Right: 12}},
		2: {{Left: 0, Right: 2}},
	})
	res, err := Label(in, Options{Connectivity: domain.Conn8})
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	defer res.Free()
	if res.Count() != 2 {
		t.Fatalf("Count = %d, want 2", res.Count())
	}
	if box := res.Objects[0].Domain().BBox(); box.Kol1 != 10 {
		t.Errorf("first component starts at column %d, want 10", box.Kol1)
	}
	if box := res.Objects[1].Domain().BBox(); box.Kol1 != 0 {
		t.Errorf("second component starts at column %d, want 0", box.Kol1)
	}
}

func TestLabelCoverage(t *testing.T) {
	in := objFromLines(t, map[int][]domain.Interval{
		0: {{Left: 0, Right: 3}, {Left: 6, Right: 6}},
		1: {{Left: 3, Right: 4}, {Left: 8, Right: 9}},
		2: {{Left: 0, Right: 0}, {Left: 5, Right: 7}},
		4: {{Left: 2, Right: 5}},
	})
	res, err := Label(in, Options{Connectivity: domain.Conn8})
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	defer res.Free()

	var total int64
	for i, a := range res.Objects {
		total += a.Size()
		for _, b := range res.Objects[i+1:] {
			if hit, _ := setops.HasIntersection(a, b); hit {
				t.Error("components overlap")
			}
		}
	}
	if total != in.Size() {
		t.Errorf("components cover %d pixels, input has %d", total, in.Size())
	}
	u := unionOf(t, res.Objects...)
	if !u.Domain().Equal(in.Domain()) {
		t.Error("union of components differs from input")
	}
}

func TestLabelOverflow(t *testing.T) {
	in := objFromLines(t, map[int][]domain.Interval{
		0: {{Left: 0, Right: 0}, {Left: 2, Right: 2}, {Left: 4, Right: 4}, {Left: 6, Right: 6}},
	})

	res, err := Label(in, Options{Connectivity: domain.Conn8, MaxCount: 3})
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if res.Count() != 3 || !res.Truncated {
		t.Errorf("truncate: Count = %d, Truncated = %v", res.Count(), res.Truncated)
	}
	if box := res.Objects[2].Domain().BBox(); box.Kol1 != 4 {
		t.Errorf("truncate kept column %d last, want 4", box.Kol1)
	}
	res.Free()

	_, err = Label(in, Options{Connectivity: domain.Conn8, MaxCount: 3, Overflow: OverflowFail})
	if !errors.Is(err, domain.ErrTooManyComponents) {
		t.Errorf("fail policy: err = %v", err)
	}

	res, err = Label(in, Options{Connectivity: domain.Conn8})
	if err != nil || res.Count() != 4 || res.Truncated {
		t.Errorf("no cap: Count = %d err = %v", res.Count(), err)
	}
}

func TestLabelSharesValues(t *testing.T) {
	d, _ := domain.NewRect(0, 2, 0, 2)
	v, err := object.NewGreyTable(object.PixelUByte, d.BBox())
	if err != nil {
		t.Fatalf("NewGreyTable failed: %v", err)
	}
	v.Set(1, 1, 200)
	in, err := object.New2D(d, v)
	if err != nil {
		t.Fatalf("New2D failed: %v", err)
	}

	res, err := Label(in, Options{Connectivity: domain.Conn4})
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	if res.Count() != 1 {
		t.Fatalf("Count = %d, want 1", res.Count())
	}
	if res.Objects[0].Values() != in.Values() {
		t.Error("component should share the input's values")
	}
	if got := v.LinkCount(); got != 2 {
		t.Errorf("values link count = %d, want 2", got)
	}
	res.Free()
	if got := v.LinkCount(); got != 1 {
		t.Errorf("values link count after Free = %d, want 1", got)
	}
	if in.Size() != 9 {
		t.Error("input was modified")
	}
}

func volume(t *testing.T, planes map[int]*domain.IntervalDomain) *object.Object {
	t.Helper()
	first, last := 0, 0
	started := false
	for p := range planes {
		if !started {
			first, last, started = p, p, true
		}
		first, last = min(first, p), max(last, p)
	}
	pd, err := domain.NewPlaneDomain(first, last, domain.UnitVoxel)
	if err != nil {
		t.Fatalf("NewPlaneDomain failed: %v", err)
	}
	for p, d := range planes {
		if err := pd.SetPlane(p, d); err != nil {
			t.Fatalf("SetPlane failed: %v", err)
		}
	}
	obj, err := object.New3D(pd, nil)
	if err != nil {
		t.Fatalf("New3D failed: %v", err)
	}
	return obj
}

func voxel(t *testing.T, l, k int) *domain.IntervalDomain {
	t.Helper()
	d, err := domain.NewRect(l, l, k, k)
	if err != nil {
		t.Fatalf("NewRect failed: %v", err)
	}
	return d
}

func TestLabelVolumeConnectivity(t *testing.T) {
	tests := []struct {
		name   string
		second func(t *testing.T) *domain.IntervalDomain
		want   map[domain.Connectivity]int
	}{
		{
			name:   "face",
			second: func(t *testing.T) *domain.IntervalDomain { return voxel(t, 0, 0) },
			want:   map[domain.Connectivity]int{domain.Conn6: 1, domain.Conn18: 1, domain.Conn26: 1},
		},
		{
			name:   "edge",
			second: func(t *testing.T) *domain.IntervalDomain { return voxel(t, 0, 1) },
			want:   map[domain.Connectivity]int{domain.Conn6: 2, domain.Conn18: 1, domain.Conn26: 1},
		},
		{
			name:   "corner",
			second: func(t *testing.T) *domain.IntervalDomain { return voxel(t, 1, 1) },
			want:   map[domain.Connectivity]int{domain.Conn6: 2, domain.Conn18: 2, domain.Conn26: 1},
		},
	}
	for _, tt := range tests {
		for _, conn := range []domain.Connectivity{domain.Conn6, domain.Conn18, domain.Conn26} {
			t.Run(tt.name+"/"+conn.String(), func(t *testing.T) {
				in := volume(t, map[int]*domain.IntervalDomain{
					0: voxel(t, 0, 0),
					1: tt.second(t),
				})
				res, err := Label(in, Options{Connectivity: conn})
				if err != nil {
					t.Fatalf("Label failed: %v", err)
				}
				defer res.Free()
				if res.Count() != tt.want[conn] {
					t.Errorf("Count = %d, want %d", res.Count(), tt.want[conn])
				}
				for _, comp := range res.Objects {
					if comp.Kind() != object.Kind3D {
						t.Errorf("component kind = %v, want 3D", comp.Kind())
					}
				}
			})
		}
	}
}

func TestLabelVolumeBridgedInLaterPlane(t *testing.T) {
	// Two columns that are separate on plane 0 and joined on plane 1.
	bridge, _ := domain.NewRect(0, 0, 0, 4)
	in := volume(t, map[int]*domain.IntervalDomain{
		0: objFromLines(t, map[int][]domain.Interval{0: {{Left: 0, Right: 0}, {Left: 4, Right: 4}}}).Domain().Assign(),
		1: bridge,
	})
	res, err := Label(in, Options{Connectivity: domain.Conn6})
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	defer res.Free()
	if res.Count() != 1 {
		t.Fatalf("Count = %d, want 1", res.Count())
	}
	comp := res.Objects[0]
	if comp.Size() != in.Size() {
		t.Errorf("component size = %d, want %d", comp.Size(), in.Size())
	}
	if comp.Planes().Plane(0).IntervalCount() != 2 {
		t.Error("plane 0 should keep both fragments")
	}
}

func TestLabelVolumeMinLines(t *testing.T) {
	tall, _ := domain.NewRect(0, 3, 0, 0)
	in := volume(t, map[int]*domain.IntervalDomain{
		0: voxel(t, 0, 10),
		1: voxel(t, 0, 10),
		2: tall,
	})
	res, err := Label(in, Options{Connectivity: domain.Conn26, MinLines: 2})
	if err != nil {
		t.Fatalf("Label failed: %v", err)
	}
	defer res.Free()
	if res.Count() != 1 {
		t.Fatalf("Count = %d, want 1", res.Count())
	}
	if got := res.Objects[0].Size(); got != 4 {
		t.Errorf("kept component size = %d, want 4", got)
	}
}

func TestLabelErrors(t *testing.T) {
	if _, err := Label(nil, Options{Connectivity: domain.Conn4}); !errors.Is(err, domain.ErrNullInput) {
		t.Errorf("nil object: err = %v", err)
	}
	planar := rectObj(t, 0, 0, 0, 0)
	if _, err := Label(planar, Options{Connectivity: domain.Conn6}); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("volumetric connectivity on planar object: err = %v", err)
	}
	vol := volume(t, map[int]*domain.IntervalDomain{0: voxel(t, 0, 0)})
	if _, err := Label(vol, Options{Connectivity: domain.Conn8}); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("planar connectivity on volume: err = %v", err)
	}

	for _, conn := range []domain.Connectivity{domain.Conn4, domain.Conn26} {
		res, err := Label(object.NewEmpty(), Options{Connectivity: conn})
		if err != nil || res.Count() != 0 {
			t.Errorf("empty object with %s: count=%d err=%v", conn, res.Count(), err)
		}
	}
	if _, err := Label(object.NewEmpty(), Options{Connectivity: domain.Connectivity(5)}); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("empty object with connectivity 5: err = %v, want ErrUnsupported", err)
	}
	if _, err := Label(object.NewEmpty(), Options{}); !errors.Is(err, domain.ErrUnsupported) {
		t.Errorf("empty object without connectivity: err = %v, want ErrUnsupported", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Label(planar, Options{Connectivity: domain.Conn4, Context: ctx}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: err = %v", err)
	}
}

func TestLabelTallRect(t *testing.T) {
	tall := rectObj(t, 0, 1<<40, 0, 3)
	for _, conn := range []domain.Connectivity{domain.Conn4, domain.Conn8} {
		res, err := Label(tall, Options{Connectivity: conn})
		if err != nil {
			t.Fatalf("%s: %v", conn, err)
		}
		if res.Count() != 1 || res.Objects[0].Domain() != tall.Domain() {
			t.Errorf("%s: count = %d, want the rect itself", conn, res.Count())
		}
		res.Free()
	}
}

func TestParseOverflowPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    OverflowPolicy
		wantErr bool
	}{
		{"", OverflowTruncate, false},
		{"truncate", OverflowTruncate, false},
		{"fail", OverflowFail, false},
		{"drop", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseOverflowPolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOverflowPolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
}
