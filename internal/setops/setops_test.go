package setops

import (
	"errors"
	"testing"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
)

func rectObj(t *testing.T, line1, lastln, kol1, lastkl int) *object.Object {
	t.Helper()
	d, err := domain.NewRect(line1, lastln, kol1, lastkl)
	if err != nil {
		t.Fatalf("NewRect failed: %v", err)
	}
	obj, err := object.New2D(d, nil)
	if err != nil {
		t.Fatalf("New2D failed: %v", err)
	}
	return obj
}

func valuedRect(t *testing.T, line1, lastln, kol1, lastkl int, v float64) *object.Object {
	t.Helper()
	d, _ := domain.NewRect(line1, lastln, kol1, lastkl)
	g, err := object.NewGreyTable(object.PixelDouble, d.BBox())
	if err != nil {
		t.Fatalf("NewGreyTable failed: %v", err)
	}
	for l := line1; l <= lastln; l++ {
		for k := kol1; k <= lastkl; k++ {
			g.Set(l, k, v)
		}
	}
	obj, err := object.New2D(d, g)
	if err != nil {
		t.Fatalf("New2D failed: %v", err)
	}
	return obj
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

func linesObj(t *testing.T, lines map[int][]domain.Interval) *object.Object {
	t.Helper()
	b := domain.NewBuilder()
	for l, ivs := range lines {
		if err := b.AddLine(l, ivs); err != nil {
			t.Fatalf("AddLine failed: %v", err)
		}
	}
	obj, err := object.New2D(b.Build(), nil)
	if err != nil {
		t.Fatalf("New2D failed: %v", err)
	}
	return obj
}

// ringObj is a 7x7 square at (line1, kol1) with a 3x3 hole in the middle.
func ringObj(t *testing.T, line1, kol1 int) *object.Object {
	t.Helper()
	lines := map[int][]domain.Interval{}
	for i := 0; i < 7; i++ {
		if i >= 2 && i <= 4 {
			lines[line1+i] = []domain.Interval{{Left: kol1, Right: kol1 + 1}, {Left: kol1 + 5, Right: kol1 + 6}}
		} else {
			lines[line1+i] = []domain.Interval{{Left: kol1, Right: kol1 + 6}}
		}
	}
	return linesObj(t, lines)
}

// combObj has single-column teeth at every odd column of 1..7 over lines
// 0..8.
func combObj(t *testing.T) *object.Object {
	t.Helper()
	lines := map[int][]domain.Interval{}
	for l := 0; l <= 8; l++ {
		lines[l] = []domain.Interval{{Left: 1, Right: 1}, {Left: 3, Right: 3}, {Left: 5, Right: 5}, {Left: 7, Right: 7}}
	}
	return linesObj(t, lines)
}

func mustValid(t *testing.T, obj *object.Object) {
	t.Helper()
	if err := obj.Validate(); err != nil {
		t.Fatalf("result breaks domain rules: %v", err)
	}
}

func TestUnionOverlappingRects(t *testing.T) {
	a := rectObj(t, 0, 4, 0, 4)
	b := rectObj(t, 2, 6, 2, 6)
	u, err := Union([]*object.Object{a, b}, false)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	mustValid(t, u)
	if u.Size() != 41 {
		t.Errorf("Size = %d, want 41", u.Size())
	}
	want := domain.BBox{Line1: 0, LastLn: 6, Kol1: 0, LastKl: 6}
	if u.Domain().BBox() != want {
		t.Errorf("BBox = %v, want %v", u.Domain().BBox(), want)
	}
}

func TestUnionLaws(t *testing.T) {
	a := rectObj(t, 0, 3, 0, 3)
	b := rectObj(t, 2, 5, 5, 9)
	c := rectObj(t, 5, 8, 1, 2)

	ab, _ := Union([]*object.Object{a, b}, false)
	ba, _ := Union([]*object.Object{b, a}, false)
	if !ab.Domain().Equal(ba.Domain()) {
		t.Error("union is not commutative")
	}

	left, _ := Union([]*object.Object{ab, c}, false)
	bc, _ := Union([]*object.Object{b, c}, false)
	right, _ := Union([]*object.Object{a, bc}, false)
	all, _ := Union([]*object.Object{a, b, c}, false)
	if !left.Domain().Equal(right.Domain()) || !left.Domain().Equal(all.Domain()) {
		t.Error("union is not associative")
	}

	aa, _ := Union([]*object.Object{a, a}, false)
	if !aa.Domain().Equal(a.Domain()) {
		t.Error("union is not idempotent")
	}

	withEmpty, _ := Union([]*object.Object{a, object.NewEmpty()}, false)
	if !withEmpty.Domain().Equal(a.Domain()) {
		t.Error("empty is not the union identity")
	}

	none, err := Union(nil, false)
	if err != nil || none.Kind() != object.KindEmpty {
		t.Errorf("Union() = %v, %v", none.Kind(), err)
	}
}

func TestUnionSingleInputShares(t *testing.T) {
	a := valuedRect(t, 0, 1, 0, 1, 3)
	u, err := Union([]*object.Object{a}, true)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	if u.Domain() != a.Domain() || u.Values() != a.Values() {
		t.Error("single-input union should share domain and values")
	}
	if a.Domain().LinkCount() != 2 {
		t.Errorf("domain LinkCount = %d, want 2", a.Domain().LinkCount())
	}
	object.Free(u)
	if a.Domain().LinkCount() != 1 {
		t.Errorf("domain LinkCount after free = %d, want 1", a.Domain().LinkCount())
	}
}

func TestUnionAveragesValues(t *testing.T) {
	a := valuedRect(t, 0, 0, 0, 3, 10)
	b := valuedRect(t, 0, 0, 2, 5, 20)
	u, err := Union([]*object.Object{a, b}, true)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	tests := []struct {
		k    int
		want float64
	}{
		{0, 10}, {2, 15}, {3, 15}, {5, 20},
	}
	for _, tt := range tests {
		if got := u.Values().Value(0, tt.k); got != tt.want {
			t.Errorf("value at column %d = %v, want %v", tt.k, got, tt.want)
		}
	}

	d, _ := domain.NewRect(0, 0, 0, 0)
	g, _ := object.NewGreyTable(object.PixelUByte, d.BBox())
	c, _ := object.New2D(d, g)
	if _, err := Union([]*object.Object{a, c}, true); !errors.Is(err, domain.ErrTypeMismatch) {
		t.Errorf("mixed pixel types: err = %v", err)
	}
}

func TestIntersection(t *testing.T) {
	a := rectObj(t, 0, 4, 0, 4)
	b := rectObj(t, 2, 6, 2, 6)
	got, err := Intersection([]*object.Object{a, b}, false)
	if err != nil {
		t.Fatalf("Intersection failed: %v", err)
	}
	mustValid(t, got)
	if got.Size() != 9 || got.Domain().Kind() != domain.KindRect {
		t.Errorf("Size=%d Kind=%v, want 9 rect", got.Size(), got.Domain().Kind())
	}

	disjoint, _ := Intersection([]*object.Object{a, rectObj(t, 10, 12, 0, 0)}, false)
	if disjoint.Kind() != object.KindEmpty {
		t.Error("disjoint intersection should be Empty")
	}
	withEmpty, _ := Intersection([]*object.Object{a, object.NewEmpty()}, false)
	if withEmpty.Kind() != object.KindEmpty {
		t.Error("intersection with Empty should be Empty")
	}

	// Touching shapes share no pixel.
	b2 := domain.NewBuilder()
	b2.Add(0, 0, 1)
	b2.Add(0, 5, 6)
	holes, _ := object.New2D(b2.Build(), nil)
	touch, _ := Intersection([]*object.Object{holes, rectObj(t, 0, 0, 2, 4)}, false)
	if touch.Kind() != object.KindEmpty {
		t.Errorf("touching intersection size = %d", touch.Size())
	}

	aa, _ := Intersection([]*object.Object{a, a}, false)
	if !aa.Domain().Equal(a.Domain()) {
		t.Error("intersection is not idempotent")
	}
}

func TestIntersectionLaws(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c *object.Object
	}{
		{"rects", rectObj(t, 0, 5, 0, 5), rectObj(t, 2, 8, 3, 9), rectObj(t, 1, 4, 1, 7)},
		{"intervals", ringObj(t, 0, 0), ringObj(t, 2, 3), combObj(t)},
		{"mixed", rectObj(t, 1, 7, 1, 6), ringObj(t, 0, 0), combObj(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ab, err := Intersection([]*object.Object{tt.a, tt.b}, false)
			if err != nil {
				t.Fatalf("Intersection failed: %v", err)
			}
			ba, _ := Intersection([]*object.Object{tt.b, tt.a}, false)
			mustValid(t, ab)
			if ab.IsEmpty() {
				t.Fatal("a and b should overlap")
			}
			if !ab.Domain().Equal(ba.Domain()) {
				t.Error("intersection is not commutative")
			}

			left, _ := Intersection([]*object.Object{ab, tt.c}, false)
			bc, _ := Intersection([]*object.Object{tt.b, tt.c}, false)
			right, _ := Intersection([]*object.Object{tt.a, bc}, false)
			all, _ := Intersection([]*object.Object{tt.a, tt.b, tt.c}, false)
			mustValid(t, left)
			if left.IsEmpty() {
				t.Fatal("a, b and c should share pixels")
			}
			if !left.Domain().Equal(right.Domain()) || !left.Domain().Equal(all.Domain()) {
				t.Errorf("intersection is not associative: sizes %d, %d, %d", left.Size(), right.Size(), all.Size())
			}

			// Every pixel of the result lies in all three inputs.
			left.Domain().ForEachLine(func(l int, ivs []domain.Interval) {
				for _, iv := range ivs {
					for k := iv.Left; k <= iv.Right; k++ {
						for _, o := range []*object.Object{tt.a, tt.b, tt.c} {
							if !o.Domain().Contains(l, k) {
								t.Errorf("(%d,%d) is outside an input", l, k)
							}
						}
					}
				}
			})
		})
	}
}

func TestIntersectionSharesFirstValues(t *testing.T) {
	a := valuedRect(t, 0, 3, 0, 3, 7)
	b := rectObj(t, 1, 2, 1, 2)
	got, err := Intersection([]*object.Object{a, b}, true)
	if err != nil {
		t.Fatalf("Intersection failed: %v", err)
	}
	if got.Values() != a.Values() {
		t.Error("intersection should share the first input's values")
	}
}

func TestDifference(t *testing.T) {
	a := rectObj(t, 0, 2, 0, 9)
	hole := rectObj(t, 1, 1, 4, 5)
	got, err := Difference(a, hole)
	if err != nil {
		t.Fatalf("Difference failed: %v", err)
	}
	mustValid(t, got)
	if got.Size() != 28 {
		t.Errorf("Size = %d, want 28", got.Size())
	}
	if n := len(got.Domain().Line(1)); n != 2 {
		t.Errorf("line 1 has %d intervals, want 2", n)
	}

	self, _ := Difference(a, a)
	if self.Kind() != object.KindEmpty {
		t.Error("a - a should be Empty")
	}

	same, _ := Difference(a, rectObj(t, 20, 20, 20, 20))
	if same.Domain() != a.Domain() {
		t.Error("difference that removes nothing should share a's domain")
	}
}

func TestDifferenceIdentities(t *testing.T) {
	tests := []struct {
		name string
		a, b *object.Object
	}{
		{"rect", rectObj(t, 0, 4, 0, 9), rectObj(t, 2, 6, 3, 5)},
		{"intervals", ringObj(t, 0, 0), combObj(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			same, err := Difference(tt.a, object.NewEmpty())
			if err != nil {
				t.Fatalf("Difference failed: %v", err)
			}
			if !same.Domain().Equal(tt.a.Domain()) || same.Domain() != tt.a.Domain() {
				t.Error("a - Empty should be a, sharing its domain")
			}

			none, _ := Difference(object.NewEmpty(), tt.a)
			if none.Kind() != object.KindEmpty {
				t.Error("Empty - a should be Empty")
			}

			// (a - b) and (a intersect b) split a.
			diff, _ := Difference(tt.a, tt.b)
			both, _ := Intersection([]*object.Object{tt.a, tt.b}, false)
			mustValid(t, diff)
			if ok, _ := HasIntersection(diff, both); ok {
				t.Error("a - b overlaps a intersect b")
			}
			whole, _ := Union([]*object.Object{diff, both}, false)
			if !whole.Domain().Equal(tt.a.Domain()) {
				t.Errorf("(a - b) + (a & b) has %d pixels, want %d", whole.Size(), tt.a.Size())
			}
		})
	}
}

func TestOperationsRefuseUnallocatableResults(t *testing.T) {
	tall := rectObj(t, 0, 1<<40, 0, 3)
	dot := rectObj(t, 5, 5, 1, 1)
	far := rectObj(t, 1<<30, 1<<30, 0, 0)

	if _, err := Union([]*object.Object{dot, far}, false); !errors.Is(err, domain.ErrAllocFailure) {
		t.Errorf("union across 2^30 lines: err = %v, want ErrAllocFailure", err)
	}
	if _, err := Difference(tall, dot); !errors.Is(err, domain.ErrAllocFailure) {
		t.Errorf("difference of a tall rect: err = %v, want ErrAllocFailure", err)
	}
	for _, parallel := range []bool{false, true} {
		if _, err := SymmetricDifference(tall, dot, parallel); !errors.Is(err, domain.ErrAllocFailure) {
			t.Errorf("parallel=%v symmetric difference of a tall rect: err = %v, want ErrAllocFailure", parallel, err)
		}
	}

	// These need no line table for the tall input.
	inside, err := Intersection([]*object.Object{tall, ringObj(t, 0, 0)}, false)
	if err != nil || inside.Size() != 22 {
		t.Errorf("intersection with a ring: size=%d err=%v, want 22", inside.Size(), err)
	}
	rect, err := Intersection([]*object.Object{tall, rectObj(t, 1<<39, 1<<41, 2, 9)}, false)
	if err != nil || rect.Domain().Kind() != domain.KindRect {
		t.Fatalf("intersection of tall rects: err=%v", err)
	}
	if got, want := rect.Size(), int64(1<<39+1)*2; got != want {
		t.Errorf("intersection of tall rects: size = %d, want %d", got, want)
	}
	same, err := Difference(tall, rectObj(t, 5, 5, 10, 10))
	if err != nil || same.Domain() != tall.Domain() {
		t.Errorf("difference with a disjoint dot should share the tall rect: err=%v", err)
	}
}

func TestSymmetricDifference(t *testing.T) {
	a := rectObj(t, 0, 4, 0, 4)
	b := rectObj(t, 2, 6, 2, 6)
	for _, parallel := range []bool{false, true} {
		got, err := SymmetricDifference(a, b, parallel)
		if err != nil {
			t.Fatalf("SymmetricDifference(parallel=%v) failed: %v", parallel, err)
		}
		mustValid(t, got)
		if got.Size() != 32 {
			t.Errorf("parallel=%v: Size = %d, want 32", parallel, got.Size())
		}
		if ok, _ := HasIntersection(got, rectObj(t, 2, 4, 2, 4)); ok {
			t.Errorf("parallel=%v: overlap region should be removed", parallel)
		}
	}
	if a.Domain().LinkCount() != 1 || b.Domain().LinkCount() != 1 {
		t.Error("inputs should be left with their original links")
	}
}

func TestHasIntersectionAndErrors(t *testing.T) {
	a := rectObj(t, 0, 1, 0, 1)
	if ok, _ := HasIntersection(a, rectObj(t, 1, 1, 1, 5)); !ok {
		t.Error("HasIntersection should find the shared corner")
	}
	if ok, _ := HasIntersection(a, rectObj(t, 0, 1, 2, 3)); ok {
		t.Error("adjacent rects do not intersect")
	}

	vol := volume(t, map[int]*domain.IntervalDomain{0: mustDomain(t, 0, 0, 0, 0)})
	if _, err := Union([]*object.Object{a, vol}, false); !errors.Is(err, domain.ErrTypeMismatch) {
		t.Errorf("mixed kinds: err = %v", err)
	}
	if _, err := Intersection([]*object.Object{a, nil}, false); !errors.Is(err, domain.ErrNullInput) {
		t.Errorf("nil input: err = %v", err)
	}
	object.Free(a)
	if _, err := Difference(a, vol); !errors.Is(err, domain.ErrNullInput) {
		t.Errorf("released input: err = %v", err)
	}
}

func mustDomain(t *testing.T, line1, lastln, kol1, lastkl int) *domain.IntervalDomain {
	t.Helper()
	d, err := domain.NewRect(line1, lastln, kol1, lastkl)
	if err != nil {
		t.Fatalf("NewRect failed: %v", err)
	}
	return d
}

func TestVolumeOperations(t *testing.T) {
	a := volume(t, map[int]*domain.IntervalDomain{
		0: mustDomain(t, 0, 1, 0, 1),
		1: mustDomain(t, 0, 1, 0, 1),
	})
	b := volume(t, map[int]*domain.IntervalDomain{
		1: mustDomain(t, 1, 2, 1, 2),
		2: mustDomain(t, 0, 0, 0, 0),
	})

	u, err := Union([]*object.Object{a, b}, false)
	if err != nil {
		t.Fatalf("Union failed: %v", err)
	}
	mustValid(t, u)
	if u.Size() != 4+7+1 {
		t.Errorf("union volume = %d, want 12", u.Size())
	}

	// Plane 0 is missing from b and plane 2 from a, so only plane 1 remains.
	in, err := Intersection([]*object.Object{a, b}, false)
	if err != nil {
		t.Fatalf("Intersection failed: %v", err)
	}
	if in.Size() != 1 {
		t.Errorf("intersection volume = %d, want 1", in.Size())
	}
	if box := in.BBox(); box.Plane1 != 1 || box.LastPl != 1 {
		t.Errorf("intersection planes %d..%d, want 1..1", box.Plane1, box.LastPl)
	}

	diff, err := Difference(a, b)
	if err != nil {
		t.Fatalf("Difference failed: %v", err)
	}
	if diff.Size() != 7 {
		t.Errorf("difference volume = %d, want 7", diff.Size())
	}
	// Plane 0 is untouched by b and is shared, not copied.
	if diff.Planes().Plane(0) != a.Planes().Plane(0) {
		t.Error("untouched plane should be shared")
	}

	x, err := SymmetricDifference(a, b, true)
	if err != nil {
		t.Fatalf("SymmetricDifference failed: %v", err)
	}
	if x.Size() != 12-1 {
		t.Errorf("xor volume = %d, want 11", x.Size())
	}
}

func TestComplement(t *testing.T) {
	obj := rectObj(t, 1, 1, 1, 1)
	c, err := Complement(obj, domain.BBox{Line1: 0, LastLn: 2, Kol1: 0, LastKl: 2})
	if err != nil {
		t.Fatalf("Complement failed: %v", err)
	}
	if c.Size() != 8 || c.Domain().Contains(1, 1) {
		t.Errorf("Complement size = %d", c.Size())
	}
}
