package domain

import (
	"fmt"
	"sort"
)

// Kind tags the representation held by an IntervalDomain.
type Kind int

const (
	// KindEmpty covers no pixels.
	KindEmpty Kind = iota

	// KindRect is a solid rectangle described by its bounding box alone.
	KindRect

	// KindIntervals stores one normalized line of intervals per line of
	// the bounding box.
	KindIntervals
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindRect:
		return "rect"
	case KindIntervals:
		return "intervals"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IntervalDomain is the shape of a planar region: a set of pixels stored as
// per-line runs of columns.
//
// A domain is one of three kinds. An Empty domain covers nothing and has no
// meaningful bounding box. A Rect domain is a solid rectangle and stores no
// per-line data; every consumer treats it as one interval per line. An
// Intervals domain stores, for each line of its bounding box, a sorted list of
// non-overlapping, non-adjacent intervals. Its bounding box is always tight:
// the first and last lines hold at least one interval, and the first and last
// columns are reached by some interval.
//
// Domains are immutable once built and may be shared by several objects. The
// link count governs sharing: constructors return a domain holding one link,
// Assign adds a link and Free drops one.
//
// # Example Usage
//
//	b := domain.NewBuilder()
//	b.Add(0, 0, 2)
//	b.Add(0, 5, 7)
//	d := b.Build()
//	defer d.Free()
//	fmt.Println(d.Area()) // 6
type IntervalDomain struct {
	kind  Kind
	box   BBox
	lines [][]Interval
	refs  RefCount
}

// NewEmpty returns an empty domain holding one link.
func NewEmpty() *IntervalDomain {
	d := &IntervalDomain{kind: KindEmpty}
	d.refs.Init()
	return d
}

// NewRect returns a solid rectangular domain covering lines line1..lastln and
// columns kol1..lastkl inclusive.
//
// # Errors
//
//   - Returns ErrDomainDataInvalid if lastln < line1 or lastkl < kol1, or
//     if the line, column or pixel count does not fit in an int
func NewRect(line1, lastln, kol1, lastkl int) (*IntervalDomain, error) {
	box := BBox{Line1: line1, LastLn: lastln, Kol1: kol1, LastKl: lastkl}
	if !box.Addressable() {
		return nil, fmt.Errorf("rect %s: %w", box, ErrDomainDataInvalid)
	}
	d := &IntervalDomain{kind: KindRect, box: box}
	d.refs.Init()
	return d, nil
}

// FromLines builds a domain whose first line index is line1 and whose i-th
// line holds lines[i]. Each line is normalized, empty lines at either end are
// trimmed and the bounding box is recomputed. When nothing remains an Empty
// domain is returned. The slices in lines are adopted and may be modified.
func FromLines(line1 int, lines [][]Interval) *IntervalDomain {
	first, last := -1, -1
	for i := range lines {
		lines[i] = NormalizeLine(lines[i])
		if len(lines[i]) > 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return NewEmpty()
	}
	lines = lines[first : last+1]
	box := BBox{
		Line1:  line1 + first,
		LastLn: line1 + last,
		Kol1:   lines[0][0].Left,
		LastKl: lines[0][len(lines[0])-1].Right,
	}
	for _, l := range lines[1:] {
		if len(l) == 0 {
			continue
		}
		box.Kol1 = min(box.Kol1, l[0].Left)
		box.LastKl = max(box.LastKl, l[len(l)-1].Right)
	}
	d := &IntervalDomain{kind: KindIntervals, box: box, lines: lines}
	d.refs.Init()
	return d
}

// Assign adds a link to d and returns it. Assign on nil returns nil.
func (d *IntervalDomain) Assign() *IntervalDomain {
	if d != nil {
		d.refs.Acquire()
	}
	return d
}

// Free drops a link. When the last link is dropped the interval storage is
// cleared and the domain reads as empty. Free on nil or on a released domain
// does nothing.
func (d *IntervalDomain) Free() {
	if d == nil {
		return
	}
	if d.refs.Release() {
		d.kind = KindEmpty
		d.box = BBox{}
		d.lines = nil
	}
}

// LinkCount reports the number of outstanding links.
func (d *IntervalDomain) LinkCount() int32 { return d.refs.Count() }

// Released reports whether every link to d has been dropped.
func (d *IntervalDomain) Released() bool { return d == nil || d.refs.Released() }

// Kind returns the representation tag.
func (d *IntervalDomain) Kind() Kind { return d.kind }

// IsEmpty reports whether the domain covers no pixels.
func (d *IntervalDomain) IsEmpty() bool { return d == nil || d.kind == KindEmpty }

// BBox returns the tight bounding box. It is the zero box for Empty domains.
func (d *IntervalDomain) BBox() BBox { return d.box }

// Line returns the intervals on line l, or nil when the line is outside the
// domain. Rect domains yield a single synthetic interval. The returned slice
// must not be modified.
func (d *IntervalDomain) Line(l int) []Interval {
	if d.IsEmpty() || l < d.box.Line1 || l > d.box.LastLn {
		return nil
	}
	switch d.kind {
	case KindRect:
		return []Interval{{Left: d.box.Kol1, Right: d.box.LastKl}}
	case KindIntervals:
		return d.lines[l-d.box.Line1]
	default:
		return nil
	}
}

// Contains reports whether pixel (l, k) belongs to the domain.
func (d *IntervalDomain) Contains(l, k int) bool {
	if d.IsEmpty() || !d.box.Contains(l, k) {
		return false
	}
	if d.kind == KindRect {
		return true
	}
	line := d.lines[l-d.box.Line1]
	i := sort.Search(len(line), func(i int) bool { return line[i].Right >= k })
	return i < len(line) && line[i].Left <= k
}

// Area returns the number of pixels covered.
func (d *IntervalDomain) Area() int64 {
	switch {
	case d.IsEmpty():
		return 0
	case d.kind == KindRect:
		return int64(d.box.Lines()) * int64(d.box.Cols())
	}
	var n int64
	for _, l := range d.lines {
		n += LineArea(l)
	}
	return n
}

// IntervalCount returns the total number of intervals.
func (d *IntervalDomain) IntervalCount() int {
	switch {
	case d.IsEmpty():
		return 0
	case d.kind == KindRect:
		return d.box.Lines()
	}
	n := 0
	for _, l := range d.lines {
		n += len(l)
	}
	return n
}

// MaxIntervalsPerLine returns the largest number of intervals on any line.
func (d *IntervalDomain) MaxIntervalsPerLine() int {
	switch {
	case d.IsEmpty():
		return 0
	case d.kind == KindRect:
		return 1
	}
	n := 0
	for _, l := range d.lines {
		n = max(n, len(l))
	}
	return n
}

// ForEachLine calls fn for every line of the bounding box in ascending
// order, including lines that hold no intervals.
func (d *IntervalDomain) ForEachLine(fn func(line int, ivs []Interval)) {
	if d.IsEmpty() {
		return
	}
	for l := d.box.Line1; l <= d.box.LastLn; l++ {
		fn(l, d.Line(l))
	}
}

// Shift returns a new domain translated by dl lines and dk columns. A Rect
// moved out of the addressable range gives Empty.
func (d *IntervalDomain) Shift(dl, dk int) *IntervalDomain {
	switch {
	case d.IsEmpty():
		return NewEmpty()
	case d.kind == KindRect:
		b := d.box
		r, err := NewRect(b.Line1+dl, b.LastLn+dl, b.Kol1+dk, b.LastKl+dk)
		if err != nil {
			return NewEmpty()
		}
		return r
	}
	lines := make([][]Interval, len(d.lines))
	for i, l := range d.lines {
		out := make([]Interval, len(l))
		for j, iv := range l {
			out[j] = Interval{Left: iv.Left + dk, Right: iv.Right + dk}
		}
		lines[i] = out
	}
	return FromLines(d.box.Line1+dl, lines)
}

// Equal reports whether two domains cover exactly the same pixels,
// regardless of representation.
func (d *IntervalDomain) Equal(o *IntervalDomain) bool {
	if d.IsEmpty() || o.IsEmpty() {
		return d.IsEmpty() && o.IsEmpty()
	}
	if d.box != o.box {
		return false
	}
	for l := d.box.Line1; l <= d.box.LastLn; l++ {
		a, b := d.Line(l), o.Line(l)
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// Validate checks the structural rules of the domain: intervals sorted,
// non-overlapping and non-adjacent on every line, and a tight bounding box.
//
// # Errors
//
//   - Returns ErrNullInput if d is nil or released
//   - Returns ErrDomainDataInvalid describing the first violation found
func (d *IntervalDomain) Validate() error {
	if d == nil || d.Released() {
		return ErrNullInput
	}
	switch d.kind {
	case KindEmpty:
		return nil
	case KindRect:
		if !d.box.Valid() {
			return fmt.Errorf("rect %s: %w", d.box, ErrDomainDataInvalid)
		}
		return nil
	case KindIntervals:
	default:
		return fmt.Errorf("%s: %w", d.kind, ErrDomainDataInvalid)
	}

	if len(d.lines) != d.box.Lines() {
		return fmt.Errorf("%d lines stored for box %s: %w", len(d.lines), d.box, ErrDomainDataInvalid)
	}
	if len(d.lines[0]) == 0 || len(d.lines[len(d.lines)-1]) == 0 {
		return fmt.Errorf("empty first or last line: %w", ErrDomainDataInvalid)
	}
	kol1, lastkl := d.lines[0][0].Left, d.lines[0][0].Right
	for i, line := range d.lines {
		for j, iv := range line {
			if iv.Right < iv.Left {
				return fmt.Errorf("line %d: reversed interval [%d,%d]: %w",
					d.box.Line1+i, iv.Left, iv.Right, ErrDomainDataInvalid)
			}
			if j > 0 && iv.Left <= line[j-1].Right+1 {
				return fmt.Errorf("line %d: interval [%d,%d] touches [%d,%d]: %w",
					d.box.Line1+i, iv.Left, iv.Right, line[j-1].Left, line[j-1].Right, ErrDomainDataInvalid)
			}
			kol1 = min(kol1, iv.Left)
			lastkl = max(lastkl, iv.Right)
		}
	}
	if kol1 != d.box.Kol1 || lastkl != d.box.LastKl {
		return fmt.Errorf("columns %d..%d do not match box %s: %w", kol1, lastkl, d.box, ErrDomainDataInvalid)
	}
	return nil
}

// Builder accumulates intervals line by line and produces a normalized
// domain. Intervals may be added in any order; touching intervals merge.
// The lines added may span at most MaxLines.
type Builder struct {
	lines       map[int][]Interval
	first, last int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{lines: make(map[int][]Interval)}
}

// Add records the interval [left, right] on line l.
//
// # Errors
//
//   - Returns ErrDomainDataInvalid if right < left
//   - Returns ErrAllocFailure if the lines added would span more than MaxLines
func (b *Builder) Add(l, left, right int) error {
	if right < left {
		return fmt.Errorf("line %d: interval [%d,%d]: %w", l, left, right, ErrDomainDataInvalid)
	}
	if err := b.reach(l); err != nil {
		return err
	}
	b.lines[l] = append(b.lines[l], Interval{Left: left, Right: right})
	return nil
}

// AddLine records every interval of ivs on line l. It fails like Add when
// the line would stretch the builder past MaxLines.
func (b *Builder) AddLine(l int, ivs []Interval) error {
	if len(ivs) == 0 {
		return nil
	}
	if err := b.reach(l); err != nil {
		return err
	}
	b.lines[l] = append(b.lines[l], ivs...)
	return nil
}

// reach widens the builder's line range to include l.
func (b *Builder) reach(l int) error {
	if len(b.lines) == 0 {
		b.first, b.last = l, l
		return nil
	}
	first, last := min(b.first, l), max(b.last, l)
	n, ok := span(first, last)
	if !ok {
		return fmt.Errorf("lines %d..%d: %w", first, last, ErrAllocFailure)
	}
	if err := CheckLines(n); err != nil {
		return err
	}
	b.first, b.last = first, last
	return nil
}

// Build returns the accumulated domain and resets the builder.
func (b *Builder) Build() *IntervalDomain {
	if len(b.lines) == 0 {
		return NewEmpty()
	}
	first, last := b.first, b.last
	lines := make([][]Interval, last-first+1)
	for l, ivs := range b.lines {
		lines[l-first] = ivs
	}
	b.lines = make(map[int][]Interval)
	return FromLines(first, lines)
}
