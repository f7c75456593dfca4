package label

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/morph"
	"github.com/ironsheep/region-tools-mcp/internal/object"
	"github.com/ironsheep/region-tools-mcp/internal/scan"
	"github.com/ironsheep/region-tools-mcp/internal/setops"
)

// OverflowPolicy decides what Label does when more components survive than
// Options.MaxCount allows.
type OverflowPolicy int

const (
	// OverflowTruncate returns the first MaxCount components in discovery
	// order and drops the rest.
	OverflowTruncate OverflowPolicy = iota

	// OverflowFail releases every component and returns
	// ErrTooManyComponents.
	OverflowFail
)

func (p OverflowPolicy) String() string {
	if p == OverflowFail {
		return "fail"
	}
	return "truncate"
}

// ParseOverflowPolicy accepts "truncate" or "fail".
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "", "truncate":
		return OverflowTruncate, nil
	case "fail":
		return OverflowFail, nil
	}
	return 0, fmt.Errorf("overflow policy %q: %w", s, domain.ErrUnsupported)
}

// Options controls a labeling run.
type Options struct {
	// Connectivity is 4 or 8 for planar objects and 6, 18 or 26 for
	// volumes.
	Connectivity domain.Connectivity

	// MinLines drops components whose bounding box spans fewer lines.
	// Zero or one keeps everything.
	MinLines int

	// MaxCount caps the number of components returned. Zero or less means
	// no cap.
	MaxCount int

	// Overflow applies when more than MaxCount components survive.
	Overflow OverflowPolicy

	// Context, when set, is checked before every interval of the sweep.
	Context context.Context
}

func (o Options) scanOptions() []scan.Option {
	if o.Context == nil {
		return nil
	}
	return []scan.Option{scan.WithContext(o.Context)}
}

// Result holds the components found by Label.
type Result struct {
	// Objects are the components in discovery order. Each holds one link
	// owned by the caller.
	Objects []*object.Object

	// Truncated is set when components were dropped by the MaxCount cap.
	Truncated bool
}

// Count returns the number of components.
func (r *Result) Count() int { return len(r.Objects) }

// Free releases every component.
func (r *Result) Free() {
	object.FreeAll(r.Objects)
	r.Objects = nil
}

// Label splits obj into its connected components.
//
// Planar objects are swept once from the top line down. Each interval is
// compared with the intervals of the previous line, with exact column
// overlap for 4 connectivity or overlap widened by one column for 8
// connectivity, and touching intervals are merged in a union-find local to
// the call. Components are returned in the order their first interval is
// met in raster order. Volumes are labeled plane by plane and fragments in
// adjacent planes are then merged.
//
// Every component shares obj's values; obj itself is not modified.
//
// # Errors
//
//   - Returns ErrNullInput if obj is nil or released
//   - Returns ErrUnsupported for a connectivity that does not suit obj
//   - Returns ErrTooManyComponents under OverflowFail
func Label(obj *object.Object, opts Options) (*Result, error) {
	if err := obj.Check(); err != nil {
		return nil, fmt.Errorf("label: %w", err)
	}
	var (
		objs []*object.Object
		err  error
	)
	switch obj.Kind() {
	case object.Kind2D:
		if !opts.Connectivity.Is2D() {
			return nil, fmt.Errorf("label planar object with %s: %w", opts.Connectivity, domain.ErrUnsupported)
		}
		objs, err = label2D(obj, opts)
	case object.Kind3D:
		if !opts.Connectivity.Is3D() {
			return nil, fmt.Errorf("label volume with %s: %w", opts.Connectivity, domain.ErrUnsupported)
		}
		objs, err = label3D(obj, opts)
	default:
		if !opts.Connectivity.Is2D() && !opts.Connectivity.Is3D() {
			return nil, fmt.Errorf("label with %s: %w", opts.Connectivity, domain.ErrUnsupported)
		}
		return &Result{}, nil
	}
	if err != nil {
		object.FreeAll(objs)
		return nil, fmt.Errorf("label: %w", err)
	}

	res := &Result{Objects: objs}
	if opts.MaxCount > 0 && len(objs) > opts.MaxCount {
		if opts.Overflow == OverflowFail {
			res.Free()
			return nil, fmt.Errorf("label: %d components exceed limit %d: %w", len(objs), opts.MaxCount, domain.ErrTooManyComponents)
		}
		object.FreeAll(objs[opts.MaxCount:])
		res.Objects = objs[:opts.MaxCount:opts.MaxCount]
		res.Truncated = true
	}
	return res, nil
}

// run is one interval seen during the sweep.
type run struct {
	line int
	iv   domain.Interval
}

// components labels a planar domain and returns, in discovery order, the
// runs making up each component.
func components(d *domain.IntervalDomain, conn domain.Connectivity, opts []scan.Option) ([][]run, error) {
	if d.IsEmpty() {
		return nil, nil
	}
	s, err := scan.NewDomainScan(d, opts...)
	if err != nil {
		return nil, err
	}

	slack := 0
	if conn == domain.Conn8 {
		slack = 1
	}

	var (
		runs []run
		uf   unionFind
		prev []int
		cur  []int
		j    int
	)
	line := d.BBox().Line1 - 2
	for {
		sp, err := s.Next()
		if errors.Is(err, domain.ErrEndOfObject) {
			break
		}
		if err != nil {
			return nil, err
		}
		if sp.NewLine {
			if sp.Line == line+1 {
				prev = cur
			} else {
				prev = nil
			}
			cur, j, line = cur[:0:0], 0, sp.Line
		}
		id := uf.add()
		runs = append(runs, run{line: sp.Line, iv: domain.Interval{Left: sp.Left, Right: sp.Right}})
		cur = append(cur, id)

		// Both lines are in ascending column order, so the first candidate
		// on the previous line only moves right.
		for j < len(prev) && runs[prev[j]].iv.Right+slack < sp.Left {
			j++
		}
		for k := j; k < len(prev) && runs[prev[k]].iv.Left-slack <= sp.Right; k++ {
			uf.union(prev[k], id)
		}
	}

	order := make(map[int]int)
	var out [][]run
	for id, r := range runs {
		root := uf.find(id)
		idx, ok := order[root]
		if !ok {
			idx = len(out)
			order[root] = idx
			out = append(out, nil)
		}
		out[idx] = append(out[idx], r)
	}
	return out, nil
}

func buildDomain(runs []run) *domain.IntervalDomain {
	b := domain.NewBuilder()
	for _, r := range runs {
		_ = b.Add(r.line, r.iv.Left, r.iv.Right)
	}
	return b.Build()
}

func label2D(obj *object.Object, opts Options) ([]*object.Object, error) {
	d := obj.Domain()
	if opts.Context != nil {
		if err := opts.Context.Err(); err != nil {
			return nil, err
		}
	}
	// A rectangle is one component under either connectivity.
	if d.Kind() == domain.KindRect {
		if d.BBox().Lines() < opts.MinLines {
			return nil, nil
		}
		o, err := object.New2D(d.Assign(), obj.Values().Assign())
		if err != nil {
			return nil, err
		}
		return []*object.Object{o}, nil
	}
	comps, err := components(d, opts.Connectivity, opts.scanOptions())
	if err != nil {
		return nil, err
	}

	var out []*object.Object
	for _, runs := range comps {
		if lines := runs[len(runs)-1].line - runs[0].line + 1; lines < opts.MinLines {
			continue
		}
		o, err := object.New2D(buildDomain(runs), obj.Values().Assign())
		if err != nil {
			return out, err
		}
		out = append(out, o)
	}
	return out, nil
}

// fragment is a planar component within one plane of a volume.
type fragment struct {
	plane int
	dom   *domain.IntervalDomain
	grown *domain.IntervalDomain
}

func label3D(obj *object.Object, opts Options) ([]*object.Object, error) {
	inPlane, err := opts.Connectivity.Planar()
	if err != nil {
		return nil, err
	}
	var across domain.Connectivity
	switch opts.Connectivity {
	case domain.Conn18:
		across = domain.Conn4
	case domain.Conn26:
		across = domain.Conn8
	}

	pd := obj.Planes()
	box := pd.BBox()
	var frags []fragment
	defer func() {
		for _, f := range frags {
			f.dom.Free()
			f.grown.Free()
		}
	}()
	var uf unionFind
	prevStart, prevEnd := 0, 0
	for p := box.Plane1; p <= box.LastPl; p++ {
		start := len(frags)
		comps, err := components(pd.Plane(p), inPlane, opts.scanOptions())
		if err != nil {
			return nil, err
		}
		for _, runs := range comps {
			f := fragment{plane: p, dom: buildDomain(runs)}
			if across != 0 {
				g, err := morph.DilateDomain(f.dom, across)
				if err != nil {
					f.dom.Free()
					return nil, err
				}
				f.grown = g
			} else {
				f.grown = f.dom.Assign()
			}
			frags = append(frags, f)
			uf.add()
			id := len(frags) - 1
			for q := prevStart; q < prevEnd; q++ {
				if frags[q].plane != p-1 {
					continue
				}
				// The neighbourhood relation is symmetric, so widening
				// one side of the pair is enough.
				if setops.DomainsIntersect(frags[q].grown, f.dom) {
					uf.union(q, id)
				}
			}
		}
		prevStart, prevEnd = start, len(frags)
	}

	order := make(map[int]int)
	var groups [][]int
	for id := range frags {
		root := uf.find(id)
		idx, ok := order[root]
		if !ok {
			idx = len(groups)
			order[root] = idx
			groups = append(groups, nil)
		}
		groups[idx] = append(groups[idx], id)
	}

	var out []*object.Object
	for _, g := range groups {
		first, last := frags[g[0]].plane, frags[g[len(g)-1]].plane
		comp, err := domain.NewPlaneDomain(first, last, pd.VoxelSize())
		if err != nil {
			return out, err
		}
		var lineBox domain.BBox
		for i, id := range g {
			f := frags[id]
			merged, err := setops.UnionDomains(comp.Plane(f.plane), f.dom)
			if err != nil {
				comp.Free()
				return out, err
			}
			if err := comp.SetPlane(f.plane, merged); err != nil {
				comp.Free()
				return out, err
			}
			if i == 0 {
				lineBox = f.dom.BBox()
			} else {
				lineBox = lineBox.Union(f.dom.BBox())
			}
		}
		if lineBox.Lines() < opts.MinLines {
			comp.Free()
			continue
		}
		o, err := object.New3D(comp, obj.VoxelValues().Assign())
		if err != nil {
			return out, err
		}
		out = append(out, o)
	}
	return out, nil
}
