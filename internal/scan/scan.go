package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/region-tools-mcp/internal/domain"
	"github.com/ironsheep/region-tools-mcp/internal/object"
)

// Direction selects the raster order of a scan.
type Direction int

const (
	// ILIC scans lines and columns in increasing order.
	ILIC Direction = iota
	// ILDC scans lines increasing, columns decreasing.
	ILDC
	// DLIC scans lines decreasing, columns increasing.
	DLIC
	// DLDC scans lines and columns in decreasing order.
	DLDC
)

func (d Direction) String() string {
	switch d {
	case ILIC:
		return "ILIC"
	case ILDC:
		return "ILDC"
	case DLIC:
		return "DLIC"
	case DLDC:
		return "DLDC"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection accepts the names printed by Direction.String, in any
// case. An empty string gives ILIC.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(s) {
	case "", "ILIC":
		return ILIC, nil
	case "ILDC":
		return ILDC, nil
	case "DLIC":
		return DLIC, nil
	case "DLDC":
		return DLDC, nil
	}
	return 0, fmt.Errorf("scan direction %q: %w", s, domain.ErrUnsupported)
}

// Span is one interval reported by a scan.
type Span struct {
	Plane int
	Line  int
	Left  int
	Right int

	// NewLine is set on the first span reported for a line.
	NewLine bool
}

// Len returns the number of columns in the span.
func (s Span) Len() int { return s.Right - s.Left + 1 }

// Option configures a scan.
type Option func(*config)

type config struct {
	dir Direction
	ctx context.Context
}

// WithDirection sets the raster order. The default is ILIC.
func WithDirection(d Direction) Option {
	return func(c *config) { c.dir = d }
}

// WithContext makes every Next call return ctx.Err() once ctx is done.
func WithContext(ctx context.Context) Option {
	return func(c *config) { c.ctx = ctx }
}

type planeRef struct {
	plane int
	dom   *domain.IntervalDomain
}

// IntervalScan walks the intervals of an object in raster order: planes
// ascending, then lines, then intervals within a line, with the line and
// column order set by the scan direction. A Rect domain yields one interval
// per line.
//
// Next returns ErrEndOfObject once every interval has been reported and keeps
// returning it until Reset.
//
//	s, err := scan.NewIntervalScan(obj)
//	if err != nil {
//	    return err
//	}
//	for {
//	    sp, err := s.Next()
//	    if errors.Is(err, domain.ErrEndOfObject) {
//	        break
//	    }
//	    ...
//	}
type IntervalScan struct {
	cfg    config
	planes []planeRef

	pi     int
	li     int
	ii     int
	ivs    []domain.Interval
	loaded bool
}

// NewIntervalScan binds a scan to obj. The object must stay alive for the
// life of the scan.
//
// # Errors
//
//   - Returns ErrNullInput if obj is nil or released
//   - Returns ErrUnsupported for an unknown direction
func NewIntervalScan(obj *object.Object, opts ...Option) (*IntervalScan, error) {
	if err := obj.Check(); err != nil {
		return nil, fmt.Errorf("interval scan: %w", err)
	}
	s := &IntervalScan{}
	for _, opt := range opts {
		opt(&s.cfg)
	}
	if s.cfg.dir < ILIC || s.cfg.dir > DLDC {
		return nil, fmt.Errorf("scan %s: %w", s.cfg.dir, domain.ErrUnsupported)
	}

	switch obj.Kind() {
	case object.Kind2D:
		s.planes = []planeRef{{dom: obj.Domain()}}
	case object.Kind3D:
		pd := obj.Planes()
		box := pd.BBox()
		for p := box.Plane1; p <= box.LastPl; p++ {
			if d := pd.Plane(p); !d.IsEmpty() {
				s.planes = append(s.planes, planeRef{plane: p, dom: d})
			}
		}
	}
	return s, nil
}

// NewDomainScan scans a bare planar domain, reporting plane 0.
func NewDomainScan(d *domain.IntervalDomain, opts ...Option) (*IntervalScan, error) {
	if d == nil || d.Released() {
		return nil, fmt.Errorf("domain scan: %w", domain.ErrNullInput)
	}
	s := &IntervalScan{}
	for _, opt := range opts {
		opt(&s.cfg)
	}
	if s.cfg.dir < ILIC || s.cfg.dir > DLDC {
		return nil, fmt.Errorf("scan %s: %w", s.cfg.dir, domain.ErrUnsupported)
	}
	if !d.IsEmpty() {
		s.planes = []planeRef{{dom: d}}
	}
	return s, nil
}

// Direction returns the raster order of the scan.
func (s *IntervalScan) Direction() Direction { return s.cfg.dir }

// Reset restarts the scan from its first interval.
func (s *IntervalScan) Reset() {
	s.pi, s.li, s.ii = 0, 0, 0
	s.ivs, s.loaded = nil, false
}

// Next returns the next interval, ErrEndOfObject when the scan is exhausted,
// or the context's error when the scan's context is done.
func (s *IntervalScan) Next() (Span, error) {
	if s.cfg.ctx != nil {
		if err := s.cfg.ctx.Err(); err != nil {
			return Span{}, err
		}
	}
	lineDown := s.cfg.dir == DLIC || s.cfg.dir == DLDC
	colDown := s.cfg.dir == ILDC || s.cfg.dir == DLDC

	for s.pi < len(s.planes) {
		ref := s.planes[s.pi]
		box := ref.dom.BBox()
		n := box.Lines()
		for s.li < n {
			line := box.Line1 + s.li
			if lineDown {
				line = box.LastLn - s.li
			}
			if !s.loaded {
				s.ivs = ref.dom.Line(line)
				s.ii = 0
				s.loaded = true
			}
			if s.ii < len(s.ivs) {
				k := s.ii
				if colDown {
					k = len(s.ivs) - 1 - s.ii
				}
				iv := s.ivs[k]
				sp := Span{Plane: ref.plane, Line: line, Left: iv.Left, Right: iv.Right, NewLine: s.ii == 0}
				s.ii++
				return sp, nil
			}
			s.loaded = false
			s.li++
		}
		s.li = 0
		s.pi++
	}
	return Span{}, domain.ErrEndOfObject
}

// Collect drains s and returns every remaining span. It stops early with
// the error from Next if that error is not ErrEndOfObject.
func Collect(s *IntervalScan) ([]Span, error) {
	var out []Span
	for {
		sp, err := s.Next()
		if errors.Is(err, domain.ErrEndOfObject) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, sp)
	}
}
