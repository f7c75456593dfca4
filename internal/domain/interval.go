package domain

import "sort"

// Interval is a closed run of columns [Left, Right] on a single line.
type Interval struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Len returns the number of columns covered by the interval.
func (iv Interval) Len() int { return iv.Right - iv.Left + 1 }

// Contains reports whether column k lies inside the interval.
func (iv Interval) Contains(k int) bool { return k >= iv.Left && k <= iv.Right }

// Touches reports whether two intervals overlap or sit side by side, which
// is the condition under which they merge into one run.
func (iv Interval) Touches(o Interval) bool {
	return o.Left <= iv.Right+1 && iv.Left <= o.Right+1
}

// A line is a slice of intervals. Every line held by a domain is
// normalized: sorted by Left, no two intervals overlapping or adjacent.

// NormalizeLine sorts a line and merges every pair of touching intervals.
// Intervals with Right < Left are discarded. The input slice may be reused.
func NormalizeLine(line []Interval) []Interval {
	if len(line) == 0 {
		return nil
	}
	sorted := true
	for i := 1; i < len(line); i++ {
		if line[i].Left < line[i-1].Left {
			sorted = false
			break
		}
	}
	if !sorted {
		sort.Slice(line, func(i, j int) bool { return line[i].Left < line[j].Left })
	}
	out := line[:0]
	for _, iv := range line {
		if iv.Right < iv.Left {
			continue
		}
		if n := len(out); n > 0 && iv.Left <= out[n-1].Right+1 {
			if iv.Right > out[n-1].Right {
				out[n-1].Right = iv.Right
			}
			continue
		}
		out = append(out, iv)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// LineArea returns the number of columns covered by a normalized line.
func LineArea(line []Interval) int64 {
	var n int64
	for _, iv := range line {
		n += int64(iv.Len())
	}
	return n
}

// UnionLines merges any number of normalized lines into one normalized line.
func UnionLines(lines ...[]Interval) []Interval {
	switch len(lines) {
	case 0:
		return nil
	case 1:
		return append([]Interval(nil), lines[0]...)
	case 2:
		return unionPair(lines[0], lines[1])
	}
	total := 0
	for _, l := range lines {
		total += len(l)
	}
	all := make([]Interval, 0, total)
	for _, l := range lines {
		all = append(all, l...)
	}
	return NormalizeLine(all)
}

func unionPair(a, b []Interval) []Interval {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]Interval, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var next Interval
		if j >= len(b) || (i < len(a) && a[i].Left <= b[j].Left) {
			next = a[i]
			i++
		} else {
			next = b[j]
			j++
		}
		if n := len(out); n > 0 && next.Left <= out[n-1].Right+1 {
			if next.Right > out[n-1].Right {
				out[n-1].Right = next.Right
			}
			continue
		}
		out = append(out, next)
	}
	return out
}

// IntersectLines returns the columns common to two normalized lines. Touching
// intervals share no column and so produce nothing.
func IntersectLines(a, b []Interval) []Interval {
	var out []Interval
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := max(a[i].Left, b[j].Left)
		hi := min(a[i].Right, b[j].Right)
		if lo <= hi {
			out = append(out, Interval{Left: lo, Right: hi})
		}
		if a[i].Right < b[j].Right {
			i++
		} else {
			j++
		}
	}
	return out
}

// DiffLines returns the columns of a that are not in b. Each interval of a
// splits into zero, one or two pieces per overlapping interval of b.
func DiffLines(a, b []Interval) []Interval {
	if len(b) == 0 {
		return append([]Interval(nil), a...)
	}
	var out []Interval
	j := 0
	for _, iv := range a {
		left := iv.Left
		for j < len(b) && b[j].Right < left {
			j++
		}
		for k := j; k < len(b) && b[k].Left <= iv.Right; k++ {
			if b[k].Left > left {
				out = append(out, Interval{Left: left, Right: b[k].Left - 1})
			}
			if b[k].Right+1 > left {
				left = b[k].Right + 1
			}
		}
		if left <= iv.Right {
			out = append(out, Interval{Left: left, Right: iv.Right})
		}
	}
	return out
}

// WidenLine grows every interval by n columns on each side and merges the
// results.
func WidenLine(line []Interval, n int) []Interval {
	if len(line) == 0 {
		return nil
	}
	out := make([]Interval, 0, len(line))
	for _, iv := range line {
		next := Interval{Left: iv.Left - n, Right: iv.Right + n}
		if m := len(out); m > 0 && next.Left <= out[m-1].Right+1 {
			out[m-1].Right = next.Right
			continue
		}
		out = append(out, next)
	}
	return out
}

// ShrinkLine removes n columns from each end of every interval, dropping
// intervals that vanish.
func ShrinkLine(line []Interval, n int) []Interval {
	var out []Interval
	for _, iv := range line {
		if iv.Right-iv.Left >= 2*n {
			out = append(out, Interval{Left: iv.Left + n, Right: iv.Right - n})
		}
	}
	return out
}

// OverlapsLines reports whether two normalized lines share at least one
// column once b is extended by slack columns on each side.
func OverlapsLines(a, b []Interval, slack int) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		bl, br := b[j].Left-slack, b[j].Right+slack
		if a[i].Right < bl {
			i++
			continue
		}
		if br < a[i].Left {
			j++
			continue
		}
		return true
	}
	return false
}
