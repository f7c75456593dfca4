// Package scan provides iterators over the intervals of a domain object.
//
// IntervalScan reports intervals in strict raster order and GreyScan adds the
// position of each interval's samples. Both signal exhaustion with
// domain.ErrEndOfObject, which ends a loop rather than reporting a failure.
// Set operations, labeling and morphology all depend on the ascending order
// produced by the default ILIC direction.
package scan
