// Package domain provides the shape model for planar and volumetric regions.
//
// A region is stored as runs of columns on each line rather than as a pixel
// mask, so its cost grows with the length of its boundary instead of its
// area. The package defines the interval primitives, the IntervalDomain and
// PlaneDomain containers, connectivity values, and the error values shared by
// every package that operates on regions.
//
// # Coordinates
//
// Lines are rows and columns ("kols") are the horizontal axis. All ranges are
// inclusive: the interval [2,4] covers columns 2, 3 and 4, and a bounding box
// from line 0 to line 0 spans one line. Coordinates may be negative; results
// of dilation routinely extend past an image's origin.
//
// # Normal Form
//
// Every line held by a domain is normalized. Its intervals are sorted by
// left column and no two intervals overlap or touch: [0,2] and [3,5] are
// always stored as [0,5]. Bounding boxes are tight, and operations that
// remove every pixel return an Empty domain rather than a domain with an
// empty box.
//
// # Sharing
//
// Domains are immutable and reference counted. A constructor hands back one
// link. Assign adds a link for each additional holder and Free drops it; the
// storage is cleared when the last link goes. A plane domain owns one link to
// each of its planes, so an unchanged plane can be reused across several
// derived volumes without copying.
package domain
