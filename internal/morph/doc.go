// Package morph implements one-step dilation and erosion of domain objects
// for 4 and 8 connectivity in the plane and 6, 18 and 26 connectivity in
// volumes.
//
// Each connectivity has its own code path. Planar operations widen, shrink
// and combine neighbouring lines; volumetric operations apply a planar step
// to a window of three planes and combine the results. Rect domains take a
// fast path wherever the result is itself a rectangle.
package morph
