// Package setops implements N-ary union and intersection, difference and
// symmetric difference over planar and volumetric domain objects.
//
// Every operation works line by line on normalized interval lists, so its
// cost depends on the number of intervals rather than the number of pixels.
// Results are normalized: empty lines are dropped, bounding boxes are
// retightened, and a result with no pixels is an Empty object. Volumes are
// combined plane by plane.
package setops
