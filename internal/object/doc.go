// Package object defines the reference-counted domain object: a region's
// shape paired with optional samples and annotations.
//
// The sample model is a rectangular GreyTable per plane. Only the pixel type
// matters to the region algorithms, which use it to step through samples;
// decoding and encoding of individual samples is offered for callers that
// threshold, measure or build images from objects.
package object
