// Package imaging turns images into domain objects and objects into
// measurements.
//
// Image pixel (x, y) maps to column x of line y. Rectangles given as
// image.Rectangle keep the image convention that Max is exclusive; bounding
// boxes of objects are inclusive.
//
// # Conversion
//
//   - ObjectFromImage wraps a whole image (or a crop of it) in a Rect object
//     with UByte grey or RGBA values
//   - MaskFromImage and StackFromImages build value-free masks from the
//     pixels at or above a luminance level
//   - PolygonObject scan-converts a polygon
//
// # Selection
//
//   - Threshold keeps samples at or above a level (ThresholdHigh) or below
//     it (ThresholdLow), for planar objects and volumes
//   - ColourThreshold keeps RGBA pixels close to a colour in L*a*b* space
//   - CropObject keeps the part of an object inside a box
//
// Selections share the values of their input.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The conversion functions
// only read their inputs.
package imaging
