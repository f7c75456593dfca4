// Package detection classifies the connected components of a region by
// shape.
//
// Components come from the label package. Each one is compared with two
// ideal forms built from its bounding box:
//
//   - Rectangularity: area over bounding box area
//   - Circularity: area over the area of the ellipse inscribed in the
//     bounding box, for boxes close to square
//
// A component that is one pixel thick, or at least eight times longer than
// it is wide, is reported as a line.
//
// # Coordinate System
//
// Coordinates follow the region convention:
//   - X is the column, Y is the line
//   - Bounds are inclusive on both ends
//
// # Confidence Scores
//
// Each shape carries the score of its chosen kind (0.0 to 1.0). Irregular
// components report one minus the better of the two scores.
//
// # Limitations
//
// Holes, rotation and noisy edges all lower the scores. Threshold and
// clean up the region (erode then dilate) before classifying noisy input.
package detection
