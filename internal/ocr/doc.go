// Package ocr turns the words Tesseract finds in an image into a region.
//
// Word boxes come from gosseract/v2 at word level. Each accepted box becomes
// a rectangle of lines in a planar region, and overlapping boxes merge, so
// the result can be fed straight into the set operations: subtract it from
// a threshold result to ignore labels, or dilate it to join words into
// lines of text.
//
// # Prerequisites
//
// Tesseract and its language data must be installed, and the binary must be
// built with cgo enabled:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Without cgo, ExtractWords and TextMaskFromImage return ErrUnsupported and
// Available is false. MaskFromWords works in every build.
//
// # Coordinates
//
// Tesseract reports boxes with an exclusive maximum corner. A box from
// (x1, y1) to (x2, y2) covers lines y1 to y2-1 and columns x1 to x2-1.
package ocr
