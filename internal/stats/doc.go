// Package stats computes grey-value statistics, centroids and correlations
// over the pixels of domain objects.
//
// Samples are read in raster order through the scan package, so only
// pixels inside the domain contribute. RGBA samples are reduced to their
// luminance first.
//
// # Statistics
//
// GreyStats reports count, minimum, maximum, sum, sum of squares, mean,
// standard deviation and median. The object must carry values.
//
// # Centroid
//
// Centroid returns the mean (plane, line, column) position. Planar objects
// report plane 0. With weighting each pixel counts in proportion to its
// sample, and the weights must not sum to zero.
//
// # Correlation
//
// Correlation is the Pearson coefficient over the pixels two objects share.
// Fewer than two shared pixels give NaN.
package stats
