// Package imaging provides the image operations shared by the dataset and
// detection pipelines.
//
// It turns raw decoded frames into fixed-size grayscale training samples,
// normalizes contrast before detection, loads and caches still images, and
// draws detection results back onto an image for review.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - For regions, (X0,Y0) is inclusive (top-left) and (X1,Y1) is exclusive
//   - Crop rectangles are expressed in the frame's own coordinate space
//
// # Samples
//
// A sample is an *image.Gray whose bounds start at (0,0). Every transform in
// this package returns a fresh buffer; inputs are never modified.
//
// # Interpolation
//
// Resizing always uses imaging.Linear (bilinear, area-aware when shrinking).
// The choice is fixed so that re-running extraction over the same video
// produces byte-identical samples.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless.
package imaging
