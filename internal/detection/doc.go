// Package detection finds objects in photos with a boosted cascade of Haar
// classifiers trained by opencv_traincascade.
//
// # Pipeline
//
// Detect runs these steps:
//
//  1. Convert to intensity and, optionally, equalize the histogram
//  2. Build a scale pyramid: level k is the image shrunk by ScaleFactor^k,
//     scanned with the fixed model window
//  3. At each window position, normalize by the window's standard deviation
//     and evaluate the cascade stage by stage, stopping at the first reject.
//     Windows with a standard deviation of 10 grey levels or less are
//     rejected without evaluating any stage, as OpenCV does
//  4. Group accepted windows with GroupCandidates and report the clusters
//     that at least MinNeighbors windows agree on
//
// # Coordinate System
//
// Detections are in the input image's pixel space with (0,0) at the
// top-left corner. Rect widths and heights are exclusive extents.
//
// # Models
//
// Only the XML format written by current opencv_traincascade is read
// (an <opencv_storage> holding a <cascade>), with BOOST stages and upright
// HAAR features. LBP, HOG, tilted features and the legacy haarcascade
// layout are rejected with a *ModelLoadError.
//
// # Concurrency
//
// Pyramid levels are independent and are scanned on an errgroup. Candidate
// sets are merged after all levels finish and sorted before grouping, so the
// result does not depend on scheduling.
package detection
