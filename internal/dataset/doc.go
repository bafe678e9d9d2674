// Package dataset curates training samples on disk.
//
// A collection is a flat directory of images named by positive integer ids
// ("1.jpg", "2.jpg", ...). The package assigns ids that continue an existing
// collection (Numberer), writes samples under those ids (DirWriter), drives
// extraction from a video source (Extractor), and writes the annotation
// manifest consumed by opencv_traincascade (BuildManifest, WriteManifest).
//
// # Single writer
//
// A collection must have at most one writer at a time. Two extraction runs
// against the same directory would compute the same starting id and collide;
// DirWriter refuses to overwrite, so the second run fails rather than
// corrupting data, but this is not a supported way to run the tools.
package dataset
