// Package ocr drives an external recognition engine over prepared line
// images.
//
// The Engine interface is the boundary the pipeline depends on; the
// Tesseract implementation shells out to the tesseract binary in
// single-line page segmentation mode. Engine failures are per-crop
// concerns: callers degrade a failed crop to an empty line instead of
// aborting the run.
package ocr
