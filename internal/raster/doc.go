// Package raster turns decoded subtitle bitmaps into clean black-on-white
// line images for recognition.
//
// Compositing maps the subtitle's 4-color selection through the stream
// palette to linear luminance, binarizes against a threshold, and renders
// onto a white canvas. Segmentation then splits the result into one crop
// per text line, padded with a white border, optionally upscaled. Both
// steps are deterministic pure functions of their inputs.
package raster
