// Package ocrcache persists recognized text in SQLite, keyed by line
// image content.
//
// Recognition dominates conversion time, and reruns with tweaked
// thresholds or borders mostly produce the same crops. The cache keys on
// a digest of the crop's pixels plus the language and engine options, so
// any change that alters the image or its interpretation misses cleanly.
//
// A file lock guards the database against concurrent runs sharing one
// cache path. Schema changes bump schemaVersion; stale databases are
// rejected with an error telling the user to clear them.
package ocrcache
