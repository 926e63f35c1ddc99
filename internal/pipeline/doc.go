// Package pipeline drives the full conversion: decode each scheduled
// subtitle, render and segment it into text-line crops, recognize the
// crops through the configured engine, and collect the results as ordered
// SubRip cues.
//
// Entries are independent, so recognition fans out over a worker pool.
// A subtitle that fails to decode is skipped with a warning; a line that
// fails to recognize degrades to empty text. Neither aborts the run, but
// both are counted so callers can exit nonzero on an imperfect result.
package pipeline
