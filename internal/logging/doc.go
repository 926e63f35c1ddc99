// Package logging assembles the structured slog loggers used across the
// converter.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes a no-op logger for tests and wiring code that
// cannot fail. Log output defaults to stderr so subtitle text written to
// stdout stays clean.
package logging
