package ocr

import (
	"context"
	"image"
)

// Request carries one line image plus recognition settings to an engine.
type Request struct {
	// Image is a single line of black text on a white background.
	Image *image.Gray
	// Language is the engine's model code (e.g. "eng", "chi_sim").
	Language string
	// Options are engine-specific key/value settings passed through
	// uninterpreted.
	Options map[string]string
}

// Engine recognizes one line of text per call. Implementations must honor
// context cancellation; a recognized empty string is a valid result.
type Engine interface {
	Recognize(ctx context.Context, req Request) (string, error)
}
