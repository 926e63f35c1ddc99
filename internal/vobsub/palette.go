package vobsub

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is one palette entry in sRGB color space.
type RGB struct {
	R, G, B uint8
}

// Palette is the stream-level table of 16 colors declared in the index.
// Per-subtitle control sequences select 4 of these by index.
type Palette [16]RGB

// ParsePalette parses the comma-separated list of 16 hex colors from a
// "palette:" index line.
func ParsePalette(value string) (Palette, error) {
	var palette Palette
	parts := strings.Split(value, ",")
	if len(parts) != len(palette) {
		return palette, fmt.Errorf("%w: palette has %d entries, expected %d", ErrMalformedIndex, len(parts), len(palette))
	}
	for i, part := range parts {
		entry, err := parseHexColor(strings.TrimSpace(part))
		if err != nil {
			return palette, fmt.Errorf("%w: palette entry %d: %v", ErrMalformedIndex, i, err)
		}
		palette[i] = entry
	}
	return palette, nil
}

func parseHexColor(value string) (RGB, error) {
	if len(value) != 6 {
		return RGB{}, fmt.Errorf("color %q is not 6 hex digits", value)
	}
	parsed, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("color %q: %v", value, err)
	}
	return RGB{
		R: uint8(parsed >> 16),
		G: uint8(parsed >> 8),
		B: uint8(parsed),
	}, nil
}
