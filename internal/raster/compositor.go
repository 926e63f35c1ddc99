package raster

import (
	"image"
	"math"

	"vobscribe/internal/vobsub"
)

const (
	// DefaultThreshold is the relative luminance above which a visible
	// color counts as text ink.
	DefaultThreshold = 0.6

	background uint8 = 0xFF
	foreground uint8 = 0x00
)

// Luminance converts the stream's sRGB palette to linear luminance
// (Rec. 709 weights), the scale the binarization threshold works in.
func Luminance(palette vobsub.Palette) [16]float64 {
	var lum [16]float64
	for i, c := range palette {
		r := srgbToLinear(c.R)
		g := srgbToLinear(c.G)
		b := srgbToLinear(c.B)
		lum[i] = 0.2126*r + 0.7152*g + 0.0722*b
	}
	return lum
}

// Composite renders a decoded subtitle as an 8-bit grayscale image with a
// guaranteed white background and pure black text pixels.
//
// A color index is treated as ink when it is actually used by the raster,
// its alpha is nonzero, and its luminance relative to the brightest
// visible color exceeds threshold. Everything else, the declared
// background included, renders white: recognition accuracy wins over
// pixel fidelity when the background alpha is ambiguous.
func Composite(sub *vobsub.Subtitle, lum [16]float64, threshold float64) *image.Gray {
	ink := inkColors(sub, lum, threshold)

	img := image.NewGray(image.Rect(0, 0, sub.Width, sub.Height))
	for i := range img.Pix {
		img.Pix[i] = background
	}
	for i, colorIx := range sub.Pixels {
		if ink[colorIx] {
			img.Pix[i] = foreground
		}
	}
	return img
}

// inkColors decides, per 2-bit color index, whether its pixels are text.
func inkColors(sub *vobsub.Subtitle, lum [16]float64, threshold float64) [4]bool {
	// Inventory the indices the raster actually uses; a color that never
	// appears cannot force the luminance scale.
	var used [4]bool
	for _, colorIx := range sub.Pixels {
		used[colorIx] = true
	}

	var visible [4]bool
	maxLum := 0.0
	for i := range visible {
		// Index 0 is the declared background. Even with nonzero alpha it
		// renders white; a dark canvas would break recognition.
		visible[i] = i > 0 && used[i] && sub.Alpha[i] > 0
		if visible[i] {
			if l := lum[sub.Palette[i]]; l > maxLum {
				maxLum = l
			}
		}
	}

	var ink [4]bool
	if maxLum == 0 {
		// Nothing visible, or only pure black: blank image.
		return ink
	}
	for i := range ink {
		ink[i] = visible[i] && lum[sub.Palette[i]]/maxLum > threshold
	}
	return ink
}

func srgbToLinear(channel uint8) float64 {
	value := float64(channel) / 255.0
	if value <= 0.04045 {
		return value / 12.92
	}
	return math.Pow((value+0.055)/1.055, 2.4)
}
