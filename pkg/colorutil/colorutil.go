// Package colorutil provides shared color utilities for the annotator.
package colorutil

import (
	"fmt"
	"image/color"
	"strings"
)

// Palette lists the annotation colors offered in the style panel, as hex
// strings. The first entry is the default arrow fill.
var Palette = []string{
	"#ff3b30", // red
	"#ff9500", // orange
	"#ffcc00", // yellow
	"#34c759", // green
	"#007aff", // blue
	"#af52de", // purple
	"#000000", // black
	"#ffffff", // white
}

// ParseHex converts a "#rrggbb" or "#rgb" string into a color. Returns an
// error for anything else; alpha is always 255.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(strings.ToLower(s)), "#")

	var r, g, b uint8
	switch len(s) {
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
	case 3:
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		r, g, b = r*17, g*17, b*17
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// ParseHexOr parses a hex color, falling back to the given color when the
// string is malformed.
func ParseHexOr(s string, fallback color.RGBA) color.RGBA {
	c, err := ParseHex(s)
	if err != nil {
		return fallback
	}
	return c
}

// WithAlpha returns the color with its alpha replaced, premultiplying the
// channels as color.RGBA requires.
func WithAlpha(c color.RGBA, alpha float64) color.RGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return color.RGBA{
		R: uint8(float64(c.R) * alpha),
		G: uint8(float64(c.G) * alpha),
		B: uint8(float64(c.B) * alpha),
		A: uint8(255 * alpha),
	}
}
