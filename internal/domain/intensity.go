package domain

import "fmt"

// Category is the 0–5 intensity class derived from sustained wind speed.
// Category 0 covers both tropical depressions and tropical storms.
type Category int

// NoCategory marks a segment with no intensity information yet.
const NoCategory Category = -1

// Color is a 24-bit RGB value.
type Color uint32

// BaseTrackColor is the neutral gray used when no intensity is known.
const BaseTrackColor Color = 0x808080

var categoryColors = [...]Color{
	0: 0x0000FF, // blue, depression/storm
	1: 0x00FF00, // green
	2: 0xFFFF00, // yellow
	3: 0xFF8000, // orange
	4: 0xFF0000, // red
	5: 0xFF00FF, // magenta
}

// ClassifyIntensity maps a wind speed in knots to a category.
func ClassifyIntensity(knots float64) Category {
	switch {
	case knots < 39: // tropical depression
		return 0
	case knots < 74: // tropical storm
		return 0
	case knots < 96:
		return 1
	case knots < 111:
		return 2
	case knots < 130:
		return 3
	case knots < 157:
		return 4
	default:
		return 5
	}
}

// CategoryLabel returns the display name for a category. Category 0 is
// split by wind speed into "Tropical Depression" and "Tropical Storm".
func CategoryLabel(c Category, knots float64) string {
	if c == 0 {
		if knots < 39 {
			return "Tropical Depression"
		}
		return "Tropical Storm"
	}
	return fmt.Sprintf("Category %d", int(c))
}

// CategoryColor returns the trail color for c, falling back to
// BaseTrackColor for anything outside 0–5.
func CategoryColor(c Category) Color {
	if c < 0 || int(c) >= len(categoryColors) {
		return BaseTrackColor
	}
	return categoryColors[c]
}

// RGB splits the color into [0,1] channel values, the form vertex color
// buffers expect.
func (c Color) RGB() [3]float64 {
	return [3]float64{
		float64((c>>16)&0xFF) / 255,
		float64((c>>8)&0xFF) / 255,
		float64(c&0xFF) / 255,
	}
}

// String renders the color as "#rrggbb".
func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xFFFFFF)
}

// MarshalText encodes the color as "#rrggbb" in JSON output.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
