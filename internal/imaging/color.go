package imaging

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex string   `json:"hex"` // Hex format "#RRGGBB"
	RGB RGBColor `json:"rgb"` // RGB components
	HSL HSLColor `json:"hsl"` // HSL representation
}

// DescribeColor describes a cluster colour given as channel intensities in
// 0-255.
//
// Parameters:
//   - vec: One value (gray) or three or four values (R, G, B and an ignored
//     alpha). Values outside 0-255 are clamped.
//
// Returns:
//   - *ColorResult: The colour in hex, RGB and HSL form.
//   - error: Non-nil if vec has an unsupported number of channels.
func DescribeColor(vec []float64) (*ColorResult, error) {
	c, err := colorOf(vec)
	if err != nil {
		return nil, err
	}
	return describe(c), nil
}

func colorOf(vec []float64) (colorful.Color, error) {
	switch len(vec) {
	case 1:
		g := unit(vec[0])
		return colorful.Color{R: g, G: g, B: g}, nil
	case 3, 4:
		return colorful.Color{R: unit(vec[0]), G: unit(vec[1]), B: unit(vec[2])}, nil
	}
	return colorful.Color{}, fmt.Errorf("cannot describe a colour with %d channels", len(vec))
}

func unit(v float64) float64 {
	v /= 255
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func describe(c colorful.Color) *ColorResult {
	r, g, b := c.RGB255()
	h, s, l := c.Hsl()
	return &ColorResult{
		Hex: strings.ToUpper(c.Hex()),
		RGB: RGBColor{R: r, G: g, B: b},
		HSL: HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
	}
}

// PaletteEntry is the colour assigned to one cluster.
type PaletteEntry struct {
	Cluster int         `json:"cluster"`
	Color   ColorResult `json:"color"`
}

// DescribePalette describes every colour of a cluster lookup, ordered by
// cluster index.
func DescribePalette(lookup map[int][]float64) ([]PaletteEntry, error) {
	keys := make([]int, 0, len(lookup))
	for k := range lookup {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]PaletteEntry, 0, len(keys))
	for _, k := range keys {
		c, err := DescribeColor(lookup[k])
		if err != nil {
			return nil, fmt.Errorf("cluster %d: %w", k, err)
		}
		out = append(out, PaletteEntry{Cluster: k, Color: *c})
	}
	return out, nil
}

// ParseHexColor parses a colour like "#FF0000", "FF0000" or "#f00".
func ParseHexColor(hex string) (color.NRGBA, error) {
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] != '#' {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
