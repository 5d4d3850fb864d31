package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/transform"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
)

// DefaultRamp is the colour ramp used when HeatmapOptions.Ramp is empty. It
// runs from dark purple through red to pale yellow.
var DefaultRamp = []string{"#03051A", "#4C1D4B", "#A11A5B", "#E83F3F", "#F69C73", "#FAEBDD"}

// DefaultNaNColor marks cells whose value is NaN or infinite.
const DefaultNaNColor = "#808080"

// HeatmapOptions controls heatmap rendering.
type HeatmapOptions struct {
	// Ramp lists hex colour stops from the lowest to the highest value.
	Ramp []string

	// NaNColor is the hex colour of non-finite cells.
	NaNColor string

	// Scale enlarges each cell to Scale×Scale pixels. Values below 2 keep
	// one pixel per cell.
	Scale int
}

// HeatmapResult is a rendered heatmap together with the value range mapped
// onto the colour ramp.
type HeatmapResult struct {
	Image     *image.RGBA `json:"-"`
	Min       float64     `json:"min"`
	Max       float64     `json:"max"`
	NonFinite int         `json:"non_finite"`
}

// Heatmap renders a per-pixel vector as a rows×cols image.
//
// Parameters:
//   - values: rows·cols values in row-major order.
//   - rows, cols: The grid shape, normally the source image height and width.
//   - opts: Rendering options.
//
// Returns:
//   - *HeatmapResult: The image and the finite value range.
//   - error: Non-nil if len(values) != rows·cols or a colour cannot be parsed.
//
// Finite values are mapped linearly from [min, max] onto the ramp, blending
// adjacent stops in CIE L*a*b*. When every finite value is equal the lowest
// stop is used.
func Heatmap(values []float64, rows, cols int, opts HeatmapOptions) (*HeatmapResult, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid heatmap size %dx%d", rows, cols)
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("heatmap needs %d values, got %d", rows*cols, len(values))
	}

	ramp, err := parseRamp(opts.Ramp)
	if err != nil {
		return nil, err
	}
	nanHex := opts.NaNColor
	if nanHex == "" {
		nanHex = DefaultNaNColor
	}
	nanColor, err := ParseHexColor(nanHex)
	if err != nil {
		return nil, err
	}

	lo, hi, nonFinite := finiteRange(values)

	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	for i, v := range values {
		var c color.Color = nanColor
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			t := 0.0
			if hi > lo {
				t = (v - lo) / (hi - lo)
			}
			c = rampAt(ramp, t)
		}
		img.Set(i%cols, i/cols, c)
	}

	if opts.Scale > 1 {
		img = transform.Resize(img, cols*opts.Scale, rows*opts.Scale, transform.NearestNeighbor)
	}

	return &HeatmapResult{Image: img, Min: lo, Max: hi, NonFinite: nonFinite}, nil
}

func parseRamp(hexes []string) ([]colorful.Color, error) {
	if len(hexes) == 0 {
		hexes = DefaultRamp
	}
	ramp := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := ParseHexColor(h)
		if err != nil {
			return nil, fmt.Errorf("ramp stop %d: %w", i, err)
		}
		ramp[i], _ = colorful.MakeColor(c)
	}
	return ramp, nil
}

// rampAt returns the ramp colour at position t in [0, 1].
func rampAt(ramp []colorful.Color, t float64) colorful.Color {
	if len(ramp) == 1 {
		return ramp[0]
	}
	pos := t * float64(len(ramp)-1)
	i := int(pos)
	if i >= len(ramp)-1 {
		return ramp[len(ramp)-1]
	}
	frac := pos - float64(i)
	if frac == 0 {
		return ramp[i]
	}
	return ramp[i].BlendLab(ramp[i+1], frac).Clamped()
}

// finiteRange returns the minimum and maximum of the finite values and the
// number of non-finite ones. Both bounds are NaN when nothing is finite.
func finiteRange(values []float64) (lo, hi float64, nonFinite int) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			nonFinite++
			continue
		}
		finite = append(finite, v)
	}
	if len(finite) == 0 {
		return math.NaN(), math.NaN(), nonFinite
	}
	return floats.Min(finite), floats.Max(finite), nonFinite
}
