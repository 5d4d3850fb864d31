package plot

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/aclements/go-moremath/stats"
)

// DefaultBins is the number of histogram bins of a distribution panel.
const DefaultBins = 30

// ErrNoFiniteValues is returned when a vector has nothing to plot.
var ErrNoFiniteValues = errors.New("no finite values to plot")

var (
	barColor   = color.NRGBA{140, 180, 220, 255}
	curveColor = color.NRGBA{30, 70, 160, 255}
	axisColor  = color.NRGBA{120, 120, 120, 255}
)

// Density is a normalised histogram with a kernel density estimate
// evaluated across the same range.
type Density struct {
	Lo, Hi  float64
	Heights []float64 // histogram density per bin
	Curve   []float64 // KDE at evenly spaced points from Lo to Hi, nil when degenerate
}

// EstimateDensity bins the finite values of xs into bins bins and fits a
// Gaussian KDE through them. Non-finite values are ignored.
func EstimateDensity(xs []float64, bins, points int) (*Density, error) {
	finite := finiteValues(xs)
	if len(finite) == 0 {
		return nil, ErrNoFiniteValues
	}
	if bins < 1 {
		bins = DefaultBins
	}

	sample := stats.Sample{Xs: finite}
	lo, hi := sample.Bounds()
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	hist := stats.NewLinearHist(lo, hi, bins)
	for _, x := range finite {
		hist.Add(x)
	}
	_, counts, over := hist.Counts()

	width := (hi - lo) / float64(bins)
	norm := float64(len(finite)) * width
	d := &Density{Lo: lo, Hi: hi, Heights: make([]float64, bins)}
	for i, c := range counts {
		d.Heights[i] = float64(c) / norm
	}
	// The maximum lands exactly on the upper edge.
	d.Heights[bins-1] += float64(over) / norm

	if points > 1 && sample.StdDev() > 0 {
		kde := stats.KDE{Sample: sample, Kernel: stats.GaussianKernel}
		d.Curve = make([]float64, points)
		for i := range d.Curve {
			x := lo + (hi-lo)*float64(i)/float64(points-1)
			d.Curve[i] = kde.PDF(x)
		}
	}
	return d, nil
}

// DistPanel draws the histogram and density curve of xs.
func DistPanel(xs []float64, w, h int) (image.Image, error) {
	d, err := EstimateDensity(xs, DefaultBins, w)
	if err != nil {
		return nil, err
	}

	top := 0.0
	for _, v := range d.Heights {
		top = math.Max(top, v)
	}
	for _, v := range d.Curve {
		top = math.Max(top, v)
	}

	img := blank(w, h)
	barW := float64(w) / float64(len(d.Heights))
	for i, v := range d.Heights {
		x0 := int(float64(i) * barW)
		x1 := int(float64(i+1) * barW)
		y0 := h - 1 - int(v/top*float64(h-2))
		draw.Draw(img, image.Rect(x0, y0, x1, h), image.NewUniform(barColor), image.Point{}, draw.Src)
	}
	for i := 1; i < len(d.Curve); i++ {
		line(img, i-1, yPixel(d.Curve[i-1], 0, top, h), i, yPixel(d.Curve[i], 0, top, h), curveColor)
	}
	line(img, 0, h-1, w-1, h-1, axisColor)
	return img, nil
}

// TracePanel draws xs against its index as a line, skipping non-finite
// values.
func TracePanel(xs []float64, w, h int) (image.Image, error) {
	finite := finiteValues(xs)
	if len(finite) == 0 {
		return nil, ErrNoFiniteValues
	}
	lo, hi := stats.Sample{Xs: finite}.Bounds()
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	img := blank(w, h)
	line(img, 0, h-1, w-1, h-1, axisColor)

	xPixel := func(i int) int {
		if len(xs) == 1 {
			return w / 2
		}
		return int(float64(i) / float64(len(xs)-1) * float64(w-1))
	}
	prevX, prevY, have := 0, 0, false
	for i, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			have = false
			continue
		}
		x, y := xPixel(i), yPixel(v, lo, hi, h)
		if have {
			line(img, prevX, prevY, x, y, curveColor)
		} else {
			img.Set(x, y, curveColor)
		}
		prevX, prevY, have = x, y, true
	}
	return img, nil
}

func finiteValues(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

func blank(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return img
}

func yPixel(v, lo, hi float64, h int) int {
	y := h - 1 - int((v-lo)/(hi-lo)*float64(h-2))
	if y < 0 {
		return 0
	}
	if y > h-1 {
		return h - 1
	}
	return y
}

// line draws a segment with Bresenham's algorithm.
func line(img draw.Image, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
