// Package plot renders diagnostic figures as PNG-ready images.
//
// Figures are grids of titled panels composed with disintegration/imaging.
// Titles use the fixed 7×13 bitmap face from golang.org/x/image.
package plot

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	titleHeight = 18
	margin      = 6

	// DefaultCellWidth and DefaultCellHeight size each panel, title included.
	DefaultCellWidth  = 320
	DefaultCellHeight = 260
)

var (
	background = color.NRGBA{255, 255, 255, 255}
	ink        = color.NRGBA{20, 20, 20, 255}
)

// ErrNoPanels is returned when a figure has nothing to draw.
var ErrNoPanels = errors.New("no panels to compose")

// Panel is one titled image of a figure.
type Panel struct {
	Title string
	Image image.Image
}

// Compose lays panels out left to right, top to bottom, cols per row. Each
// image is scaled to fit its cell preserving aspect ratio and centred below
// its title.
func Compose(panels []Panel, cols, cellW, cellH int) (*image.NRGBA, error) {
	if len(panels) == 0 {
		return nil, ErrNoPanels
	}
	if cols < 1 {
		cols = len(panels)
	}
	if cellW <= 2*margin || cellH <= titleHeight+2*margin {
		return nil, errors.New("cell too small for a panel")
	}
	rows := (len(panels) + cols - 1) / cols

	canvas := imaging.New(cols*cellW, rows*cellH, background)
	for i, p := range panels {
		x0 := (i % cols) * cellW
		y0 := (i / cols) * cellH

		if p.Image != nil {
			fitted := fit(p.Image, cellW-2*margin, cellH-titleHeight-2*margin)
			b := fitted.Bounds()
			off := image.Pt(
				x0+(cellW-b.Dx())/2,
				y0+titleHeight+margin+(cellH-titleHeight-2*margin-b.Dy())/2,
			)
			canvas = imaging.Paste(canvas, fitted, off)
		}
		drawTitle(canvas, x0, y0, cellW, p.Title)
	}
	return canvas, nil
}

// fit scales img to the largest size inside w×h that keeps its aspect ratio.
// Small images are enlarged with nearest-neighbour sampling so that pixel
// maps stay crisp.
func fit(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return img
	}
	sx := float64(w) / float64(b.Dx())
	sy := float64(h) / float64(b.Dy())
	s := sx
	if sy < s {
		s = sy
	}
	nw, nh := int(float64(b.Dx())*s), int(float64(b.Dy())*s)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	if nw == b.Dx() && nh == b.Dy() {
		return img
	}
	filter := imaging.NearestNeighbor
	if s < 1 {
		filter = imaging.Box
	}
	return imaging.Resize(img, nw, nh, filter)
}

func drawTitle(dst draw.Image, x0, y0, width int, title string) {
	if title == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ink),
		Face: basicfont.Face7x13,
	}
	tw := d.MeasureString(title).Ceil()
	x := x0 + (width-tw)/2
	if x < x0+2 {
		x = x0 + 2
	}
	d.Dot = fixed.P(x, y0+titleHeight-4)
	d.DrawString(title)
}
