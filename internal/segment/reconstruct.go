// Package segment turns cluster assignments into segmented images and
// assigns pixels to clusters from posterior-mean mixture components.
package segment

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
)

// ErrUnknownCluster is returned when a label has no entry in the colour
// lookup.
var ErrUnknownCluster = errors.New("unknown cluster")

// SegmentedImage is a rows×cols image with Channels integer values per pixel,
// stored row-major.
type SegmentedImage struct {
	Rows     int
	Cols     int
	Channels int
	Pix      []int
}

// At returns the colour vector of pixel (r, c). The slice aliases s.Pix.
func (s *SegmentedImage) At(r, c int) []int {
	off := (r*s.Cols + c) * s.Channels
	return s.Pix[off : off+s.Channels]
}

// Reconstruct builds the segmented image for a label map. labels holds one
// cluster index per pixel in row-major order and must have rows·cols entries.
// Each pixel takes the colour of its cluster in lookup, truncated toward zero
// to an integer. Every colour in lookup must have the same number of channels.
func Reconstruct(labels []int, rows, cols int, lookup map[int][]float64) (*SegmentedImage, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", rows, cols)
	}
	if len(labels) != rows*cols {
		return nil, fmt.Errorf("label map has %d entries, image has %d pixels", len(labels), rows*cols)
	}
	channels, err := lookupChannels(lookup)
	if err != nil {
		return nil, err
	}

	seg := &SegmentedImage{
		Rows:     rows,
		Cols:     cols,
		Channels: channels,
		Pix:      make([]int, rows*cols*channels),
	}
	for i, label := range labels {
		col, ok := lookup[label]
		if !ok {
			return nil, fmt.Errorf("pixel (%d,%d) has label %d: %w", i/cols, i%cols, label, ErrUnknownCluster)
		}
		px := seg.Pix[i*channels : (i+1)*channels]
		for c, v := range col {
			px[c] = int(v)
		}
	}
	return seg, nil
}

func lookupChannels(lookup map[int][]float64) (int, error) {
	if len(lookup) == 0 {
		return 0, errors.New("empty colour lookup")
	}
	keys := make([]int, 0, len(lookup))
	for k := range lookup {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	channels := len(lookup[keys[0]])
	if channels == 0 {
		return 0, fmt.Errorf("cluster %d has an empty colour", keys[0])
	}
	for _, k := range keys[1:] {
		if len(lookup[k]) != channels {
			return 0, fmt.Errorf("cluster %d has %d channels, cluster %d has %d", k, len(lookup[k]), keys[0], channels)
		}
	}
	return channels, nil
}

// ToImage converts s to an 8-bit image. One channel is rendered as gray,
// three as opaque RGB and four as RGBA. Values are clamped to [0, 255].
func (s *SegmentedImage) ToImage() (*image.NRGBA, error) {
	if s.Channels != 1 && s.Channels != 3 && s.Channels != 4 {
		return nil, fmt.Errorf("cannot render %d channels as an image", s.Channels)
	}
	img := image.NewNRGBA(image.Rect(0, 0, s.Cols, s.Rows))
	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			px := s.At(r, c)
			var col color.NRGBA
			switch s.Channels {
			case 1:
				g := clamp8(px[0])
				col = color.NRGBA{R: g, G: g, B: g, A: 255}
			case 3:
				col = color.NRGBA{R: clamp8(px[0]), G: clamp8(px[1]), B: clamp8(px[2]), A: 255}
			case 4:
				col = color.NRGBA{R: clamp8(px[0]), G: clamp8(px[1]), B: clamp8(px[2]), A: clamp8(px[3])}
			}
			img.SetNRGBA(c, r, col)
		}
	}
	return img, nil
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
