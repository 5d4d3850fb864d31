package plot

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/ironsheep/segment-diagnostics-mcp/internal/imaging"
	"github.com/ironsheep/segment-diagnostics-mcp/internal/runlog"
)

// Kind selects the layout of a diagnostics figure.
type Kind string

const (
	// KindDist draws a histogram and density curve per diagnostic.
	KindDist Kind = "dist"

	// KindPixelDist draws each diagnostic against the pixel index.
	KindPixelDist Kind = "pixel-dist"

	// KindHeatmap draws each diagnostic as an image-shaped heatmap next to
	// the original and segmented images.
	KindHeatmap Kind = "heatmap"
)

// ParseKind validates a figure kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDist, KindPixelDist, KindHeatmap:
		return k, nil
	}
	return "", fmt.Errorf("unknown plot kind %q (want dist, pixel-dist or heatmap)", s)
}

// DiagnosticSet holds the four per-pixel diagnostics of one fit, plus the
// images shown alongside them in a heatmap figure.
type DiagnosticSet struct {
	PDI    []float64
	LogPDI []float64
	PDILog []float64
	WAPDI  []float64

	// Rows and Cols give the image shape; required for heatmaps.
	Rows, Cols int

	// Original and Segmented are required for heatmaps.
	Original  image.Image
	Segmented image.Image

	// Method names the inference method that produced Segmented.
	Method string
}

// Options sizes a figure.
type Options struct {
	CellWidth  int
	CellHeight int
	Heatmap    imaging.HeatmapOptions
}

func (o Options) cell() (int, int) {
	w, h := o.CellWidth, o.CellHeight
	if w == 0 {
		w = DefaultCellWidth
	}
	if h == 0 {
		h = DefaultCellHeight
	}
	return w, h
}

// DiagnosticPanels renders the diagnostics of set as a single figure.
//
// dist and pixel-dist figures are one row of four panels. heatmap figures
// are two rows of three: pdi, log-pdi, the original image, then pdi-log,
// wapdi and the segmented image.
func DiagnosticPanels(set *DiagnosticSet, kind Kind, opts Options) (*image.NRGBA, error) {
	cw, ch := opts.cell()
	pw, ph := cw-2*margin, ch-titleHeight-2*margin

	metrics := []struct {
		title  string
		values []float64
	}{
		{"pdi", set.PDI},
		{"log-pdi", set.LogPDI},
		{"pdi-log", set.PDILog},
		{"wapdi", set.WAPDI},
	}

	switch kind {
	case KindDist, KindPixelDist:
		draw := DistPanel
		if kind == KindPixelDist {
			draw = TracePanel
		}
		panels := make([]Panel, 0, len(metrics))
		for _, m := range metrics {
			img, err := draw(m.values, pw, ph)
			if err != nil {
				return nil, fmt.Errorf("failed to draw %s: %w", m.title, err)
			}
			panels = append(panels, Panel{Title: m.title, Image: img})
		}
		return Compose(panels, 4, cw, ch)

	case KindHeatmap:
		if set.Original == nil || set.Segmented == nil {
			return nil, errors.New("heatmap figure needs the original and segmented images")
		}
		maps := make([]image.Image, len(metrics))
		for i, m := range metrics {
			res, err := imaging.Heatmap(m.values, set.Rows, set.Cols, opts.Heatmap)
			if err != nil {
				return nil, fmt.Errorf("failed to draw %s: %w", m.title, err)
			}
			maps[i] = res.Image
		}
		segTitle := "segmented image"
		if set.Method != "" {
			segTitle = "segmented image (" + set.Method + ")"
		}
		return Compose([]Panel{
			{"pdi", maps[0]},
			{"log-pdi", maps[1]},
			{"original image", set.Original},
			{"pdi-log", maps[2]},
			{"wapdi", maps[3]},
			{segTitle, set.Segmented},
		}, 3, cw, ch)
	}
	return nil, fmt.Errorf("unknown plot kind %q", kind)
}

// SegVsTruth places the original image, the human segmentation and two
// model segmentations side by side.
func SegVsTruth(original, truth, seg1, seg2 image.Image, opts Options) (*image.NRGBA, error) {
	for _, img := range []image.Image{original, truth, seg1, seg2} {
		if img == nil {
			return nil, errors.New("all four images are required")
		}
	}
	cw, ch := opts.cell()
	return Compose([]Panel{
		{"original image", original},
		{"human-segmented", truth},
		{"MCMC-segmented", seg1},
		{"ADVI-segmented", seg2},
	}, 4, cw, ch)
}

// ResultFiles are the paths of a fitted/original image pair.
type ResultFiles struct {
	Fitted   string `json:"fitted"`
	Original string `json:"original"`
}

// ResultPaths names the images of one fit. Both live in a directory named
// after the run time:
//
//	<outDir>/<when>/fitted_img=<id>_K=<k>_T=<t>_Time=<when>.png
//	<outDir>/<when>/original_img=<id>_K=<k>_T=<t>_Time=<when>.png
func ResultPaths(outDir, imgID string, k, t int, when time.Time) ResultFiles {
	stamp := when.Format(runlog.TimeLayout)
	dir := filepath.Join(outDir, stamp)
	name := func(prefix string) string {
		return filepath.Join(dir, fmt.Sprintf("%s_img=%s_K=%d_T=%d_Time=%s.png", prefix, imgID, k, t, stamp))
	}
	return ResultFiles{Fitted: name("fitted"), Original: name("original")}
}

// SaveClusteredPair writes the segmented and original images of one fit to
// the paths given by ResultPaths.
func SaveClusteredPair(original, segmented image.Image, outDir, imgID string, k, t int, when time.Time) (ResultFiles, error) {
	paths := ResultPaths(outDir, imgID, k, t, when)
	if err := imaging.Save(segmented, paths.Fitted); err != nil {
		return ResultFiles{}, err
	}
	if err := imaging.Save(original, paths.Original); err != nil {
		return ResultFiles{}, err
	}
	return paths, nil
}

// SaveMetricHeatmap renders one per-pixel vector as a titled heatmap and
// writes it to path.
func SaveMetricHeatmap(values []float64, rows, cols int, title, path string, opts Options) error {
	res, err := imaging.Heatmap(values, rows, cols, opts.Heatmap)
	if err != nil {
		return err
	}
	cw, ch := opts.cell()
	fig, err := Compose([]Panel{{Title: title, Image: res.Image}}, 1, cw, ch)
	if err != nil {
		return err
	}
	return imaging.Save(fig, path)
}
