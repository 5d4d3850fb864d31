package imaging

import (
	"image/color"
	"math"
	"path/filepath"
	"testing"
)

func TestHeatmap_RampEnds(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5}
	res, err := Heatmap(values, 2, 3, HeatmapOptions{Ramp: []string{"#000000", "#FFFFFF"}})
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}

	b := res.Image.Bounds()
	if b.Dx() != 3 || b.Dy() != 2 {
		t.Fatalf("image is %dx%d, want 3x2", b.Dx(), b.Dy())
	}
	if res.Min != 0 || res.Max != 5 {
		t.Errorf("range = [%v, %v], want [0, 5]", res.Min, res.Max)
	}

	if got := res.Image.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("lowest value = %v, want black", got)
	}
	if got := res.Image.RGBAAt(2, 1); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("highest value = %v, want white", got)
	}

	// Row-major: value 3 sits at (x=0, y=1) and is lighter than value 1.
	mid := res.Image.RGBAAt(0, 1)
	low := res.Image.RGBAAt(1, 0)
	if mid.R <= low.R {
		t.Errorf("value 3 (%v) is not lighter than value 1 (%v)", mid, low)
	}
}

func TestHeatmap_NonFinite(t *testing.T) {
	values := []float64{math.NaN(), 1, math.Inf(1), 2}
	res, err := Heatmap(values, 2, 2, HeatmapOptions{NaNColor: "#00FF00"})
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	if res.NonFinite != 2 {
		t.Errorf("NonFinite = %d, want 2", res.NonFinite)
	}
	green := color.RGBA{0, 255, 0, 255}
	if got := res.Image.RGBAAt(0, 0); got != green {
		t.Errorf("NaN cell = %v, want %v", got, green)
	}
	if got := res.Image.RGBAAt(0, 1); got != green {
		t.Errorf("Inf cell = %v, want %v", got, green)
	}

	all, err := Heatmap([]float64{math.NaN()}, 1, 1, HeatmapOptions{})
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	if !math.IsNaN(all.Min) || !math.IsNaN(all.Max) {
		t.Errorf("range of all-NaN input = [%v, %v], want NaN", all.Min, all.Max)
	}
}

func TestHeatmap_ConstantValues(t *testing.T) {
	res, err := Heatmap([]float64{7, 7, 7, 7}, 2, 2, HeatmapOptions{Ramp: []string{"#102030", "#FFFFFF"}})
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	want := color.RGBA{0x10, 0x20, 0x30, 255}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got := res.Image.RGBAAt(x, y); got != want {
				t.Errorf("(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestHeatmap_Scale(t *testing.T) {
	res, err := Heatmap([]float64{0, 1}, 1, 2, HeatmapOptions{Scale: 4, Ramp: []string{"#000000", "#FFFFFF"}})
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	b := res.Image.Bounds()
	if b.Dx() != 8 || b.Dy() != 4 {
		t.Fatalf("scaled image is %dx%d, want 8x4", b.Dx(), b.Dy())
	}
	if got := res.Image.RGBAAt(1, 3); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("left block = %v, want black", got)
	}
	if got := res.Image.RGBAAt(6, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("right block = %v, want white", got)
	}
}

func TestHeatmap_Errors(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		rows   int
		cols   int
		opts   HeatmapOptions
	}{
		{"length mismatch", []float64{1, 2, 3}, 2, 2, HeatmapOptions{}},
		{"zero rows", nil, 0, 2, HeatmapOptions{}},
		{"bad ramp", []float64{1}, 1, 1, HeatmapOptions{Ramp: []string{"nope"}}},
		{"bad nan colour", []float64{1}, 1, 1, HeatmapOptions{NaNColor: "#12"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Heatmap(tt.values, tt.rows, tt.cols, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSave_CreatesDirectories(t *testing.T) {
	res, err := Heatmap([]float64{0, 1, 2, 3}, 2, 2, HeatmapOptions{})
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "nested", "dir", "pdi.png")
	if err := Save(res.Image, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	dims, err := GetDimensions(NewImageCache(), path)
	if err != nil {
		t.Fatalf("saved image could not be read: %v", err)
	}
	if dims.Width != 2 || dims.Height != 2 {
		t.Errorf("saved image is %dx%d, want 2x2", dims.Width, dims.Height)
	}

	if err := Save(res.Image, filepath.Join(t.TempDir(), "pdi.unknown")); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestEncodePNGBase64(t *testing.T) {
	res, err := Heatmap([]float64{0, 1}, 1, 2, HeatmapOptions{})
	if err != nil {
		t.Fatalf("Heatmap failed: %v", err)
	}
	s, err := EncodePNGBase64(res.Image)
	if err != nil {
		t.Fatalf("EncodePNGBase64 failed: %v", err)
	}
	// "\x89PNG" encodes to "iVBORw".
	if len(s) < 6 || s[:6] != "iVBORw" {
		t.Errorf("output does not look like a base64 PNG: %.10s", s)
	}
}
