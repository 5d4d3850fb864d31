package imaging

import (
	"image/color"
	"testing"
)

func TestDescribeColor_KnownColors(t *testing.T) {
	tests := []struct {
		name    string
		vec     []float64
		wantHex string
		wantRGB RGBColor
		wantHSL HSLColor
	}{
		{"red", []float64{255, 0, 0}, "#FF0000", RGBColor{255, 0, 0}, HSLColor{0, 100, 50}},
		{"green", []float64{0, 255, 0}, "#00FF00", RGBColor{0, 255, 0}, HSLColor{120, 100, 50}},
		{"blue", []float64{0, 0, 255}, "#0000FF", RGBColor{0, 0, 255}, HSLColor{240, 100, 50}},
		{"white", []float64{255, 255, 255}, "#FFFFFF", RGBColor{255, 255, 255}, HSLColor{0, 0, 100}},
		{"black", []float64{0, 0, 0}, "#000000", RGBColor{0, 0, 0}, HSLColor{0, 0, 0}},
		{"gray channel", []float64{128}, "#808080", RGBColor{128, 128, 128}, HSLColor{0, 0, 50}},
		{"alpha ignored", []float64{255, 0, 0, 10}, "#FF0000", RGBColor{255, 0, 0}, HSLColor{0, 100, 50}},
		{"clamped", []float64{-20, 300, 0}, "#00FF00", RGBColor{0, 255, 0}, HSLColor{120, 100, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DescribeColor(tt.vec)
			if err != nil {
				t.Fatalf("DescribeColor failed: %v", err)
			}
			if got.Hex != tt.wantHex {
				t.Errorf("Hex = %s, want %s", got.Hex, tt.wantHex)
			}
			if got.RGB != tt.wantRGB {
				t.Errorf("RGB = %+v, want %+v", got.RGB, tt.wantRGB)
			}
			if abs(got.HSL.H-tt.wantHSL.H) > 1 || abs(got.HSL.S-tt.wantHSL.S) > 1 || abs(got.HSL.L-tt.wantHSL.L) > 1 {
				t.Errorf("HSL = %+v, want about %+v", got.HSL, tt.wantHSL)
			}
		})
	}
}

func TestDescribeColor_BadChannels(t *testing.T) {
	for _, vec := range [][]float64{nil, {1, 2}, {1, 2, 3, 4, 5}} {
		if _, err := DescribeColor(vec); err == nil {
			t.Errorf("expected error for %d channels", len(vec))
		}
	}
}

func TestDescribePalette(t *testing.T) {
	palette, err := DescribePalette(map[int][]float64{
		2: {0, 0, 255},
		0: {255, 0, 0},
		1: {0, 255, 0},
	})
	if err != nil {
		t.Fatalf("DescribePalette failed: %v", err)
	}
	if len(palette) != 3 {
		t.Fatalf("got %d entries, want 3", len(palette))
	}
	wantHex := []string{"#FF0000", "#00FF00", "#0000FF"}
	for i, e := range palette {
		if e.Cluster != i {
			t.Errorf("entry %d has cluster %d", i, e.Cluster)
		}
		if e.Color.Hex != wantHex[i] {
			t.Errorf("cluster %d hex = %s, want %s", i, e.Color.Hex, wantHex[i])
		}
	}

	if _, err := DescribePalette(map[int][]float64{0: {1, 2}}); err == nil {
		t.Error("expected error for two-channel colour")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"00ff80", color.NRGBA{0, 255, 128, 255}, false},
		{"#f00", color.NRGBA{255, 0, 0, 255}, false},
		{"", color.NRGBA{}, true},
		{"#GGGGGG", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHexColor(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHexColor(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
