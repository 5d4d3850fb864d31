package server

import (
	"math"
	"strconv"

	"github.com/ironsheep/segment-diagnostics-mcp/internal/diagnostics"
)

// Float is a float64 that survives JSON encoding when it is not finite.
// NaN and infinities are written as the strings "NaN", "+Inf" and "-Inf".
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func toFloats(xs []float64) []Float {
	out := make([]Float, len(xs))
	for i, x := range xs {
		out[i] = Float(x)
	}
	return out
}

// summaryResult is a diagnostics.Summary with JSON-safe statistics.
type summaryResult struct {
	Count  int   `json:"count"`
	Finite int   `json:"finite"`
	Mean   Float `json:"mean"`
	StdDev Float `json:"std_dev"`
	Min    Float `json:"min"`
	Median Float `json:"median"`
	Max    Float `json:"max"`
}

func summarize(xs []float64) summaryResult {
	s := diagnostics.Summarize(xs)
	return summaryResult{
		Count:  s.Count,
		Finite: s.Finite,
		Mean:   Float(s.Mean),
		StdDev: Float(s.StdDev),
		Min:    Float(s.Min),
		Median: Float(s.Median),
		Max:    Float(s.Max),
	}
}

// PointwiseToolResult is the output of diag_pointwise.
type PointwiseToolResult struct {
	Draws      int                      `json:"draws"`
	DataPoints int                      `json:"data_points"`
	PDI        []Float                  `json:"pdi"`
	LogPDI     []Float                  `json:"log_pdi"`
	PDILog     []Float                  `json:"pdi_log"`
	WAPDI      []Float                  `json:"wapdi"`
	Summaries  map[string]summaryResult `json:"summaries"`
	Files      []string                 `json:"files,omitempty"`
}

func newPointwiseToolResult(draws int, r *diagnostics.PointwiseResult) *PointwiseToolResult {
	return &PointwiseToolResult{
		Draws:      draws,
		DataPoints: r.Len(),
		PDI:        toFloats(r.PDI),
		LogPDI:     toFloats(r.LogPDI),
		PDILog:     toFloats(r.PDILog),
		WAPDI:      toFloats(r.WAPDI),
		Summaries: map[string]summaryResult{
			"pdi":     summarize(r.PDI),
			"log_pdi": summarize(r.LogPDI),
			"pdi_log": summarize(r.PDILog),
			"wapdi":   summarize(r.WAPDI),
		},
	}
}

// PSISToolResult is the output of diag_psis.
type PSISToolResult struct {
	K                   Float                   `json:"k"`
	Reliability         diagnostics.Reliability `json:"reliability"`
	Draws               int                     `json:"draws"`
	EffectiveSampleSize Float                   `json:"effective_sample_size"`
	LogWeights          []Float                 `json:"log_weights,omitempty"`
}

// FileResult reports an image written to disk.
type FileResult struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
