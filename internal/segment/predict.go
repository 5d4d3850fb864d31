package segment

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/ironsheep/segment-diagnostics-mcp/internal/diagnostics"
)

// CovKind selects how a component's covariance parameter is stored in the
// posterior draws.
type CovKind string

const (
	// CovFull stores the row-major packed lower triangle of the Cholesky
	// factor of the covariance, with the diagonal on the log scale.
	CovFull CovKind = "full"

	// CovPrecisionDiagonal stores log precisions, one per dimension.
	CovPrecisionDiagonal CovKind = "precision_diagonal"

	// CovDiagonal stores log variances, one per dimension.
	CovDiagonal CovKind = "cov_diagonal"
)

// ParseCovKind validates a covariance kind name.
func ParseCovKind(s string) (CovKind, error) {
	switch k := CovKind(s); k {
	case CovFull, CovPrecisionDiagonal, CovDiagonal:
		return k, nil
	}
	return "", fmt.Errorf("unknown covariance kind %q", s)
}

// ComponentTrace holds posterior draws for one mixture component.
type ComponentTrace struct {
	// Mu has one draw per row and one dimension per column.
	Mu *mat.Dense

	// Cov has one draw per row. Its columns depend on the CovKind.
	Cov *mat.Dense
}

// ErrDimensionMismatch is returned when mixture components disagree on their
// dimension.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Mixture is a set of Gaussian components evaluated at posterior means.
type Mixture struct {
	Kind       CovKind
	Components []*distmv.Normal
}

// PosteriorMeanComponents averages the draws of each component trace and
// builds the Gaussian component at those averages.
func PosteriorMeanComponents(traces []ComponentTrace, kind CovKind) (*Mixture, error) {
	if len(traces) == 0 {
		return nil, errors.New("no components")
	}
	mix := &Mixture{Kind: kind, Components: make([]*distmv.Normal, len(traces))}
	for i, tr := range traces {
		if tr.Mu == nil || tr.Cov == nil {
			return nil, fmt.Errorf("component %d: missing trace", i)
		}
		_, dim := tr.Mu.Dims()
		if _, dim0 := traces[0].Mu.Dims(); dim != dim0 {
			return nil, fmt.Errorf("component %d has dimension %d, component 0 has %d: %w", i, dim, dim0, ErrDimensionMismatch)
		}
		mu := columnMeans(tr.Mu)
		covParams := columnMeans(tr.Cov)

		sigma, err := covariance(kind, len(mu), covParams)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		n, ok := distmv.NewNormal(mu, sigma, nil)
		if !ok {
			return nil, fmt.Errorf("component %d: covariance is not positive definite", i)
		}
		mix.Components[i] = n
	}
	return mix, nil
}

func columnMeans(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		out[j] = stat.Mean(col, nil)
	}
	return out
}

func covariance(kind CovKind, dim int, params []float64) (*mat.SymDense, error) {
	switch kind {
	case CovFull:
		l, err := diagnostics.ExpandPackedTriangular(dim, params)
		if err != nil {
			return nil, fmt.Errorf("packed Cholesky: %w", err)
		}
		// The diagonal is stored on the log scale.
		for i := 0; i < dim; i++ {
			l.SetTri(i, i, math.Exp(l.At(i, i)))
		}
		var cov mat.SymDense
		cov.SymOuterK(1, l)
		return &cov, nil

	case CovPrecisionDiagonal, CovDiagonal:
		if len(params) != dim {
			return nil, fmt.Errorf("%s has %d values, want %d", kind, len(params), dim)
		}
		cov := mat.NewSymDense(dim, nil)
		for i, v := range params {
			if kind == CovPrecisionDiagonal {
				cov.SetSym(i, i, 1/math.Exp(v))
			} else {
				cov.SetSym(i, i, math.Exp(v))
			}
		}
		return cov, nil
	}
	return nil, fmt.Errorf("unknown covariance kind %q", kind)
}

// Predict assigns each row of pixels to the component with the highest log
// density. Ties go to the lowest component index.
func Predict(pixels mat.Matrix, components []distmv.LogProber) []int {
	r, c := pixels.Dims()
	labels := make([]int, r)
	x := make([]float64, c)
	lp := make([]float64, len(components))
	for i := 0; i < r; i++ {
		mat.Row(x, i, pixels)
		for k, comp := range components {
			lp[k] = comp.LogProb(x)
		}
		labels[i] = floats.MaxIdx(lp)
	}
	return labels
}

// Predict assigns each row of pixels to a component of m.
func (m *Mixture) Predict(pixels mat.Matrix) []int {
	comps := make([]distmv.LogProber, len(m.Components))
	for i, n := range m.Components {
		comps[i] = n
	}
	return Predict(pixels, comps)
}

// Dim returns the dimension shared by the components of m.
func (m *Mixture) Dim() int {
	if len(m.Components) == 0 {
		return 0
	}
	return m.Components[0].Dim()
}

// MeanColors returns the component means keyed by component index, for use as
// a Reconstruct lookup.
func (m *Mixture) MeanColors() map[int][]float64 {
	out := make(map[int][]float64, len(m.Components))
	for i, n := range m.Components {
		out[i] = n.Mean(nil)
	}
	return out
}
