package diagnostics

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// Approximation is a fitted variational approximation to a posterior.
//
// Implementations expose the model's log joint density, a way to draw from
// the approximation, and the closed-form log density of the approximating
// family. Nothing else about the fitting backend is required.
type Approximation interface {
	// LogJoint returns log p(θ, y) for a flat parameter vector θ.
	LogJoint(theta []float64) float64

	// Sample returns n draws from the approximation, one per row.
	Sample(n int) (*mat.Dense, error)

	// Density returns the log density of the approximation.
	Density() (distmv.LogProber, error)
}

// Target is a log joint density over flat parameter vectors.
type Target interface {
	LogJoint(theta []float64) float64
}

// TargetFunc adapts an ordinary function to the Target interface.
type TargetFunc func(theta []float64) float64

// LogJoint calls f(theta).
func (f TargetFunc) LogJoint(theta []float64) float64 { return f(theta) }

// Family is a Gaussian variational family with fitted parameters.
type Family interface {
	// Name returns the short family name ("mean_field" or "full_rank").
	Name() string

	// Dim returns the dimension of the parameter space.
	Dim() int

	// Build returns the fitted density. Draws use src; a nil src uses the
	// global source of golang.org/x/exp/rand.
	Build(src rand.Source) (FittedDensity, error)
}

// FittedDensity is a density that can be evaluated and sampled.
type FittedDensity interface {
	distmv.LogProber
	distmv.Rander
}

// Rho2SD maps an unconstrained scale parameter to a standard deviation with
// the softplus transform log(1 + exp(rho)).
func Rho2SD(rho float64) float64 {
	return math.Max(rho, 0) + math.Log1p(math.Exp(-math.Abs(rho)))
}

// MeanField is a fully factorised Gaussian family. Rho holds the
// unconstrained scale of each coordinate (see Rho2SD).
type MeanField struct {
	Mu  []float64
	Rho []float64
}

// Name implements Family.
func (MeanField) Name() string { return "mean_field" }

// Dim implements Family.
func (f MeanField) Dim() int { return len(f.Mu) }

// Build implements Family.
func (f MeanField) Build(src rand.Source) (FittedDensity, error) {
	if len(f.Mu) == 0 {
		return nil, errors.New("mean_field: empty mean")
	}
	if len(f.Mu) != len(f.Rho) {
		return nil, fmt.Errorf("mean_field: %d means, %d scales: %w", len(f.Mu), len(f.Rho), ErrLengthMismatch)
	}
	d := &independentNormal{dims: make([]distuv.Normal, len(f.Mu))}
	for i := range f.Mu {
		d.dims[i] = distuv.Normal{Mu: f.Mu[i], Sigma: Rho2SD(f.Rho[i]), Src: src}
	}
	return d, nil
}

// independentNormal is a product of univariate normals.
type independentNormal struct {
	dims []distuv.Normal
}

// LogProb returns the sum of the marginal log densities.
func (d *independentNormal) LogProb(x []float64) float64 {
	if len(x) != len(d.dims) {
		panic("diagnostics: dimension mismatch")
	}
	var lp float64
	for i, n := range d.dims {
		lp += n.LogProb(x[i])
	}
	return lp
}

func (d *independentNormal) Rand(dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(d.dims))
	}
	for i, n := range d.dims {
		dst[i] = n.Rand()
	}
	return dst
}

// FullRank is a multivariate Gaussian family parameterised by its mean and
// the row-major packed lower triangle of the Cholesky factor of its
// covariance: L[0,0], L[1,0], L[1,1], L[2,0], ...
type FullRank struct {
	Mu         []float64
	PackedChol []float64
}

// Name implements Family.
func (FullRank) Name() string { return "full_rank" }

// Dim implements Family.
func (f FullRank) Dim() int { return len(f.Mu) }

// Covariance returns L·Lᵀ for the packed Cholesky factor.
func (f FullRank) Covariance() (*mat.SymDense, error) {
	l, err := ExpandPackedTriangular(len(f.Mu), f.PackedChol)
	if err != nil {
		return nil, err
	}
	var cov mat.SymDense
	cov.SymOuterK(1, l)
	return &cov, nil
}

// Build implements Family.
func (f FullRank) Build(src rand.Source) (FittedDensity, error) {
	if len(f.Mu) == 0 {
		return nil, errors.New("full_rank: empty mean")
	}
	cov, err := f.Covariance()
	if err != nil {
		return nil, err
	}
	n, ok := distmv.NewNormal(f.Mu, cov, src)
	if !ok {
		return nil, errors.New("full_rank: covariance is not positive definite")
	}
	return n, nil
}

// ExpandPackedTriangular unpacks the row-major lower triangle of a dim×dim
// matrix.
func ExpandPackedTriangular(dim int, packed []float64) (*mat.TriDense, error) {
	if dim < 1 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	if want := dim * (dim + 1) / 2; len(packed) != want {
		return nil, fmt.Errorf("packed triangle has %d values, want %d for dimension %d: %w", len(packed), want, dim, ErrLengthMismatch)
	}
	l := mat.NewTriDense(dim, mat.Lower, nil)
	idx := 0
	for i := 0; i < dim; i++ {
		for j := 0; j <= i; j++ {
			l.SetTri(i, j, packed[idx])
			idx++
		}
	}
	return l, nil
}

// GaussianApproximation pairs a fitted Gaussian family with the model's log
// joint density.
type GaussianApproximation struct {
	Family Family
	Target Target

	// Src is the random source for draws. Nil uses the global source.
	Src rand.Source
}

// LogJoint implements Approximation.
func (a *GaussianApproximation) LogJoint(theta []float64) float64 {
	return a.Target.LogJoint(theta)
}

// Density implements Approximation.
func (a *GaussianApproximation) Density() (distmv.LogProber, error) {
	return a.Family.Build(a.Src)
}

// Sample implements Approximation.
func (a *GaussianApproximation) Sample(n int) (*mat.Dense, error) {
	if n < 1 {
		return nil, fmt.Errorf("sample size must be positive, got %d", n)
	}
	d, err := a.Family.Build(a.Src)
	if err != nil {
		return nil, err
	}
	draws := mat.NewDense(n, a.Family.Dim(), nil)
	for i := 0; i < n; i++ {
		d.Rand(draws.RawRowView(i))
	}
	return draws, nil
}

// NormalTarget is a multivariate normal log joint density.
type NormalTarget struct {
	normal *distmv.Normal
}

// NewNormalTarget returns a NormalTarget with mean mu and covariance cov.
func NewNormalTarget(mu []float64, cov mat.Symmetric) (*NormalTarget, error) {
	if len(mu) == 0 || cov.SymmetricDim() != len(mu) {
		return nil, fmt.Errorf("target mean has %d values, covariance is %dx%d: %w", len(mu), cov.SymmetricDim(), cov.SymmetricDim(), ErrLengthMismatch)
	}
	n, ok := distmv.NewNormal(mu, cov, nil)
	if !ok {
		return nil, errors.New("target covariance is not positive definite")
	}
	return &NormalTarget{normal: n}, nil
}

// LogJoint implements Target.
func (t *NormalTarget) LogJoint(theta []float64) float64 {
	return t.normal.LogProb(theta)
}

// LogImportanceRatio draws nsample parameter vectors from approx and returns
// the log joint density at each draw, the approximation's log density at each
// draw, and their difference.
func LogImportanceRatio(approx Approximation, nsample int) (pThetaY, qTheta, lw []float64, err error) {
	q, err := approx.Density()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build approximation density: %w", err)
	}
	draws, err := approx.Sample(nsample)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to sample approximation: %w", err)
	}

	pThetaY = make([]float64, nsample)
	qTheta = make([]float64, nsample)
	for i := 0; i < nsample; i++ {
		theta := draws.RawRowView(i)
		pThetaY[i] = approx.LogJoint(theta)
		qTheta[i] = q.LogProb(theta)
	}
	lw = make([]float64, nsample)
	floats.SubTo(lw, pThetaY, qTheta)
	return pThetaY, qTheta, lw, nil
}

// PSIS draws nsample times from approx and runs the Pareto-smoothed
// importance sampling diagnostic on the resulting log importance ratios.
func PSIS(approx Approximation, nsample int) (*PSISResult, error) {
	pThetaY, qTheta, _, err := LogImportanceRatio(approx, nsample)
	if err != nil {
		return nil, err
	}
	return ImportanceDiagnostic(pThetaY, qTheta)
}
