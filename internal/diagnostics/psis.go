package diagnostics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const (
	// kMin is the smallest tail shape for which the tail is smoothed.
	kMin = 1.0 / 3

	// Weak prior used by the generalized Pareto fit.
	gpdPriorBs = 3.0
	gpdPriorK  = 10.0

	// machEps is the float64 machine epsilon (2^-52).
	machEps = 0x1p-52
)

// cutoffMin is log of the smallest normal float64.
var cutoffMin = math.Log(0x1p-1022)

// ErrLengthMismatch is returned when paired inputs differ in length.
var ErrLengthMismatch = errors.New("length mismatch")

// Reliability classifies a Pareto shape estimate.
type Reliability string

const (
	ReliabilityGood     Reliability = "good"
	ReliabilityOK       Reliability = "ok"
	ReliabilityBad      Reliability = "bad"
	ReliabilityVeryBad  Reliability = "very bad"
	ReliabilityNotKnown Reliability = "unknown"
)

// ClassifyK maps a Pareto shape estimate to a Reliability. Infinite k
// (too few tail draws to fit) is reported as unknown.
func ClassifyK(k float64) Reliability {
	switch {
	case math.IsNaN(k) || math.IsInf(k, 0):
		return ReliabilityNotKnown
	case k < 0.5:
		return ReliabilityGood
	case k < 0.7:
		return ReliabilityOK
	case k < 1:
		return ReliabilityBad
	default:
		return ReliabilityVeryBad
	}
}

// PSISResult is the outcome of Pareto-smoothed importance sampling.
type PSISResult struct {
	// LogWeights are the smoothed and normalised log importance weights.
	LogWeights []float64 `json:"log_weights"`

	// K is the estimated generalized Pareto shape of the weight tail.
	K float64 `json:"k"`

	// Raw holds the unsmoothed log importance ratios.
	Raw []float64 `json:"raw"`
}

// Reliability classifies r.K.
func (r *PSISResult) Reliability() Reliability {
	return ClassifyK(r.K)
}

// EffectiveSampleSize returns 1 / sum(w^2) for the normalised weights.
func (r *PSISResult) EffectiveSampleSize() float64 {
	var s float64
	for _, lw := range r.LogWeights {
		s += math.Exp(2 * lw)
	}
	return 1 / s
}

// ImportanceDiagnostic computes the log importance ratios pThetaY - qTheta
// and smooths them with SmoothLogWeights (relative efficiency 1).
//
// pThetaY holds the log joint density at each draw, qTheta the log density of
// the approximation at the same draws.
func ImportanceDiagnostic(pThetaY, qTheta []float64) (*PSISResult, error) {
	if len(pThetaY) != len(qTheta) {
		return nil, fmt.Errorf("p_theta_y has %d values, q_theta has %d: %w", len(pThetaY), len(qTheta), ErrLengthMismatch)
	}
	if len(pThetaY) == 0 {
		return nil, errors.New("no draws to diagnose")
	}
	lw := make([]float64, len(pThetaY))
	floats.SubTo(lw, pThetaY, qTheta)

	smoothed, k := SmoothLogWeights(lw, 1)
	return &PSISResult{LogWeights: smoothed, K: k, Raw: lw}, nil
}

// SmoothLogWeights applies Pareto smoothing to the log importance weights lw
// and returns the smoothed, normalised weights along with the tail shape
// estimate k. reff is the relative MCMC efficiency of the draws; use 1 for
// independent draws.
//
// The largest ceil(min(0.2·S, 3·sqrt(S/reff))) weights form the tail. When the
// tail has fewer than five draws k is +Inf and no smoothing happens. The tail
// is only replaced when k >= 1/3.
//
// lw is not modified.
func SmoothLogWeights(lw []float64, reff float64) ([]float64, float64) {
	n := len(lw)
	x := make([]float64, n)
	copy(x, lw)
	floats.AddConst(-floats.Max(x), x)

	tailLen := int(math.Ceil(math.Min(0.2*float64(n), 3*math.Sqrt(float64(n)/reff))))
	sorted := make([]float64, n)
	copy(sorted, x)
	sort.Float64s(sorted)
	ci := n - tailLen - 1
	if ci < 0 {
		ci = 0
	}
	cutoff := math.Max(sorted[ci], cutoffMin)
	expCutoff := math.Exp(cutoff)

	var tailIdx []int
	for i, v := range x {
		if v > cutoff {
			tailIdx = append(tailIdx, i)
		}
	}

	k := math.Inf(1)
	if len(tailIdx) > 4 {
		tail := make([]float64, len(tailIdx))
		for i, j := range tailIdx {
			tail[i] = x[j]
		}
		order := make([]int, len(tail))
		floats.Argsort(tail, order)
		for i, v := range tail {
			tail[i] = math.Exp(v) - expCutoff
		}

		var sigma float64
		k, sigma = FitGeneralizedPareto(tail)
		if k >= kMin && !math.IsInf(k, 0) {
			m := float64(len(tail))
			for i := range tail {
				q := GeneralizedParetoQuantile((float64(i)+0.5)/m, k, sigma)
				x[tailIdx[order[i]]] = math.Log(q + expCutoff)
			}
			for i, v := range x {
				if v > 0 {
					x[i] = 0
				}
			}
		}
	}

	floats.AddConst(-floats.LogSumExp(x), x)
	return x, k
}

// FitGeneralizedPareto estimates the shape k and scale sigma of a
// generalized Pareto distribution from the ascending-sorted, positive
// exceedances x, following Zhang & Stephens (2009) with a weakly informative
// prior on k.
func FitGeneralizedPareto(x []float64) (k, sigma float64) {
	n := len(x)
	nf := float64(n)
	m := 30 + int(math.Sqrt(nf))

	quartile := x[int(nf/4+0.5)-1]
	b := make([]float64, m)
	for j := range b {
		b[j] = 1 - math.Sqrt(float64(m)/(float64(j+1)-0.5))
		b[j] /= gpdPriorBs * quartile
		b[j] += 1 / x[n-1]
	}

	logLik := make([]float64, m)
	for j, bj := range b {
		kj := meanLog1p(-bj, x)
		logLik[j] = nf * (math.Log(-bj/kj) - kj - 1)
	}

	w := make([]float64, 0, m)
	bKept := make([]float64, 0, m)
	for j := range b {
		var s float64
		for i := range logLik {
			s += math.Exp(logLik[i] - logLik[j])
		}
		wj := 1 / s
		if wj >= 10*machEps {
			w = append(w, wj)
			bKept = append(bKept, b[j])
		}
	}
	floats.Scale(1/floats.Sum(w), w)

	bPost := floats.Dot(bKept, w)
	k = meanLog1p(-bPost, x)
	k = (nf*k + gpdPriorK*0.5) / (nf + gpdPriorK)
	sigma = -k / bPost
	return k, sigma
}

// meanLog1p returns mean_i log1p(c·x_i).
func meanLog1p(c float64, x []float64) float64 {
	var s float64
	for _, v := range x {
		s += math.Log1p(c * v)
	}
	return s / float64(len(x))
}

// GeneralizedParetoQuantile returns the p-quantile of a generalized Pareto
// distribution with shape k, scale sigma and location 0. It returns NaN for
// sigma <= 0 or p outside (0, 1).
func GeneralizedParetoQuantile(p, k, sigma float64) float64 {
	if sigma <= 0 || !(p > 0 && p < 1) {
		return math.NaN()
	}
	if math.Abs(k) < machEps {
		return -math.Log1p(-p) * sigma
	}
	return math.Expm1(-k*math.Log1p(-p)) / k * sigma
}
