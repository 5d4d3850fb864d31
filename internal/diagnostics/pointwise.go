package diagnostics

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PointwiseResult holds the per-point predictive diagnostics for a
// log-likelihood matrix. Every slice has one entry per data point.
type PointwiseResult struct {
	// LPPD is the log pointwise predictive density, log mean_s p(x_n|θ_s).
	LPPD []float64 `json:"lppd"`

	// Mu is exp(LPPD), the mean predictive density of each point.
	Mu []float64 `json:"mu"`

	// VarLog and MuLog are the population variance and mean of the
	// log-likelihoods over draws.
	VarLog []float64 `json:"var_log"`
	MuLog  []float64 `json:"mu_log"`

	// Var is the population variance of the likelihoods over draws.
	Var []float64 `json:"var"`

	// PDI is Var / Mu.
	PDI []float64 `json:"pdi"`

	// LogPDI carries the same values as PDI. Callers that plot a "log-pdi"
	// panel read this field.
	LogPDI []float64 `json:"log_pdi"`

	// PDILog is VarLog / MuLog.
	PDILog []float64 `json:"pdi_log"`

	// WAPDI is VarLog / log(Mu).
	WAPDI []float64 `json:"wapdi"`
}

// Len returns the number of data points covered by r.
func (r *PointwiseResult) Len() int {
	return len(r.PDI)
}

func newPointwiseResult(n int) *PointwiseResult {
	return &PointwiseResult{
		LPPD:   make([]float64, n),
		Mu:     make([]float64, n),
		VarLog: make([]float64, n),
		MuLog:  make([]float64, n),
		Var:    make([]float64, n),
		PDI:    make([]float64, n),
		LogPDI: make([]float64, n),
		PDILog: make([]float64, n),
		WAPDI:  make([]float64, n),
	}
}

// Pointwise computes the pointwise diagnostics of logPx, a matrix with one
// row per posterior draw and one column per data point.
//
// For each column n, with S draws:
//
//	lppd_n    = logsumexp_s(log_px[s,n]) - log S
//	mu_n      = exp(lppd_n)
//	var_log_n = Var_s(log_px[s,n])        (population variance)
//	mu_log_n  = Mean_s(log_px[s,n])
//	var_n     = Var_s(exp(log_px[s,n]))   (population variance)
//	pdi_n     = var_n / mu_n
//	pdi_log_n = var_log_n / mu_log_n
//	wapdi_n   = var_log_n / log(mu_n)
//
// Zero denominators are not trapped and yield ±Inf or NaN.
//
// Pointwise panics if logPx has no rows or no columns.
func Pointwise(logPx mat.Matrix) *PointwiseResult {
	s, n := logPx.Dims()
	if s == 0 || n == 0 {
		panic("diagnostics: empty log-likelihood matrix")
	}
	res := newPointwiseResult(n)
	res.fillColumns(logPx, 0, n)
	return res
}

// PointwiseParallel computes the same result as Pointwise, splitting the
// columns of logPx into contiguous ranges handled by up to workers
// goroutines. Each goroutine writes a disjoint range of the output slices.
func PointwiseParallel(logPx mat.Matrix, workers int) *PointwiseResult {
	s, n := logPx.Dims()
	if s == 0 || n == 0 {
		panic("diagnostics: empty log-likelihood matrix")
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	res := newPointwiseResult(n)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			res.fillColumns(logPx, lo, hi)
		}(lo, hi)
	}
	wg.Wait()
	return res
}

// fillColumns computes columns [lo, hi) of logPx into r.
func (r *PointwiseResult) fillColumns(logPx mat.Matrix, lo, hi int) {
	s, _ := logPx.Dims()
	logS := math.Log(float64(s))
	col := make([]float64, s)
	lik := make([]float64, s)

	for j := lo; j < hi; j++ {
		mat.Col(col, j, logPx)

		lppd := floats.LogSumExp(col) - logS
		mu := math.Exp(lppd)

		muLog, varLog := stat.PopMeanVariance(col, nil)

		for i, v := range col {
			lik[i] = math.Exp(v)
		}
		_, v := stat.PopMeanVariance(lik, nil)

		pdi := v / mu

		r.LPPD[j] = lppd
		r.Mu[j] = mu
		r.VarLog[j] = varLog
		r.MuLog[j] = muLog
		r.Var[j] = v
		r.PDI[j] = pdi
		r.LogPDI[j] = pdi
		r.PDILog[j] = varLog / muLog
		r.WAPDI[j] = varLog / math.Log(mu)
	}
}
