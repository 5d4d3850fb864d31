package diagnostics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

func randomLogLik(s, n int, seed uint64) *mat.Dense {
	rnd := rand.New(rand.NewSource(seed))
	m := mat.NewDense(s, n, nil)
	for i := 0; i < s; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, -0.5-3*rnd.Float64())
		}
	}
	return m
}

func TestPointwise_Lengths(t *testing.T) {
	tests := []struct {
		name string
		s, n int
	}{
		{"single draw single point", 1, 1},
		{"single draw", 1, 7},
		{"many draws", 50, 3},
		{"square", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Pointwise(randomLogLik(tt.s, tt.n, 1))
			assert.Equal(t, tt.n, res.Len())
			for _, v := range [][]float64{res.PDI, res.LogPDI, res.PDILog, res.WAPDI, res.Mu, res.LPPD, res.VarLog, res.MuLog, res.Var} {
				assert.Len(t, v, tt.n)
			}
		})
	}
}

func TestPointwise_ConstantColumn(t *testing.T) {
	const c = -2.0
	logPx := mat.NewDense(4, 2, []float64{
		c, -1,
		c, -3,
		c, -2,
		c, -0.5,
	})

	res := Pointwise(logPx)

	assert.InDelta(t, math.Exp(c), res.Mu[0], 1e-12)
	assert.InDelta(t, 0, res.VarLog[0], 1e-12)
	assert.InDelta(t, 0, res.PDI[0], 1e-12)
	assert.InDelta(t, 0, res.PDILog[0], 1e-12)
	assert.InDelta(t, 0, res.WAPDI[0], 1e-12)

	// The second column is not constant.
	assert.Greater(t, res.VarLog[1], 0.0)
}

func TestPointwise_StableMeanMatchesNaive(t *testing.T) {
	logPx := randomLogLik(40, 25, 7)
	res := Pointwise(logPx)

	s, n := logPx.Dims()
	for j := 0; j < n; j++ {
		var naive float64
		for i := 0; i < s; i++ {
			naive += math.Exp(logPx.At(i, j))
		}
		naive /= float64(s)
		assert.True(t, scalar.EqualWithinRel(res.Mu[j], naive, 1e-9), "column %d: got %v, naive %v", j, res.Mu[j], naive)
	}
}

func TestPointwise_ShiftInvariance(t *testing.T) {
	const shift = -4.25
	logPx := randomLogLik(30, 6, 3)

	var shifted mat.Dense
	shifted.Apply(func(_, _ int, v float64) float64 { return v + shift }, logPx)

	base := Pointwise(logPx)
	moved := Pointwise(&shifted)

	for j := range base.MuLog {
		assert.InDelta(t, base.MuLog[j]+shift, moved.MuLog[j], 1e-9)
		assert.InDelta(t, base.VarLog[j], moved.VarLog[j], 1e-9)
	}
}

func TestPointwise_AllZeros(t *testing.T) {
	res := Pointwise(mat.NewDense(2, 2, []float64{0, 0, 0, 0}))

	assert.Equal(t, []float64{1, 1}, res.Mu)
	assert.Equal(t, []float64{0, 0}, res.VarLog)
	assert.Equal(t, []float64{0, 0}, res.PDI)
	for j := range res.PDILog {
		assert.True(t, math.IsNaN(res.PDILog[j]), "pdi_log[%d] = %v, want NaN", j, res.PDILog[j])
	}
}

func TestPointwise_HandExample(t *testing.T) {
	res := Pointwise(mat.NewDense(2, 2, []float64{
		-1, -2,
		-3, -1,
	}))

	// mu_0 = exp(logsumexp(-1, -3) - log 2) = (e^-1 + e^-3) / 2
	assert.InDelta(t, 0.2088333, res.Mu[0], 1e-6)
	assert.InDelta(t, (math.Exp(-1)+math.Exp(-3))/2, res.Mu[0], 1e-12)
	assert.InDelta(t, (math.Exp(-2)+math.Exp(-1))/2, res.Mu[1], 1e-12)

	assert.InDelta(t, 1.0, res.VarLog[0], 1e-12)
	assert.InDelta(t, -2.0, res.MuLog[0], 1e-12)
	assert.InDelta(t, -0.5, res.PDILog[0], 1e-12)
	assert.InDelta(t, 1/math.Log(res.Mu[0]), res.WAPDI[0], 1e-12)

	wantVar := math.Pow((math.Exp(-1)-math.Exp(-3))/2, 2)
	assert.InDelta(t, wantVar, res.Var[0], 1e-12)
	assert.InDelta(t, wantVar/res.Mu[0], res.PDI[0], 1e-12)
	assert.Equal(t, res.PDI, res.LogPDI)
}

func TestPointwise_DegenerateColumnPropagates(t *testing.T) {
	inf := math.Inf(-1)
	res := Pointwise(mat.NewDense(2, 1, []float64{inf, inf}))

	assert.Equal(t, 0.0, res.Mu[0])
	assert.False(t, isFinite(res.PDI[0]))
}

func TestPointwise_EmptyPanics(t *testing.T) {
	assert.Panics(t, func() { Pointwise(&mat.Dense{}) })
}

func TestPointwiseParallel_MatchesSerial(t *testing.T) {
	logPx := randomLogLik(20, 103, 11)
	want := Pointwise(logPx)

	for _, workers := range []int{0, 1, 2, 7, 200} {
		got := PointwiseParallel(logPx, workers)
		require.Equal(t, want.Len(), got.Len(), "workers=%d", workers)
		assert.Equal(t, want.PDI, got.PDI, "workers=%d", workers)
		assert.Equal(t, want.PDILog, got.PDILog, "workers=%d", workers)
		assert.Equal(t, want.WAPDI, got.WAPDI, "workers=%d", workers)
		assert.Equal(t, want.Mu, got.Mu, "workers=%d", workers)
	}
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
