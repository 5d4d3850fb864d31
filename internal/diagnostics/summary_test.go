package diagnostics

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinite(t *testing.T) {
	in := []float64{1, math.NaN(), 2, math.Inf(1), math.Inf(-1), -3}
	assert.Equal(t, []float64{1, 2, -3}, Finite(in))
	assert.Len(t, in, 6, "input must not be modified")
	assert.Empty(t, Finite(nil))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{4, math.NaN(), 1, 3, 2, math.Inf(1)})

	assert.Equal(t, 6, s.Count)
	assert.Equal(t, 4, s.Finite)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.StdDev, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 2.5, s.Median)

	odd := Summarize([]float64{5, 1, math.Inf(-1), 3})
	assert.Equal(t, 3.0, odd.Median)
}

func TestSummarize_NoFinite(t *testing.T) {
	s := Summarize([]float64{math.NaN(), math.Inf(1)})

	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 0, s.Finite)
	assert.True(t, math.IsNaN(s.Mean))
	assert.True(t, math.IsNaN(s.Max))
}

func TestReadLogLikelihoodCSV(t *testing.T) {
	m, err := ReadLogLikelihoodCSV(strings.NewReader("-1, -2\n-3,-1\n"))
	require.NoError(t, err)

	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, -3.0, m.At(1, 0))
	assert.Equal(t, -2.0, m.At(0, 1))
}

func TestReadLogLikelihoodCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"ragged", "-1,-2\n-3\n"},
		{"not a number", "-1,abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadLogLikelihoodCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}

	_, err := ReadLogLikelihoodCSV(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrEmptyMatrix))
}

func TestFromRows(t *testing.T) {
	m, err := FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 6.0, m.At(1, 2))

	_, err = FromRows([][]float64{{1, 2}, {3}})
	assert.Error(t, err)

	_, err = FromRows(nil)
	assert.ErrorIs(t, err, ErrEmptyMatrix)
}
