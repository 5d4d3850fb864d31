package diagnostics

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Finite returns the finite entries of xs, in order. NaN and ±Inf are
// dropped. The input is not modified.
func Finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

// Summary describes the finite part of a diagnostic vector.
type Summary struct {
	Count  int     `json:"count"`
	Finite int     `json:"finite"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// Summarize computes a Summary over the finite entries of xs. When xs has
// no finite entries the statistics are NaN.
func Summarize(xs []float64) Summary {
	fin := Finite(xs)
	sum := Summary{Count: len(xs), Finite: len(fin)}
	if len(fin) == 0 {
		nan := math.NaN()
		sum.Mean, sum.StdDev, sum.Min, sum.Median, sum.Max = nan, nan, nan, nan, nan
		return sum
	}
	sort.Float64s(fin)
	sum.Mean, sum.StdDev = stat.PopMeanStdDev(fin, nil)
	sum.Min = fin[0]
	sum.Max = fin[len(fin)-1]
	sum.Median = median(fin)
	return sum
}

// ErrEmptyMatrix is returned when a log-likelihood source holds no values.
var ErrEmptyMatrix = errors.New("empty log-likelihood matrix")

// ReadLogLikelihoodCSV reads a log-likelihood matrix from comma-separated
// text: one posterior draw per line, one data point per field. Blank lines are
// skipped. All lines must have the same number of fields.
func ReadLogLikelihoodCSV(r io.Reader) (*mat.Dense, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		data []float64
		rows int
		cols int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read log-likelihood row %d: %w", rows+1, err)
		}
		if rows == 0 {
			cols = len(rec)
		}
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse log-likelihood at row %d column %d: %w", rows+1, j+1, err)
			}
			data = append(data, v)
		}
		rows++
	}
	if rows == 0 || cols == 0 {
		return nil, ErrEmptyMatrix
	}
	return mat.NewDense(rows, cols, data), nil
}

// FromRows builds a log-likelihood matrix from a row-per-draw slice. Rows
// must be non-empty and share one length.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyMatrix
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// median of sorted xs, averaging the two middle values for an even count.
func median(xs []float64) float64 {
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}
