// Package metrics scores a predicted segmentation against ground-truth
// labels.
//
// Scores follow the usual external clustering-validation definitions:
//
//   - Homogeneity: each cluster contains only members of a single class.
//   - Completeness: all members of a class are assigned to the same cluster.
//   - V-measure: harmonic mean of homogeneity and completeness.
//   - Adjusted Rand index: pair-counting agreement corrected for chance.
//   - Adjusted mutual information: mutual information corrected for chance,
//     normalised by the arithmetic mean of the two entropies.
//
// All scores are invariant to permutations of the label values.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ClusterScores holds the external validation scores of a clustering.
type ClusterScores struct {
	Homogeneity        float64 `json:"homogeneity"`
	Completeness       float64 `json:"completeness"`
	VMeasure           float64 `json:"v_measure"`
	AdjustedRand       float64 `json:"adjusted_rand_index"`
	AdjustedMutualInfo float64 `json:"adjusted_mutual_information"`
}

// String renders the scores one per line with three decimals.
func (s *ClusterScores) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Homogeneity: %0.3f\n", s.Homogeneity)
	fmt.Fprintf(&b, "Completeness: %0.3f\n", s.Completeness)
	fmt.Fprintf(&b, "V-measure: %0.3f\n", s.VMeasure)
	fmt.Fprintf(&b, "Adjusted Rand Index: %0.3f\n", s.AdjustedRand)
	fmt.Fprintf(&b, "Adjusted Mutual Information: %0.3f\n", s.AdjustedMutualInfo)
	return b.String()
}

// ScoreClustering compares predicted labels with true labels.
func ScoreClustering(truth, pred []int) (*ClusterScores, error) {
	if len(truth) != len(pred) {
		return nil, fmt.Errorf("%d true labels, %d predicted labels", len(truth), len(pred))
	}
	if len(truth) == 0 {
		return nil, errors.New("no labels to score")
	}

	ct := newContingency(truth, pred)
	hTrue := entropyOf(ct.rowSums, ct.n)
	hPred := entropyOf(ct.colSums, ct.n)
	mi := ct.mutualInfo()

	s := &ClusterScores{
		Homogeneity:  1,
		Completeness: 1,
	}
	if hTrue != 0 {
		s.Homogeneity = mi / hTrue
	}
	if hPred != 0 {
		s.Completeness = mi / hPred
	}
	if s.Homogeneity+s.Completeness != 0 {
		s.VMeasure = 2 * s.Homogeneity * s.Completeness / (s.Homogeneity + s.Completeness)
	}
	s.AdjustedRand = ct.adjustedRand()
	s.AdjustedMutualInfo = ct.adjustedMutualInfo(mi, hTrue, hPred)
	return s, nil
}

// contingency is the class × cluster count table.
type contingency struct {
	counts  *mat.Dense
	rowSums []float64
	colSums []float64
	n       float64
}

func newContingency(truth, pred []int) *contingency {
	rows := denseIndex(truth)
	cols := denseIndex(pred)

	counts := mat.NewDense(len(rows), len(cols), nil)
	for i := range truth {
		r, c := rows[truth[i]], cols[pred[i]]
		counts.Set(r, c, counts.At(r, c)+1)
	}

	ct := &contingency{
		counts:  counts,
		rowSums: make([]float64, len(rows)),
		colSums: make([]float64, len(cols)),
		n:       float64(len(truth)),
	}
	for i := range ct.rowSums {
		ct.rowSums[i] = mat.Sum(counts.RowView(i))
	}
	for j := range ct.colSums {
		ct.colSums[j] = mat.Sum(counts.ColView(j))
	}
	return ct
}

// denseIndex maps each distinct label to its rank among the sorted labels.
func denseIndex(labels []int) map[int]int {
	seen := make(map[int]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	uniq := make([]int, 0, len(seen))
	for l := range seen {
		uniq = append(uniq, l)
	}
	sort.Ints(uniq)
	idx := make(map[int]int, len(uniq))
	for i, l := range uniq {
		idx[l] = i
	}
	return idx
}

func entropyOf(counts []float64, n float64) float64 {
	p := make([]float64, len(counts))
	for i, c := range counts {
		p[i] = c / n
	}
	return stat.Entropy(p)
}

func (ct *contingency) mutualInfo() float64 {
	r, c := ct.counts.Dims()
	var mi float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			nij := ct.counts.At(i, j)
			if nij == 0 {
				continue
			}
			mi += nij / ct.n * (math.Log(ct.n*nij) - math.Log(ct.rowSums[i]*ct.colSums[j]))
		}
	}
	return math.Max(mi, 0)
}

func comb2(n float64) float64 {
	return n * (n - 1) / 2
}

func (ct *contingency) adjustedRand() float64 {
	r, c := ct.counts.Dims()
	if (r == 1 && c == 1) || (float64(r) == ct.n && float64(c) == ct.n) {
		return 1
	}

	var sumComb, sumA, sumB float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sumComb += comb2(ct.counts.At(i, j))
		}
	}
	for _, a := range ct.rowSums {
		sumA += comb2(a)
	}
	for _, b := range ct.colSums {
		sumB += comb2(b)
	}

	expected := sumA * sumB / comb2(ct.n)
	maxIndex := (sumA + sumB) / 2
	if maxIndex == expected {
		return 1
	}
	return (sumComb - expected) / (maxIndex - expected)
}

func (ct *contingency) adjustedMutualInfo(mi, hTrue, hPred float64) float64 {
	r, c := ct.counts.Dims()
	if r == 1 && c == 1 {
		return 1
	}
	emi := ct.expectedMutualInfo()
	denom := (hTrue+hPred)/2 - emi
	const eps = 0x1p-52
	if denom < 0 {
		denom = math.Min(denom, -eps)
	} else {
		denom = math.Max(denom, eps)
	}
	return (mi - emi) / denom
}

// expectedMutualInfo is the expectation of the mutual information under the
// hypergeometric model of random labelings with fixed marginals.
func (ct *contingency) expectedMutualInfo() float64 {
	n := ct.n
	lgN := lgamma(n + 1)
	var emi float64
	for _, a := range ct.rowSums {
		for _, b := range ct.colSums {
			lo := math.Max(1, a+b-n)
			hi := math.Min(a, b)
			base := lgamma(a+1) + lgamma(b+1) + lgamma(n-a+1) + lgamma(n-b+1) - lgN
			for nij := lo; nij <= hi; nij++ {
				term := nij / n * (math.Log(n*nij) - math.Log(a*b))
				g := base - lgamma(nij+1) - lgamma(a-nij+1) - lgamma(b-nij+1) - lgamma(n-a-b+nij+1)
				emi += term * math.Exp(g)
			}
		}
	}
	return emi
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
