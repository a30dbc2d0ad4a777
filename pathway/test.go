package pathway

import (
	"math"
	"sort"

	"github.com/carbocation/pfx"
	fet "github.com/glycerine/golang-fisher-exact"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/scmetab/scmetab"
)

// WelchTester compares two score vectors with Welch's unequal-variance t
// statistic, plus a Fisher exact test on membership above the pooled median
// as a rank-free sanity check.
type WelchTester struct{}

func (WelchTester) Test(a, b []float64) (TestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return TestResult{}, scmetab.NewDataError("need at least 2 observations per side, got %d and %d", len(a), len(b))
	}

	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)

	na := float64(len(a))
	nb := float64(len(b))

	se2 := varA/na + varB/nb
	if se2 == 0 {
		// Both sides constant: no evidence either way.
		return TestResult{Effect: meanA - meanB, PValue: 1, FisherP: 1}, nil
	}

	t := (meanA - meanB) / math.Sqrt(se2)

	// Welch-Satterthwaite degrees of freedom
	df := se2 * se2 / ((varA*varA)/(na*na*(na-1)) + (varB*varB)/(nb*nb*(nb-1)))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))

	fisherP, err := fisherAboveMedian(a, b)
	if err != nil {
		return TestResult{}, err
	}

	return TestResult{
		Effect:  meanA - meanB,
		TStat:   t,
		PValue:  p,
		FisherP: fisherP,
	}, nil
}

// fisherAboveMedian builds a 2x2 table of above/at-or-below the pooled
// median and returns the two-sided Fisher exact p-value.
func fisherAboveMedian(a, b []float64) (float64, error) {
	pooled := make([]float64, 0, len(a)+len(b))
	pooled = append(pooled, a...)
	pooled = append(pooled, b...)

	median, err := stats.Median(pooled)
	if err != nil {
		return 0, pfx.Err(err)
	}

	countAbove := func(xs []float64) int {
		n := 0
		for _, x := range xs {
			if x > median {
				n++
			}
		}
		return n
	}

	n11 := countAbove(a)
	n12 := len(a) - n11
	n21 := countAbove(b)
	n22 := len(b) - n21

	_, _, _, twop := fet.FisherExactTest(n11, n12, n21, n22)

	return twop, nil
}

// AdjustBH applies Benjamini-Hochberg false-discovery adjustment, returning
// adjusted p-values in the input order.
func AdjustBH(pvalues []float64) []float64 {
	n := len(pvalues)
	if n == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return pvalues[order[i]] < pvalues[order[j]]
	})

	out := make([]float64, n)
	minSoFar := 1.0
	for rank := n - 1; rank >= 0; rank-- {
		idx := order[rank]
		adjusted := pvalues[idx] * float64(n) / float64(rank+1)
		if adjusted < minSoFar {
			minSoFar = adjusted
		}
		out[idx] = minSoFar
	}

	return out
}
