package pathway

import (
	"log"
	"math/rand"

	"github.com/carbocation/pfx"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/scmetab/scmetab"
	"github.com/scmetab/scmetab/exprs"
	"github.com/scmetab/scmetab/gmt"
	"github.com/scmetab/scmetab/partition"
)

// DefaultScorer scores pathway activity as the ratio of a group's mean
// set expression to the mean over all grouped cells, with significance from
// permuting group labels.
type DefaultScorer struct {
	// NTimes is the number of label permutations per pathway.
	NTimes int

	// Seed fixes the permutation stream so runs are reproducible.
	Seed int64
}

func NewDefaultScorer(ntimes int, seed int64) *DefaultScorer {
	if ntimes <= 0 {
		ntimes = 1000
	}
	return &DefaultScorer{NTimes: ntimes, Seed: seed}
}

// Score computes the activity of every gene set in every group. Sets with
// fewer than two genes present in the matrix are skipped with a log note.
// Groups listed in the partition but absent from the matrix surface as
// DataErrors.
func (s *DefaultScorer) Score(mat *exprs.Matrix, sets []gmt.GeneSet, groups *partition.Partition) ([]Activity, error) {
	cellCols, groupOf, err := groupColumns(mat, groups)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.Seed))

	var out []Activity
	for _, set := range sets {
		rows := matrixRows(mat, set)
		if len(rows) < 2 {
			log.Printf("pathway %s: only %d of %d genes present, skipping", set.Name, len(rows), len(set.Genes))
			continue
		}

		// Mean set expression per cell, over all grouped cells.
		cellScores := make([]float64, len(cellCols))
		for i, col := range cellCols {
			sum := 0.0
			for _, gi := range rows {
				sum += mat.At(gi, col)
			}
			cellScores[i] = sum / float64(len(rows))
		}
		overall := stat.Mean(cellScores, nil)

		observed := groupMeans(cellScores, groupOf, groups.Names)

		// Permute the cell => group assignment to build the null for each
		// group's relative activity.
		exceed := make(map[string]int)
		counts := make(map[string]int)
		for _, g := range groupOf {
			counts[g]++
		}

		shuffled := append([]string{}, groupOf...)
		for iter := 0; iter < s.NTimes; iter++ {
			rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			permuted := groupMeans(cellScores, shuffled, groups.Names)
			for g, m := range permuted {
				if m >= observed[g] {
					exceed[g]++
				}
			}
		}

		for _, g := range groups.Names {
			if _, ok := groups.Members[g]; !ok {
				continue
			}
			score := 0.0
			if overall > 0 {
				score = observed[g] / overall
			}
			out = append(out, Activity{
				Pathway: set.Name,
				Group:   g,
				Score:   score,
				PValue:  (float64(exceed[g]) + 1) / (float64(s.NTimes) + 1),
				NGenes:  len(rows),
				NCells:  counts[g],
			})
		}
	}

	return out, nil
}

// Heterogeneity summarizes the spread of per-cell set scores inside each
// group via quartiles.
func (s *DefaultScorer) Heterogeneity(mat *exprs.Matrix, sets []gmt.GeneSet, groups *partition.Partition) ([]Heterogeneity, error) {
	var out []Heterogeneity

	for _, set := range sets {
		rows := matrixRows(mat, set)
		if len(rows) < 2 {
			log.Printf("pathway %s: only %d of %d genes present, skipping", set.Name, len(rows), len(set.Genes))
			continue
		}

		for _, g := range groups.Names {
			cells, ok := groups.Members[g]
			if !ok {
				continue
			}

			scores, err := CellScores(mat, set, cells)
			if err != nil {
				return nil, err
			}

			quartiles, err := stats.Quartile(scores)
			if err != nil {
				return nil, pfx.Err(err)
			}

			out = append(out, Heterogeneity{
				Pathway: set.Name,
				Group:   g,
				Median:  quartiles.Q2,
				Q1:      quartiles.Q1,
				Q3:      quartiles.Q3,
				IQR:     quartiles.Q3 - quartiles.Q1,
				NCells:  len(cells),
			})
		}
	}

	return out, nil
}

// CellScores returns the mean expression of a gene set per cell, for the
// named cells. Sets need at least two genes present in the matrix.
func CellScores(mat *exprs.Matrix, set gmt.GeneSet, cells []string) ([]float64, error) {
	rows := matrixRows(mat, set)
	if len(rows) < 2 {
		return nil, scmetab.NewDataError("pathway %s: only %d of %d genes present in expression", set.Name, len(rows), len(set.Genes))
	}

	sub, err := mat.Subset(cells)
	if err != nil {
		return nil, err
	}

	out := make([]float64, sub.NCells())
	for ci := 0; ci < sub.NCells(); ci++ {
		sum := 0.0
		for _, gene := range set.Genes {
			gi, ok := sub.GeneIndex(gene)
			if !ok {
				continue
			}
			sum += sub.At(gi, ci)
		}
		out[ci] = sum / float64(len(rows))
	}

	return out, nil
}

func matrixRows(mat *exprs.Matrix, set gmt.GeneSet) []int {
	var rows []int
	for _, gene := range set.Genes {
		if gi, ok := mat.GeneIndex(gene); ok {
			rows = append(rows, gi)
		}
	}
	return rows
}

// groupColumns flattens a partition into aligned slices of matrix column
// indexes and group labels.
func groupColumns(mat *exprs.Matrix, groups *partition.Partition) ([]int, []string, error) {
	cellIdx := make(map[string]int, mat.NCells())
	for i, c := range mat.Cells() {
		cellIdx[c] = i
	}

	var cols []int
	var labels []string
	for _, g := range groups.Names {
		for _, cell := range groups.Members[g] {
			ci, ok := cellIdx[cell]
			if !ok {
				return nil, nil, scmetab.NewDataError("group %q: expression has no cell %q", g, cell)
			}
			cols = append(cols, ci)
			labels = append(labels, g)
		}
	}
	if len(cols) == 0 {
		return nil, nil, scmetab.NewDataError("no grouped cells found in expression")
	}

	return cols, labels, nil
}

func groupMeans(cellScores []float64, labels []string, names []string) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]float64)
	for i, label := range labels {
		sums[label] += cellScores[i]
		counts[label]++
	}

	out := make(map[string]float64, len(names))
	for _, g := range names {
		if counts[g] > 0 {
			out[g] = sums[g] / counts[g]
		}
	}

	return out
}
