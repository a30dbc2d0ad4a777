// Package pathway scores metabolic gene-set activity per cell group and
// tests for differential enrichment between groups and subsets. Callers
// inject the Scorer and Tester once per run; the defaults are backed by
// gonum and Fisher's exact test.
package pathway

import (
	"github.com/scmetab/scmetab/exprs"
	"github.com/scmetab/scmetab/gmt"
	"github.com/scmetab/scmetab/partition"
)

// Activity is one pathway's activity in one group: the mean relative
// expression of the set's genes against the all-group mean, with an
// empirical permutation p-value.
type Activity struct {
	Pathway string  `csv:"pathway"`
	Group   string  `csv:"group"`
	Score   float64 `csv:"score"`
	PValue  float64 `csv:"pvalue"`
	NGenes  int     `csv:"n_genes"`
	NCells  int     `csv:"n_cells"`
}

// Heterogeneity summarizes the spread of per-cell pathway scores within one
// group.
type Heterogeneity struct {
	Pathway string  `csv:"pathway"`
	Group   string  `csv:"group"`
	Median  float64 `csv:"median"`
	Q1      float64 `csv:"q1"`
	Q3      float64 `csv:"q3"`
	IQR     float64 `csv:"iqr"`
	NCells  int     `csv:"n_cells"`
}

// Enrichment is one differential test: a pathway's activity in one side
// against the other.
type Enrichment struct {
	Pathway string  `csv:"pathway"`
	Case    string  `csv:"case"`
	Control string  `csv:"control"`
	Effect  float64 `csv:"effect"`
	TStat   float64 `csv:"t"`
	PValue  float64 `csv:"pvalue"`
	FisherP float64 `csv:"fisher_p"`
	FDR     float64 `csv:"fdr"`
}

// TestResult carries one two-sample comparison.
type TestResult struct {
	Effect  float64
	TStat   float64
	PValue  float64
	FisherP float64
}

// Scorer computes per-group pathway activity.
type Scorer interface {
	Score(mat *exprs.Matrix, sets []gmt.GeneSet, groups *partition.Partition) ([]Activity, error)
	Heterogeneity(mat *exprs.Matrix, sets []gmt.GeneSet, groups *partition.Partition) ([]Heterogeneity, error)
}

// Tester computes a differential statistic between two score vectors.
type Tester interface {
	Test(a, b []float64) (TestResult, error)
}
