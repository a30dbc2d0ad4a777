package pathway

import (
	"math"
	"reflect"
	"testing"

	"github.com/scmetab/scmetab"
	"github.com/scmetab/scmetab/exprs"
	"github.com/scmetab/scmetab/gmt"
	"github.com/scmetab/scmetab/partition"
)

func scoreFixture(t *testing.T) (*exprs.Matrix, []gmt.GeneSet, *partition.Partition) {
	t.Helper()

	mat, err := exprs.New(
		[]string{"HK2", "PFKM", "ACTB"},
		[]string{"c1", "c2", "c3", "c4"},
		[][]float64{
			{4, 4, 0, 0},
			{2, 2, 0, 0},
			{1, 1, 1, 1},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	sets := []gmt.GeneSet{
		{Name: "Glycolysis", Genes: []string{"HK2", "PFKM"}},
		{Name: "Missing", Genes: []string{"NOPE1", "NOPE2"}},
	}

	groups := &partition.Partition{
		Names: []string{"hot", "cold"},
		Members: map[string][]string{
			"hot":  {"c1", "c2"},
			"cold": {"c3", "c4"},
		},
		Skipped: map[string]string{},
	}

	return mat, sets, groups
}

func TestScore(t *testing.T) {
	mat, sets, groups := scoreFixture(t)

	activities, err := NewDefaultScorer(200, 7).Score(mat, sets, groups)
	if err != nil {
		t.Fatal(err)
	}

	// The set with no genes in the matrix is skipped, leaving one row per
	// group for the remaining set.
	if len(activities) != 2 {
		t.Fatalf("activities: %+v", activities)
	}

	byGroup := map[string]Activity{}
	for _, a := range activities {
		if a.Pathway != "Glycolysis" {
			t.Fatalf("pathway: %q", a.Pathway)
		}
		byGroup[a.Group] = a
	}

	// hot cells score 3 per cell, cold cells 0, overall mean 1.5.
	if math.Abs(byGroup["hot"].Score-2) > 1e-12 {
		t.Errorf("hot score: %v", byGroup["hot"].Score)
	}
	if byGroup["cold"].Score != 0 {
		t.Errorf("cold score: %v", byGroup["cold"].Score)
	}
	if byGroup["hot"].NGenes != 2 || byGroup["hot"].NCells != 2 {
		t.Errorf("hot counts: %+v", byGroup["hot"])
	}
	if p := byGroup["hot"].PValue; p <= 0 || p > 1 {
		t.Errorf("hot p: %v", p)
	}
}

func TestScoreDeterministic(t *testing.T) {
	mat, sets, groups := scoreFixture(t)

	first, err := NewDefaultScorer(100, 42).Score(mat, sets, groups)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewDefaultScorer(100, 42).Score(mat, sets, groups)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed, different results:\n%+v\n%+v", first, second)
	}
}

func TestScoreUnknownCell(t *testing.T) {
	mat, sets, _ := scoreFixture(t)

	groups := &partition.Partition{
		Names:   []string{"bad"},
		Members: map[string][]string{"bad": {"c1", "zz"}},
		Skipped: map[string]string{},
	}

	if _, err := NewDefaultScorer(10, 1).Score(mat, sets, groups); !scmetab.IsDataError(err) {
		t.Errorf("expected DataError, got %v", err)
	}
}

func TestHeterogeneity(t *testing.T) {
	mat, sets, groups := scoreFixture(t)

	rows, err := NewDefaultScorer(10, 1).Heterogeneity(mat, sets, groups)
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 2 {
		t.Fatalf("rows: %+v", rows)
	}

	for _, row := range rows {
		if row.IQR != row.Q3-row.Q1 {
			t.Errorf("IQR mismatch: %+v", row)
		}
		if row.NCells != 2 {
			t.Errorf("cells: %+v", row)
		}
	}

	// All hot cells score 3, so the spread collapses.
	if rows[0].Group != "hot" || rows[0].Median != 3 || rows[0].IQR != 0 {
		t.Errorf("hot row: %+v", rows[0])
	}
}

func TestCellScores(t *testing.T) {
	mat, sets, _ := scoreFixture(t)

	scores, err := CellScores(mat, sets[0], []string{"c1", "c3"})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(scores, []float64{3, 0}) {
		t.Errorf("scores: %v", scores)
	}
}

func TestCellScoresTooFewGenes(t *testing.T) {
	mat, sets, _ := scoreFixture(t)

	if _, err := CellScores(mat, sets[1], []string{"c1"}); !scmetab.IsDataError(err) {
		t.Errorf("expected DataError, got %v", err)
	}
}
