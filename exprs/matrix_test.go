package exprs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/scmetab/scmetab"
)

func testMatrix(t *testing.T) *Matrix {
	t.Helper()

	m, err := New(
		[]string{"HK2", "PFKM", "ACTB"},
		[]string{"c1", "c2", "c3"},
		[][]float64{
			{4, 0, 1},
			{2, 1, 0},
			{10, 10, 10},
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func TestLoadMatrix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exprs.tsv")
	content := "gene\tc1\tc2\nHK2\t1.5\t0\nPFKM\t0\t2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if m.NGenes() != 2 || m.NCells() != 2 {
		t.Fatalf("dims: %d x %d", m.NGenes(), m.NCells())
	}

	v, err := m.Value("HK2", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if v != 1.5 {
		t.Errorf("HK2/c1: %v", v)
	}
}

func TestLoadMatrixBadValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exprs.tsv")
	content := "gene\tc1\nHK2\tnotanumber\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); !scmetab.IsDataError(err) {
		t.Errorf("expected DataError, got %v", err)
	}
}

func TestSubset(t *testing.T) {
	m := testMatrix(t)

	sub, err := m.Subset([]string{"c3", "c1"})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(sub.Cells(), []string{"c3", "c1"}) {
		t.Errorf("cells: %v", sub.Cells())
	}
	if !reflect.DeepEqual(sub.Genes(), m.Genes()) {
		t.Errorf("genes: %v", sub.Genes())
	}

	v, err := sub.Value("HK2", "c3")
	if err != nil {
		t.Fatal(err)
	}
	if v != 1 {
		t.Errorf("HK2/c3: %v", v)
	}
}

func TestSubsetUnknownCell(t *testing.T) {
	m := testMatrix(t)

	if _, err := m.Subset([]string{"c1", "zz"}); !scmetab.IsDataError(err) {
		t.Errorf("expected DataError, got %v", err)
	}
}

func TestDuplicateGene(t *testing.T) {
	_, err := New([]string{"HK2", "HK2"}, []string{"c1"}, [][]float64{{1}, {2}})
	if !scmetab.IsDataError(err) {
		t.Errorf("expected DataError, got %v", err)
	}
}
