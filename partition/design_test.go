package partition

import (
	"reflect"
	"testing"

	"github.com/scmetab/scmetab"
	"github.com/scmetab/scmetab/config"
)

func testSubsets() *Partition {
	p := newPartition()
	p.add("pre", []string{"c1", "c2"})
	p.add("post", []string{"c3"})
	p.add("empty", nil)

	return p
}

func TestExpandDesigns(t *testing.T) {
	designs := []config.Design{
		{Name: "post_vs_pre", Subsets: []string{"post", "pre"}},
	}

	comparisons, skipped, err := ExpandDesigns(testSubsets(), designs)
	if err != nil {
		t.Fatal(err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped: %+v", skipped)
	}
	if len(comparisons) != 1 {
		t.Fatalf("comparisons: %d", len(comparisons))
	}

	cmp := comparisons[0]
	if cmp.Design != "post_vs_pre" {
		t.Errorf("design: %q", cmp.Design)
	}
	if !reflect.DeepEqual(cmp.Cells[0], []string{"c3"}) {
		t.Errorf("case cells: %v", cmp.Cells[0])
	}
	if !reflect.DeepEqual(cmp.Cells[1], []string{"c1", "c2"}) {
		t.Errorf("control cells: %v", cmp.Cells[1])
	}
}

func TestExpandDesignsUnknownSubset(t *testing.T) {
	designs := []config.Design{
		{Name: "good", Subsets: []string{"post", "pre"}},
		{Name: "bad", Subsets: []string{"post", "missing"}},
	}

	_, _, err := ExpandDesigns(testSubsets(), designs)
	if err == nil {
		t.Fatal("expected error")
	}
	if !scmetab.IsConfigError(err) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}

func TestExpandDesignsSkipsEmptySubset(t *testing.T) {
	designs := []config.Design{
		{Name: "uses_empty", Subsets: []string{"empty", "pre"}},
		{Name: "fine", Subsets: []string{"post", "pre"}},
	}

	comparisons, skipped, err := ExpandDesigns(testSubsets(), designs)
	if err != nil {
		t.Fatal(err)
	}

	if len(comparisons) != 1 || comparisons[0].Design != "fine" {
		t.Errorf("comparisons: %+v", comparisons)
	}
	if len(skipped) != 1 || skipped[0].Design != "uses_empty" {
		t.Errorf("skipped: %+v", skipped)
	}
}

func TestExpandDesignsDeterministicOrder(t *testing.T) {
	designs := []config.Design{
		{Name: "b", Subsets: []string{"post", "pre"}},
		{Name: "a", Subsets: []string{"pre", "post"}},
	}

	comparisons, _, err := ExpandDesigns(testSubsets(), designs)
	if err != nil {
		t.Fatal(err)
	}

	if comparisons[0].Design != "b" || comparisons[1].Design != "a" {
		t.Errorf("order: %+v", comparisons)
	}
}
