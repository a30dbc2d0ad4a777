package partition

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/scmetab/scmetab"
	"github.com/scmetab/scmetab/cellmeta"
	"github.com/scmetab/scmetab/config"
)

func testMetadata(t *testing.T) *cellmeta.Table {
	t.Helper()

	meta := cellmeta.NewTable([]string{"treatment", "Idents"})
	for _, row := range [][]string{
		{"c1", "pre", "0"},
		{"c2", "pre", "1"},
		{"c3", "post", "0"},
	} {
		if err := meta.AddCell(row[0], row[1:]); err != nil {
			t.Fatal(err)
		}
	}

	return meta
}

func exprRules(rules ...config.NamedExpr) config.RuleSet {
	return config.RuleSet{Mode: config.ModeExpression, Exprs: rules}
}

func TestResolveExpressions(t *testing.T) {
	resolver, err := NewResolver("subsetting", exprRules(
		config.NamedExpr{Name: "pre", Expr: `treatment == 'pre'`},
		config.NamedExpr{Name: "post", Expr: `treatment == 'post'`},
	), "")
	if err != nil {
		t.Fatal(err)
	}

	p, err := resolver.Resolve(testMetadata(t))
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(p.Names, []string{"pre", "post"}) {
		t.Errorf("names: %v", p.Names)
	}
	if !reflect.DeepEqual(p.Members["pre"], []string{"c1", "c2"}) {
		t.Errorf("pre: %v", p.Members["pre"])
	}
	if !reflect.DeepEqual(p.Members["post"], []string{"c3"}) {
		t.Errorf("post: %v", p.Members["post"])
	}
}

func TestResolveDeterminism(t *testing.T) {
	resolver, err := NewResolver("subsetting", exprRules(
		config.NamedExpr{Name: "pre", Expr: `treatment == 'pre'`},
		config.NamedExpr{Name: "post", Expr: `treatment == 'post'`},
	), "")
	if err != nil {
		t.Fatal(err)
	}

	meta := testMetadata(t)
	first, err := resolver.Resolve(meta)
	if err != nil {
		t.Fatal(err)
	}
	second, err := resolver.Resolve(meta)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("resolving twice differed")
	}
}

func TestResolveOverlappingRules(t *testing.T) {
	resolver, err := NewResolver("subsetting", exprRules(
		config.NamedExpr{Name: "all", Expr: `TRUE`},
		config.NamedExpr{Name: "pre", Expr: `treatment == 'pre'`},
	), "")
	if err != nil {
		t.Fatal(err)
	}

	p, err := resolver.Resolve(testMetadata(t))
	if err != nil {
		t.Fatal(err)
	}

	if got := len(p.Members["all"]); got != 3 {
		t.Errorf("all: expected every cell, got %d", got)
	}
	if got := len(p.Members["pre"]); got != 2 {
		t.Errorf("pre: expected 2 cells, got %d", got)
	}
}

func TestResolveEmptySubsetSkipped(t *testing.T) {
	resolver, err := NewResolver("subsetting", exprRules(
		config.NamedExpr{Name: "none", Expr: `treatment == 'placebo'`},
		config.NamedExpr{Name: "pre", Expr: `treatment == 'pre'`},
	), "")
	if err != nil {
		t.Fatal(err)
	}

	p, err := resolver.Resolve(testMetadata(t))
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := p.Members["none"]; ok {
		t.Error("empty subset should not have members")
	}
	if _, ok := p.Skipped["none"]; !ok {
		t.Error("empty subset should be recorded as skipped")
	}
	if !p.Defined("none") {
		t.Error("skipped subset should still be defined")
	}
	if _, ok := p.Members["pre"]; !ok {
		t.Error("sibling subset should still resolve")
	}
}

func TestResolveUnknownColumn(t *testing.T) {
	resolver, err := NewResolver("subsetting", exprRules(
		config.NamedExpr{Name: "bad", Expr: `genotype == 'KO'`},
	), "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = resolver.Resolve(testMetadata(t))
	if err == nil {
		t.Fatal("expected error for unknown column")
	}
	if !scmetab.IsConfigError(err) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}

func TestResolveIdents(t *testing.T) {
	resolver, err := NewResolver("grouping", config.RuleSet{Mode: config.ModeIdents}, "cluster_")
	if err != nil {
		t.Fatal(err)
	}

	p, err := resolver.Resolve(testMetadata(t))
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(p.Names, []string{"cluster_0", "cluster_1"}) {
		t.Errorf("names: %v", p.Names)
	}
	if !reflect.DeepEqual(p.Members["cluster_0"], []string{"c1", "c3"}) {
		t.Errorf("cluster_0: %v", p.Members["cluster_0"])
	}
}

func TestResolveBadExpressionFailsAtCompile(t *testing.T) {
	_, err := NewResolver("subsetting", exprRules(
		config.NamedExpr{Name: "bad", Expr: `treatment ==`},
	), "")
	if err == nil {
		t.Fatal("expected compile error")
	}
	if !scmetab.IsConfigError(err) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}

func TestReadGroupFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groups.tsv")
	content := "g1\tc1\tc2\ng2\tc3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := ReadGroupFile(path, []string{"c1", "c2", "c3"})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(p.Members["g1"], []string{"c1", "c2"}) {
		t.Errorf("g1: %v", p.Members["g1"])
	}
	if !reflect.DeepEqual(p.Members["g2"], []string{"c3"}) {
		t.Errorf("g2: %v", p.Members["g2"])
	}
}

func TestReadGroupFileAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groups.tsv")
	if err := os.WriteFile(path, []byte("ALL\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := ReadGroupFile(path, []string{"c2", "c1"})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(p.Members["ALL"], []string{"c1", "c2"}) {
		t.Errorf("ALL: %v", p.Members["ALL"])
	}
}

func TestReadGroupFileUnknownCell(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groups.tsv")
	if err := os.WriteFile(path, []byte("g1\tc1\tzz\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadGroupFile(path, []string{"c1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !scmetab.IsDataError(err) {
		t.Errorf("expected DataError, got %v", err)
	}
}

func TestWriteGroupFileRoundTrip(t *testing.T) {
	p := newPartition()
	p.add("g1", []string{"c1", "c2"})
	p.add("empty", nil)
	p.add("g2", []string{"c3"})

	dir := t.TempDir()
	path := filepath.Join(dir, "out.tsv")
	if err := WriteGroupFile(path, p); err != nil {
		t.Fatal(err)
	}

	got, err := ReadGroupFile(path, []string{"c1", "c2", "c3"})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(got.Names, []string{"g1", "g2"}) {
		t.Errorf("names: %v", got.Names)
	}
	if !reflect.DeepEqual(got.Members["g1"], []string{"c1", "c2"}) {
		t.Errorf("g1: %v", got.Members["g1"])
	}
}
