package partition

import (
	"bytes"
	"encoding/csv"
	"io/ioutil"
	"log"
	"sort"

	"github.com/carbocation/pfx"

	"github.com/scmetab/scmetab"
	"github.com/scmetab/scmetab/cellmeta"
	"github.com/scmetab/scmetab/config"
)

// Partition is the result of resolving a rule set: named sets of cell
// identifiers in deterministic order. Subsets that resolved to zero cells
// are recorded in Skipped rather than dropped silently.
type Partition struct {
	// Names holds every defined subset/group name in declaration order,
	// including names that ended up skipped.
	Names []string

	// Members maps each non-empty name to its sorted cell identifiers.
	Members map[string][]string

	// Skipped maps a name to the reason it produced no usable cells.
	Skipped map[string]string
}

// Cells returns the members of one named set.
func (p *Partition) Cells(name string) []string {
	return p.Members[name]
}

// Defined reports whether name was declared by the rule set, skipped or not.
func (p *Partition) Defined(name string) bool {
	for _, n := range p.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Resolver evaluates one rule set (grouping or subsetting) against cell
// metadata.
type Resolver struct {
	label  string
	mode   config.RuleMode
	prefix string

	// IdentColumn names the categorical metadata column used in Idents mode.
	IdentColumn string

	rules []compiledRule
}

type compiledRule struct {
	name string
	expr *Expr
}

// NewResolver compiles a rule set. Expression syntax errors surface here as
// ConfigErrors, before any metadata is touched.
func NewResolver(label string, rs config.RuleSet, prefix string) (*Resolver, error) {
	out := Resolver{
		label:       label,
		mode:        rs.Mode,
		prefix:      prefix,
		IdentColumn: "Idents",
	}

	for _, ne := range rs.Exprs {
		compiled, err := Compile(ne.Expr)
		if err != nil {
			return nil, err
		}
		out.rules = append(out.rules, compiledRule{name: ne.Name, expr: compiled})
	}

	return &out, nil
}

// Resolve produces the partition for the resolver's mode. Input mode is
// handled by ReadGroupFile instead, since it reads a file rather than the
// metadata.
func (r *Resolver) Resolve(meta *cellmeta.Table) (*Partition, error) {
	switch r.mode {
	case config.ModeIdents:
		return r.resolveIdents(meta)
	case config.ModeExpression:
		return r.resolveExpressions(meta)
	}

	return nil, scmetab.NewConfigError("%s: Input mode resolves from a file; pass one with ReadGroupFile", r.label)
}

func (r *Resolver) resolveIdents(meta *cellmeta.Table) (*Partition, error) {
	idents, err := meta.Column(r.IdentColumn)
	if err != nil {
		return nil, err
	}

	levels, err := meta.Levels(r.IdentColumn)
	if err != nil {
		return nil, err
	}

	out := newPartition()
	byLevel := make(map[string][]string)
	for cell, level := range idents {
		byLevel[level] = append(byLevel[level], cell)
	}

	for _, level := range levels {
		cells := byLevel[level]
		sort.Strings(cells)
		out.add(r.prefix+level, cells)
	}

	return out, nil
}

func (r *Resolver) resolveExpressions(meta *cellmeta.Table) (*Partition, error) {
	// Unknown column references are configuration mistakes; catch them for
	// every rule before evaluating anything.
	for _, rule := range r.rules {
		for _, col := range rule.expr.Columns() {
			if !meta.HasColumn(col) {
				return nil, scmetab.NewConfigError("%s.%s: unknown column %q", r.label, rule.name, col)
			}
		}
	}

	out := newPartition()
	matched := make(map[string]struct{})

	for _, rule := range r.rules {
		var cells []string
		for _, cell := range meta.Cells() {
			lookup := func(column string) string {
				v, _ := meta.Value(cell, column)
				return v
			}
			ok, err := rule.expr.Eval(lookup)
			if err != nil {
				return nil, err
			}
			if ok {
				cells = append(cells, cell)
				matched[cell] = struct{}{}
			}
		}
		sort.Strings(cells)
		out.add(r.prefix+rule.name, cells)
	}

	// Cells matching no rule are excluded from downstream analysis. This is
	// intentional filtering, not an error.
	if excluded := meta.NCells() - len(matched); excluded > 0 {
		log.Printf("%s: %d of %d cells match no rule and are excluded", r.label, excluded, meta.NCells())
	}

	return out, nil
}

// ReadGroupFile resolves Input mode: a delimited file whose rows are groups,
// with the group name first and cell identifiers after it. A single row
// named ALL with no cells stands for every known cell. knownCells is the
// authoritative cell universe (metadata cells upstream, expression columns
// downstream).
func ReadGroupFile(path string, knownCells []string) (*Partition, error) {
	r, err := scmetab.OpenFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer r.Close()

	fileBytes, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, pfx.Err(err)
	}

	cr := csv.NewReader(bytes.NewReader(fileBytes))
	cr.Comma = scmetab.DetermineDelimiter(bytes.NewReader(fileBytes))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}

	known := make(map[string]struct{}, len(knownCells))
	for _, cell := range knownCells {
		known[cell] = struct{}{}
	}

	out := newPartition()
	for _, record := range records {
		if len(record) == 0 || record[0] == "" {
			continue
		}
		name := record[0]

		if len(record) == 1 && name == "ALL" {
			all := append([]string{}, knownCells...)
			sort.Strings(all)
			out.add(name, all)
			continue
		}

		var cells []string
		for _, cell := range record[1:] {
			if cell == "" {
				continue
			}
			if _, ok := known[cell]; !ok {
				return nil, scmetab.NewDataError("group file %s: group %q references unknown cell %q", path, name, cell)
			}
			cells = append(cells, cell)
		}
		sort.Strings(cells)
		out.add(name, cells)
	}

	if len(out.Names) == 0 {
		return nil, scmetab.NewDataError("group file %s defines no groups", path)
	}

	return out, nil
}

func newPartition() *Partition {
	return &Partition{
		Members: make(map[string][]string),
		Skipped: make(map[string]string),
	}
}

func (p *Partition) add(name string, cells []string) {
	p.Names = append(p.Names, name)
	if len(cells) == 0 {
		p.Skipped[name] = "resolved to zero cells"
		return
	}
	p.Members[name] = cells
}
