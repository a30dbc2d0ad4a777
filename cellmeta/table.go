package cellmeta

import (
	"bytes"
	"encoding/csv"
	"io/ioutil"
	"sort"

	"github.com/carbocation/pfx"

	"github.com/scmetab/scmetab"
)

// Table is a per-cell metadata table. Rows are keyed by cell identifier (the
// first column of the source file); all values are kept as strings and
// interpreted by the expression evaluator.
type Table struct {
	columns []string
	colIdx  map[string]int
	rows    map[string][]string
	cells   []string
}

// Load reads a delimited metadata table whose first column holds cell
// identifiers. The delimiter is detected; the file may be compressed.
func Load(path string) (*Table, error) {
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
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}
	if len(records) < 1 {
		return nil, scmetab.NewDataError("metadata table %s is empty", path)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, scmetab.NewDataError("metadata table %s: need a cell identifier column plus at least one metadata column", path)
	}

	out := Table{
		columns: header[1:],
		colIdx:  make(map[string]int),
		rows:    make(map[string][]string),
	}
	for i, col := range out.columns {
		out.colIdx[col] = i
	}

	for _, record := range records[1:] {
		if len(record) != len(header) {
			return nil, scmetab.NewDataError("metadata table %s: row for %q has %d fields, header has %d", path, record[0], len(record), len(header))
		}
		cell := record[0]
		if _, exists := out.rows[cell]; exists {
			return nil, scmetab.NewDataError("metadata table %s: duplicate cell identifier %q", path, cell)
		}
		out.rows[cell] = record[1:]
		out.cells = append(out.cells, cell)
	}

	return &out, nil
}

// NewTable builds a table in memory. Used by tests and by Merge.
func NewTable(columns []string) *Table {
	out := Table{
		columns: columns,
		colIdx:  make(map[string]int),
		rows:    make(map[string][]string),
	}
	for i, col := range columns {
		out.colIdx[col] = i
	}

	return &out
}

// AddCell appends one cell's row. Values must align with the table columns.
func (t *Table) AddCell(cell string, values []string) error {
	if len(values) != len(t.columns) {
		return scmetab.NewDataError("cell %q: %d values for %d columns", cell, len(values), len(t.columns))
	}
	if _, exists := t.rows[cell]; exists {
		return scmetab.NewDataError("duplicate cell identifier %q", cell)
	}
	t.rows[cell] = values
	t.cells = append(t.cells, cell)

	return nil
}

// Cells returns cell identifiers in insertion order.
func (t *Table) Cells() []string {
	return t.cells
}

// Columns returns the metadata column names.
func (t *Table) Columns() []string {
	return t.columns
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIdx[name]
	return ok
}

func (t *Table) NCells() int {
	return len(t.cells)
}

// Value returns one cell's value for one column.
func (t *Table) Value(cell, column string) (string, error) {
	i, ok := t.colIdx[column]
	if !ok {
		return "", scmetab.NewDataError("metadata has no column %q", column)
	}
	row, ok := t.rows[cell]
	if !ok {
		return "", scmetab.NewDataError("metadata has no cell %q", cell)
	}

	return row[i], nil
}

// Column returns a cell => value mapping for one column, erroring when the
// column does not exist.
func (t *Table) Column(name string) (map[string]string, error) {
	i, ok := t.colIdx[name]
	if !ok {
		return nil, scmetab.NewDataError("metadata has no column %q", name)
	}

	out := make(map[string]string, len(t.cells))
	for cell, row := range t.rows {
		out[cell] = row[i]
	}

	return out, nil
}

// Levels returns the distinct values of a column, sorted, for use as
// identity-based group names.
func (t *Table) Levels(column string) ([]string, error) {
	vals, err := t.Column(column)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []string
	for _, v := range vals {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)

	return out, nil
}

// Merge combines per-sample tables into one, prefixing each cell identifier
// with its sample name so identifiers stay unique across samples. A Sample
// column is appended when the inputs lack one. Columns must agree across
// samples.
func Merge(samples []string, tables []*Table) (*Table, error) {
	if len(samples) != len(tables) {
		return nil, scmetab.NewDataError("merge: %d sample names for %d tables", len(samples), len(tables))
	}
	if len(tables) == 0 {
		return nil, scmetab.NewDataError("merge: no tables")
	}

	columns := tables[0].columns
	addSample := !tables[0].HasColumn("Sample")
	if addSample {
		columns = append(append([]string{}, columns...), "Sample")
	}

	out := NewTable(columns)
	for i, t := range tables {
		if len(t.columns) != len(tables[0].columns) {
			return nil, scmetab.NewDataError("merge: sample %q has %d columns, sample %q has %d", samples[i], len(t.columns), samples[0], len(tables[0].columns))
		}
		for _, cell := range t.cells {
			row := t.rows[cell]
			if addSample {
				row = append(append([]string{}, row...), samples[i])
			}
			if err := out.AddCell(samples[i]+"_"+cell, row); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}
