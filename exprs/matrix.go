// Package exprs holds the cell-by-gene expression matrix and the column
// subsetting used to carve it into comparison inputs.
package exprs

import (
	"bytes"
	"encoding/csv"
	"io/ioutil"
	"strconv"

	"github.com/carbocation/pfx"

	"github.com/scmetab/scmetab"
)

// Matrix is an expression matrix with genes as rows and cells as columns.
// Values are dense; single-cell metabolic panels are small enough that a
// sparse representation buys nothing here.
type Matrix struct {
	genes   []string
	geneIdx map[string]int
	cells   []string
	cellIdx map[string]int

	// values[gene][cell]
	values [][]float64
}

// New builds a matrix in memory. values must be genes x cells.
func New(genes, cells []string, values [][]float64) (*Matrix, error) {
	if len(values) != len(genes) {
		return nil, scmetab.NewDataError("expression: %d value rows for %d genes", len(values), len(genes))
	}

	out := Matrix{
		genes:   genes,
		geneIdx: make(map[string]int, len(genes)),
		cells:   cells,
		cellIdx: make(map[string]int, len(cells)),
		values:  values,
	}
	for i, g := range genes {
		if _, exists := out.geneIdx[g]; exists {
			return nil, scmetab.NewDataError("expression: duplicate gene %q", g)
		}
		out.geneIdx[g] = i
	}
	for i, c := range cells {
		if _, exists := out.cellIdx[c]; exists {
			return nil, scmetab.NewDataError("expression: duplicate cell %q", c)
		}
		out.cellIdx[c] = i
	}
	for i, row := range values {
		if len(row) != len(cells) {
			return nil, scmetab.NewDataError("expression: gene %q has %d values for %d cells", genes[i], len(row), len(cells))
		}
	}

	return &out, nil
}

// Load reads a delimited expression matrix: header row of cell identifiers
// (first field is the gene column label and is ignored), one row per gene.
// The file may be compressed.
func Load(path string) (*Matrix, error) {
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
	if len(records) < 2 {
		return nil, scmetab.NewDataError("expression matrix %s: need a header plus at least one gene row", path)
	}

	cells := records[0][1:]
	genes := make([]string, 0, len(records)-1)
	values := make([][]float64, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) != len(cells)+1 {
			return nil, scmetab.NewDataError("expression matrix %s: gene %q has %d fields, header has %d", path, record[0], len(record), len(cells)+1)
		}
		row := make([]float64, len(cells))
		for i, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, scmetab.NewDataError("expression matrix %s: gene %q, cell %q: %v", path, record[0], cells[i], err)
			}
			row[i] = v
		}
		genes = append(genes, record[0])
		values = append(values, row)
	}

	return New(genes, cells, values)
}

func (m *Matrix) Genes() []string {
	return m.genes
}

func (m *Matrix) Cells() []string {
	return m.cells
}

func (m *Matrix) NGenes() int {
	return len(m.genes)
}

func (m *Matrix) NCells() int {
	return len(m.cells)
}

// GeneIndex returns the row index of a gene symbol.
func (m *Matrix) GeneIndex(gene string) (int, bool) {
	i, ok := m.geneIdx[gene]
	return i, ok
}

// At returns the value at a gene row and cell column index.
func (m *Matrix) At(gene, cell int) float64 {
	return m.values[gene][cell]
}

// Value returns the expression of a gene in a cell by name.
func (m *Matrix) Value(gene, cell string) (float64, error) {
	gi, ok := m.geneIdx[gene]
	if !ok {
		return 0, scmetab.NewDataError("expression has no gene %q", gene)
	}
	ci, ok := m.cellIdx[cell]
	if !ok {
		return 0, scmetab.NewDataError("expression has no cell %q", cell)
	}

	return m.values[gi][ci], nil
}

// Subset returns a new matrix restricted to the named cells, preserving gene
// order. Unknown cell identifiers are a DataError.
func (m *Matrix) Subset(cells []string) (*Matrix, error) {
	cols := make([]int, len(cells))
	for i, c := range cells {
		ci, ok := m.cellIdx[c]
		if !ok {
			return nil, scmetab.NewDataError("expression has no cell %q", c)
		}
		cols[i] = ci
	}

	values := make([][]float64, len(m.genes))
	for gi := range m.genes {
		row := make([]float64, len(cols))
		for i, ci := range cols {
			row[i] = m.values[gi][ci]
		}
		values[gi] = row
	}

	return New(append([]string{}, m.genes...), append([]string{}, cells...), values)
}
