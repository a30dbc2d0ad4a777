// Package results writes and reads the tab-delimited result tables the
// pipeline stages exchange.
package results

import (
	"encoding/csv"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"

	"github.com/scmetab/scmetab"
)

// Skip is one skipped analysis unit: a subset, group, design, or pathway
// that produced no results, and why.
type Skip struct {
	Unit   string `csv:"unit"`
	Reason string `csv:"reason"`
}

// WriteTSV marshals a slice of result rows (gocsv-tagged structs) to a
// tab-delimited file, creating parent directories as needed.
func WriteTSV(path string, rows interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pfx.Err(err)
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	return pfx.Err(gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(w)))
}

// ReadTSV unmarshals a tab-delimited result table into rows, which must be
// a pointer to a slice of gocsv-tagged structs. The file may be compressed.
func ReadTSV(path string, rows interface{}) error {
	r, err := scmetab.OpenFile(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer r.Close()

	fileBytes, err := ioutil.ReadAll(r)
	if err != nil {
		return pfx.Err(err)
	}

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		cr := csv.NewReader(in)
		cr.Comma = '\t'
		cr.LazyQuotes = true
		return cr
	})

	return pfx.Err(gocsv.UnmarshalBytes(fileBytes, rows))
}
