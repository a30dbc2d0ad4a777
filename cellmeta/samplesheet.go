// Package cellmeta loads the per-sample sheet and the per-cell metadata
// table that grouping and subsetting rules are evaluated against.
package cellmeta

import (
	"bytes"
	"encoding/csv"
	"io"
	"io/ioutil"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"

	"github.com/scmetab/scmetab"
)

// Sample is one row of the sample sheet. Two columns are required: the
// sample name and the path to that sample's data. Extra columns are carried
// through untouched.
type Sample struct {
	Sample string `csv:"Sample"`
	RNADir string `csv:"RNADir"`
}

// LoadSampleSheet reads a delimited sample sheet. The delimiter is detected
// rather than assumed, since sheets arrive both comma- and tab-delimited.
func LoadSampleSheet(path string) ([]Sample, error) {
	r, err := scmetab.OpenFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer r.Close()

	fileBytes, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, pfx.Err(err)
	}

	delim := scmetab.DetermineDelimiter(bytes.NewReader(fileBytes))

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		cr := csv.NewReader(in)
		cr.Comma = delim
		cr.LazyQuotes = true
		return cr
	})

	var samples []Sample
	if err := gocsv.UnmarshalBytes(fileBytes, &samples); err != nil {
		return nil, pfx.Err(err)
	}

	seen := make(map[string]struct{})
	for _, s := range samples {
		if s.Sample == "" || s.RNADir == "" {
			return nil, scmetab.NewDataError("sample sheet %s: every row needs Sample and RNADir", path)
		}
		if _, exists := seen[s.Sample]; exists {
			return nil, scmetab.NewDataError("sample sheet %s: duplicate sample %q", path, s.Sample)
		}
		seen[s.Sample] = struct{}{}
	}

	return samples, nil
}
