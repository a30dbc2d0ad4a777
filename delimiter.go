package scmetab

import (
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune delimiting the
// values in the reader. Metadata and expression tables in this pipeline are
// conventionally tab-delimited, so tab is the fallback when detection is
// inconclusive.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return '\t'
}
