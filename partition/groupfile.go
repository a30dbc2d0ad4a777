package partition

import (
	"encoding/csv"
	"os"

	"github.com/carbocation/pfx"
)

// WriteGroupFile writes a partition as a tab-delimited group file that
// ReadGroupFile can load back: one row per name, cells after it. Skipped
// names are omitted; they are reported through the skip table instead.
func WriteGroupFile(path string, p *Partition) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	defer w.Flush()

	for _, name := range p.Names {
		cells, ok := p.Members[name]
		if !ok {
			continue
		}
		if err := w.Write(append([]string{name}, cells...)); err != nil {
			return pfx.Err(err)
		}
	}

	return pfx.Err(w.Error())
}

// Intersect restricts each member set of p to the given cells, preserving
// name order. Names whose intersection is empty move to Skipped.
func Intersect(p *Partition, cells []string) *Partition {
	keep := make(map[string]struct{}, len(cells))
	for _, c := range cells {
		keep[c] = struct{}{}
	}

	out := newPartition()
	for _, name := range p.Names {
		if reason, wasSkipped := p.Skipped[name]; wasSkipped {
			out.Names = append(out.Names, name)
			out.Skipped[name] = reason
			continue
		}

		var kept []string
		for _, c := range p.Members[name] {
			if _, ok := keep[c]; ok {
				kept = append(kept, c)
			}
		}
		out.add(name, kept)
	}

	return out
}
