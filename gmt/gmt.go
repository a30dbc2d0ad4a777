// Package gmt parses gene-set collections in Gene Matrix Transposed format:
// one set per line, tab-delimited, as name, description, then gene symbols.
package gmt

import (
	"bufio"
	"log"
	"strings"

	"github.com/carbocation/pfx"

	"github.com/scmetab/scmetab"
)

type GeneSet struct {
	Name        string
	Description string
	Genes       []string
}

// Read parses a GMT file, which may be compressed. Sets with fewer than two
// genes are skipped with a log note; duplicate set names are a ConfigError
// since downstream results are keyed by set name.
func Read(path string) ([]GeneSet, error) {
	r, err := scmetab.OpenFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer r.Close()

	var out []GeneSet
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, scmetab.NewConfigError("gmt %s line %d: need name, description, and at least one gene", path, lineNum)
		}

		set := GeneSet{Name: fields[0], Description: fields[1]}
		for _, gene := range fields[2:] {
			gene = strings.TrimSpace(gene)
			if gene == "" {
				continue
			}
			set.Genes = append(set.Genes, gene)
		}

		if _, exists := seen[set.Name]; exists {
			return nil, scmetab.NewConfigError("gmt %s line %d: duplicate gene set %q", path, lineNum, set.Name)
		}
		seen[set.Name] = struct{}{}

		if len(set.Genes) < 2 {
			log.Printf("gmt %s line %d: skipping %q with %d genes", path, lineNum, set.Name, len(set.Genes))
			continue
		}

		out = append(out, set)
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}
