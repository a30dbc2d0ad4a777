package pathway

import (
	"log"
	"strings"

	"github.com/scmetab/scmetab"
	"github.com/scmetab/scmetab/exprs"
	"github.com/scmetab/scmetab/gmt"
	"github.com/scmetab/scmetab/partition"
)

// InterGroup tests each group against the pooled remaining groups, per
// pathway, within one subset. Pathways whose genes are missing from the
// matrix are skipped with a log note; FDR is adjusted across every emitted
// row.
func InterGroup(mat *exprs.Matrix, sets []gmt.GeneSet, groups *partition.Partition, tester Tester) ([]Enrichment, error) {
	var out []Enrichment

	for _, set := range sets {
		perGroup := make(map[string][]float64)
		for _, g := range groups.Names {
			cells, ok := groups.Members[g]
			if !ok {
				continue
			}
			scores, err := CellScores(mat, set, cells)
			if err != nil {
				if scmetab.IsDataError(err) {
					log.Printf("inter-group: %v, skipping pathway %s", err, set.Name)
					perGroup = nil
					break
				}
				return nil, err
			}
			perGroup[g] = scores
		}
		if perGroup == nil {
			continue
		}

		for _, g := range groups.Names {
			caseScores, ok := perGroup[g]
			if !ok {
				continue
			}

			var rest []float64
			for other, scores := range perGroup {
				if other == g {
					continue
				}
				rest = append(rest, scores...)
			}

			result, err := tester.Test(caseScores, rest)
			if err != nil {
				if scmetab.IsDataError(err) {
					log.Printf("inter-group: pathway %s, group %s: %v", set.Name, g, err)
					continue
				}
				return nil, err
			}

			out = append(out, Enrichment{
				Pathway: set.Name,
				Case:    g,
				Control: "rest",
				Effect:  result.Effect,
				TStat:   result.TStat,
				PValue:  result.PValue,
				FisherP: result.FisherP,
			})
		}
	}

	applyFDR(out)

	return out, nil
}

// InterSubset tests a design comparison: the first listed subset against the
// union of the remaining ones.
func InterSubset(mat *exprs.Matrix, sets []gmt.GeneSet, cmp partition.Comparison, tester Tester) ([]Enrichment, error) {
	if len(cmp.Cells) < 2 {
		return nil, scmetab.NewConfigError("design %s: needs at least 2 subsets", cmp.Design)
	}

	caseName := cmp.Subsets[0]
	controlName := strings.Join(cmp.Subsets[1:], "+")

	var controlCells []string
	for _, cells := range cmp.Cells[1:] {
		controlCells = append(controlCells, cells...)
	}

	var out []Enrichment
	for _, set := range sets {
		caseScores, err := CellScores(mat, set, cmp.Cells[0])
		if err != nil {
			if scmetab.IsDataError(err) {
				log.Printf("design %s: %v, skipping pathway %s", cmp.Design, err, set.Name)
				continue
			}
			return nil, err
		}
		controlScores, err := CellScores(mat, set, controlCells)
		if err != nil {
			if scmetab.IsDataError(err) {
				log.Printf("design %s: %v, skipping pathway %s", cmp.Design, err, set.Name)
				continue
			}
			return nil, err
		}

		result, err := tester.Test(caseScores, controlScores)
		if err != nil {
			if scmetab.IsDataError(err) {
				log.Printf("design %s: pathway %s: %v", cmp.Design, set.Name, err)
				continue
			}
			return nil, err
		}

		out = append(out, Enrichment{
			Pathway: set.Name,
			Case:    caseName,
			Control: controlName,
			Effect:  result.Effect,
			TStat:   result.TStat,
			PValue:  result.PValue,
			FisherP: result.FisherP,
		})
	}

	applyFDR(out)

	return out, nil
}

func applyFDR(rows []Enrichment) {
	if len(rows) == 0 {
		return
	}

	pvalues := make([]float64, len(rows))
	for i, row := range rows {
		pvalues[i] = row.PValue
	}
	for i, fdr := range AdjustBH(pvalues) {
		rows[i].FDR = fdr
	}
}
