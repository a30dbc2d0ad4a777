package partition

import (
	"github.com/scmetab/scmetab"
	"github.com/scmetab/scmetab/config"
)

// Comparison is one expanded design: the subset names being compared and
// their cell identifier sets, aligned by index.
type Comparison struct {
	Design  string
	Subsets []string
	Cells   [][]string
}

// SkippedDesign records a design that could not run because one of its
// subsets resolved to zero cells. Designs are independent, so siblings
// continue.
type SkippedDesign struct {
	Design string
	Reason string
}

// ExpandDesigns validates each design against the resolved subsets and
// emits comparison jobs in configuration order. A design naming a subset
// that was never defined is a ConfigError and aborts expansion; a design
// naming a defined-but-empty subset is skipped with a reason.
func ExpandDesigns(subsets *Partition, designs []config.Design) ([]Comparison, []SkippedDesign, error) {
	// Fail fast on undefined references across every design before emitting
	// any job.
	for _, d := range designs {
		for _, name := range d.Subsets {
			if !subsets.Defined(name) {
				return nil, nil, scmetab.NewConfigError("design.%s: unknown subset %q", d.Name, name)
			}
		}
	}

	var out []Comparison
	var skipped []SkippedDesign

	for _, d := range designs {
		comparison := Comparison{Design: d.Name, Subsets: d.Subsets}
		skip := ""
		for _, name := range d.Subsets {
			if reason, wasSkipped := subsets.Skipped[name]; wasSkipped {
				skip = "subset " + name + " " + reason
				break
			}
			comparison.Cells = append(comparison.Cells, subsets.Members[name])
		}

		if skip != "" {
			skipped = append(skipped, SkippedDesign{Design: d.Name, Reason: skip})
			continue
		}

		out = append(out, comparison)
	}

	return out, skipped, nil
}
