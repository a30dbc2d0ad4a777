// metabfeatures runs the differential enrichment stage: per subset, each
// group is tested against the pooled remaining groups; with -designs, each
// configured design additionally compares its first subset against the union
// of the others. Comparisons are independent jobs and fail independently.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/scmetab/scmetab/config"
	"github.com/scmetab/scmetab/exprs"
	"github.com/scmetab/scmetab/gmt"
	"github.com/scmetab/scmetab/partition"
	"github.com/scmetab/scmetab/pathway"
	"github.com/scmetab/scmetab/results"
	"github.com/scmetab/scmetab/runner"
)

func main() {
	var (
		configPath  string
		exprsPath   string
		subsetsPath string
		groupsPath  string
		outDir      string
		runDesigns  bool
		workers     int
	)

	flag.StringVar(&configPath, "config", "", "Path to the TOML run configuration.")
	flag.StringVar(&exprsPath, "exprs", "", "Path to the cell-by-gene expression matrix (genes as rows).")
	flag.StringVar(&subsetsPath, "subsets", "", "Subset file written by metabgroups.")
	flag.StringVar(&groupsPath, "groups", "", "Group file written by metabgroups.")
	flag.StringVar(&outDir, "out", "", "Output directory.")
	flag.BoolVar(&runDesigns, "designs", false, "Also run inter-subset comparisons for each configured design.")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Number of comparisons to run concurrently.")
	flag.Parse()

	if configPath == "" || exprsPath == "" || subsetsPath == "" || groupsPath == "" || outDir == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalln(err)
	}

	mat, err := exprs.Load(exprsPath)
	if err != nil {
		log.Fatalln(err)
	}

	sets, err := gmt.Read(cfg.GMTFile)
	if err != nil {
		log.Fatalln(err)
	}

	subsets, err := partition.ReadGroupFile(subsetsPath, mat.Cells())
	if err != nil {
		log.Fatalln(err)
	}
	groups, err := partition.ReadGroupFile(groupsPath, mat.Cells())
	if err != nil {
		log.Fatalln(err)
	}

	tester := pathway.WelchTester{}

	var jobs []runner.Job
	var skips []results.Skip

	for _, name := range subsets.Names {
		cells, ok := subsets.Members[name]
		if !ok {
			continue
		}
		name, cells := name, cells

		jobs = append(jobs, runner.Job{
			Name: "subset " + name,
			Run: func(ctx context.Context) error {
				sub, err := mat.Subset(cells)
				if err != nil {
					return err
				}

				rows, err := pathway.InterGroup(sub, sets, partition.Intersect(groups, cells), tester)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					return fmt.Errorf("subset %s produced no enrichment rows", name)
				}

				return results.WriteTSV(filepath.Join(outDir, "features", name+".tsv"), rows)
			},
		})
	}

	if runDesigns {
		comparisons, skippedDesigns, err := partition.ExpandDesigns(subsets, cfg.Designs)
		if err != nil {
			// An undefined subset reference is a configuration error and
			// aborts the whole stage, not just one design.
			log.Fatalln(err)
		}
		for _, d := range skippedDesigns {
			skips = append(skips, results.Skip{Unit: "design " + d.Design, Reason: d.Reason})
		}

		for _, cmp := range comparisons {
			cmp := cmp
			jobs = append(jobs, runner.Job{
				Name: "design " + cmp.Design,
				Run: func(ctx context.Context) error {
					rows, err := pathway.InterSubset(mat, sets, cmp, tester)
					if err != nil {
						return err
					}
					if len(rows) == 0 {
						return fmt.Errorf("design %s produced no enrichment rows", cmp.Design)
					}

					return results.WriteTSV(filepath.Join(outDir, "designs", cmp.Design+".tsv"), rows)
				},
			})
		}
	}

	outcome := runner.Run(context.Background(), jobs, workers)

	for _, r := range runner.Failed(outcome) {
		log.Println(r.Name, "skipped:", r.Err)
		skips = append(skips, results.Skip{Unit: r.Name, Reason: r.Err.Error()})
	}
	if err := results.WriteTSV(filepath.Join(outDir, "features", "skipped.tsv"), skips); err != nil {
		log.Fatalln(err)
	}

	log.Println("Completed", len(jobs)-len(runner.Failed(outcome)), "of", len(jobs), "comparisons")
}
