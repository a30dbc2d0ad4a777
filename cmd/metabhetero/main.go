// metabhetero summarizes pathway heterogeneity: the spread of per-cell
// pathway scores within each group of each subset. One output table per
// subset, siblings isolated from each other's failures.
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
		workers     int
	)

	flag.StringVar(&configPath, "config", "", "Path to the TOML run configuration.")
	flag.StringVar(&exprsPath, "exprs", "", "Path to the cell-by-gene expression matrix (genes as rows).")
	flag.StringVar(&subsetsPath, "subsets", "", "Subset file written by metabgroups.")
	flag.StringVar(&groupsPath, "groups", "", "Group file written by metabgroups.")
	flag.StringVar(&outDir, "out", "", "Output directory.")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Number of subsets to process concurrently.")
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

	scorer := pathway.NewDefaultScorer(cfg.NTimes, 1)

	var jobs []runner.Job
	for _, name := range subsets.Names {
		cells, ok := subsets.Members[name]
		if !ok {
			continue
		}
		name, cells := name, cells

		jobs = append(jobs, runner.Job{
			Name: name,
			Run: func(ctx context.Context) error {
				sub, err := mat.Subset(cells)
				if err != nil {
					return err
				}

				rows, err := scorer.Heterogeneity(sub, sets, partition.Intersect(groups, cells))
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					return fmt.Errorf("subset %s produced no heterogeneity rows", name)
				}

				return results.WriteTSV(filepath.Join(outDir, "heterogeneity", name+".tsv"), rows)
			},
		})
	}

	outcome := runner.Run(context.Background(), jobs, workers)

	var skips []results.Skip
	for _, r := range runner.Failed(outcome) {
		log.Println("subset", r.Name, "skipped:", r.Err)
		skips = append(skips, results.Skip{Unit: "subset " + r.Name, Reason: r.Err.Error()})
	}
	if err := results.WriteTSV(filepath.Join(outDir, "heterogeneity", "skipped.tsv"), skips); err != nil {
		log.Fatalln(err)
	}

	log.Println("Summarized", len(jobs)-len(skips), "of", len(jobs), "subsets")
}
