// metabreport assembles the report bundle from the stage outputs in a run
// directory: an index page linking every result table, one activity chart
// per subset, and the accumulated skip reasons.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/scmetab/scmetab/pathway"
	"github.com/scmetab/scmetab/report"
	"github.com/scmetab/scmetab/results"
)

func main() {
	var (
		runDir string
		title  string
		topN   int
	)

	flag.StringVar(&runDir, "dir", "", "Run directory containing activity/, heterogeneity/, features/, and designs/ outputs.")
	flag.StringVar(&title, "title", "Metabolic landscape", "Report title.")
	flag.IntVar(&topN, "top", 15, "Number of top pathways per subset chart.")
	flag.Parse()

	if runDir == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	data := report.Data{Title: title}

	subsetNames, err := tableNames(filepath.Join(runDir, "activity"))
	if err != nil {
		log.Fatalln(err)
	}

	if err := os.MkdirAll(filepath.Join(runDir, "charts"), 0o755); err != nil {
		log.Fatalln(err)
	}

	for _, name := range subsetNames {
		section := report.SubsetSection{
			Name:              name,
			ActivityPath:      filepath.Join("activity", name+".tsv"),
			HeterogeneityPath: filepath.Join("heterogeneity", name+".tsv"),
			FeaturesPath:      filepath.Join("features", name+".tsv"),
		}

		var rows []pathway.Activity
		if err := results.ReadTSV(filepath.Join(runDir, "activity", name+".tsv"), &rows); err != nil {
			log.Fatalln(err)
		}

		chartPath := filepath.Join("charts", name+".svg")
		if err := report.WriteActivityChart(filepath.Join(runDir, chartPath), rows, topN); err != nil {
			log.Fatalln(err)
		}
		section.ChartPath = chartPath

		data.Subsets = append(data.Subsets, section)
	}

	designNames, err := tableNames(filepath.Join(runDir, "designs"))
	if err != nil {
		log.Fatalln(err)
	}
	for _, name := range designNames {
		data.Designs = append(data.Designs, report.DesignSection{
			Name: name,
			Path: filepath.Join("designs", name+".tsv"),
		})
	}

	data.Skipped = collectSkips(runDir)

	if err := report.Write(runDir, data); err != nil {
		log.Fatalln(err)
	}

	log.Println("Wrote report for", len(data.Subsets), "subsets and", len(data.Designs), "designs to", filepath.Join(runDir, "index.html"))
}

// tableNames lists the result tables in a stage directory, minus the skip
// table. A missing directory is fine; that stage just did not run.
func tableNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".tsv") || name == "skipped.tsv" {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".tsv"))
	}

	return out, nil
}

func collectSkips(runDir string) []report.SkippedRow {
	var out []report.SkippedRow
	for _, sub := range []string{"", "activity", "heterogeneity", "features"} {
		path := filepath.Join(runDir, sub, "skipped.tsv")
		var skips []results.Skip
		if err := results.ReadTSV(path, &skips); err != nil {
			continue
		}
		for _, s := range skips {
			out = append(out, report.SkippedRow{Unit: s.Unit, Reason: s.Reason})
		}
	}

	return out
}
