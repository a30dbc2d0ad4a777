// metabgroups resolves the configured subsetting and grouping rules against
// cell metadata and writes the subset and group files the downstream stages
// consume. Configuration errors (bad expressions, designs referencing
// unknown subsets) abort here, before any scoring starts.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/scmetab/scmetab"
	"github.com/scmetab/scmetab/cellmeta"
	"github.com/scmetab/scmetab/config"
	"github.com/scmetab/scmetab/partition"
	"github.com/scmetab/scmetab/results"
)

func main() {
	var (
		configPath  string
		metaPath    string
		sheetPath   string
		metaName    string
		subsetFile  string
		groupFile   string
		identColumn string
		outDir      string
	)

	flag.StringVar(&configPath, "config", "", "Path to the TOML run configuration.")
	flag.StringVar(&metaPath, "meta", "", "Path to a merged per-cell metadata table. Mutually exclusive with -samplesheet.")
	flag.StringVar(&sheetPath, "samplesheet", "", "Path to a sample sheet (Sample, RNADir columns); per-sample metadata is read from each RNADir and merged with sample-prefixed cell identifiers.")
	flag.StringVar(&metaName, "metaname", "metadata.tsv", "Per-sample metadata file name inside each RNADir. Only used with -samplesheet.")
	flag.StringVar(&subsetFile, "subsetfile", "", "Externally supplied subset file, required when subsetting mode is Input.")
	flag.StringVar(&groupFile, "groupfile", "", "Externally supplied group file, required when grouping mode is Input.")
	flag.StringVar(&identColumn, "idents", "Idents", "Metadata column holding cluster identities, used by Idents mode.")
	flag.StringVar(&outDir, "out", "", "Output directory.")
	flag.Parse()

	if configPath == "" || outDir == "" || (metaPath == "") == (sheetPath == "") {
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalln(err)
	}

	meta, err := loadMetadata(metaPath, sheetPath, metaName)
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Loaded metadata for", meta.NCells(), "cells")

	subsets, err := resolve("subsetting", cfg.Subsetting, cfg.SubsettingPrefix, identColumn, subsetFile, meta)
	if err != nil {
		log.Fatalln(err)
	}

	groups, err := resolve("grouping", cfg.Grouping, cfg.GroupingPrefix, identColumn, groupFile, meta)
	if err != nil {
		log.Fatalln(err)
	}

	// Validate designs now so a bad reference fails the run before any
	// expensive scoring stage.
	_, skippedDesigns, err := partition.ExpandDesigns(subsets, cfg.Designs)
	if err != nil {
		log.Fatalln(err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalln(err)
	}
	if err := partition.WriteGroupFile(filepath.Join(outDir, "subsets.tsv"), subsets); err != nil {
		log.Fatalln(err)
	}
	if err := partition.WriteGroupFile(filepath.Join(outDir, "groups.tsv"), groups); err != nil {
		log.Fatalln(err)
	}

	var skips []results.Skip
	for _, name := range subsets.Names {
		if reason, ok := subsets.Skipped[name]; ok {
			skips = append(skips, results.Skip{Unit: "subset " + name, Reason: reason})
		}
	}
	for _, name := range groups.Names {
		if reason, ok := groups.Skipped[name]; ok {
			skips = append(skips, results.Skip{Unit: "group " + name, Reason: reason})
		}
	}
	for _, d := range skippedDesigns {
		skips = append(skips, results.Skip{Unit: "design " + d.Design, Reason: d.Reason})
	}
	if err := results.WriteTSV(filepath.Join(outDir, "skipped.tsv"), skips); err != nil {
		log.Fatalln(err)
	}

	log.Println("Resolved", len(subsets.Members), "subsets and", len(groups.Members), "groups;", len(skips), "units skipped")
}

func loadMetadata(metaPath, sheetPath, metaName string) (*cellmeta.Table, error) {
	if metaPath != "" {
		return cellmeta.Load(metaPath)
	}

	sheet, err := cellmeta.LoadSampleSheet(sheetPath)
	if err != nil {
		return nil, err
	}

	var names []string
	var tables []*cellmeta.Table
	for _, sample := range sheet {
		t, err := cellmeta.Load(filepath.Join(sample.RNADir, metaName))
		if err != nil {
			return nil, err
		}
		names = append(names, sample.Sample)
		tables = append(tables, t)
	}

	return cellmeta.Merge(names, tables)
}

func resolve(label string, rs config.RuleSet, prefix, identColumn, inputFile string, meta *cellmeta.Table) (*partition.Partition, error) {
	if rs.Mode == config.ModeInput {
		if inputFile == "" {
			return nil, scmetab.NewConfigError("%s mode is Input but no file was supplied", label)
		}
		return partition.ReadGroupFile(inputFile, meta.Cells())
	}

	resolver, err := partition.NewResolver(label, rs, prefix)
	if err != nil {
		return nil, err
	}
	resolver.IdentColumn = identColumn

	p, err := resolver.Resolve(meta)
	if err != nil {
		return nil, err
	}

	fmt.Printf("%s: resolved %d of %d defined sets\n", label, len(p.Members), len(p.Names))

	return p, nil
}
