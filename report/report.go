// Package report assembles the per-run report bundle: an index page linking
// the result tables, plus one activity chart per subset.
package report

import (
	"embed"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/carbocation/pfx"
)

//go:embed templates/*
var embeddedTemplates embed.FS

// SubsetSection links one subset's result tables and chart.
type SubsetSection struct {
	Name              string
	ActivityPath      string
	HeterogeneityPath string
	FeaturesPath      string
	ChartPath         string
}

// DesignSection links one design's inter-subset enrichment table.
type DesignSection struct {
	Name string
	Path string
}

// SkippedRow is one unit that produced no results, with the reason.
type SkippedRow struct {
	Unit   string
	Reason string
}

type Data struct {
	Title     string
	Generated time.Time
	Subsets   []SubsetSection
	Designs   []DesignSection
	Skipped   []SkippedRow
}

// Write renders the bundle's index.html into dir, creating dir if needed.
func Write(dir string, data Data) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pfx.Err(err)
	}

	tmpl, err := template.ParseFS(embeddedTemplates, "templates/index.html.tmpl")
	if err != nil {
		return pfx.Err(err)
	}

	f, err := os.Create(filepath.Join(dir, "index.html"))
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	if data.Generated.IsZero() {
		data.Generated = time.Now()
	}

	return pfx.Err(tmpl.Execute(f, data))
}
