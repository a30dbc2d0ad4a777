package report

import (
	"os"
	"sort"

	"github.com/carbocation/pfx"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/scmetab/scmetab/pathway"
)

// WriteActivityChart renders an SVG bar chart of the top pathways by
// activity score for one subset. Pathways are ranked by their best group
// score; topN caps the bar count to keep labels readable.
func WriteActivityChart(path string, activities []pathway.Activity, topN int) error {
	if topN <= 0 {
		topN = 15
	}

	best := make(map[string]float64)
	for _, a := range activities {
		if a.Score > best[a.Pathway] {
			best[a.Pathway] = a.Score
		}
	}

	type ranked struct {
		name  string
		score float64
	}
	order := make([]ranked, 0, len(best))
	for name, score := range best {
		order = append(order, ranked{name: name, score: score})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		return order[i].name < order[j].name
	})
	if len(order) > topN {
		order = order[:topN]
	}

	bars := make([]chart.Value, 0, len(order))
	for _, r := range order {
		bars = append(bars, chart.Value{Value: r.score, Label: truncateLabel(r.name, 24)})
	}
	if len(bars) == 0 {
		return nil
	}

	graph := chart.BarChart{
		Width:    1024,
		Height:   512,
		BarWidth: 40,
		XAxis:    chart.Style{TextRotationDegrees: 45},
		Bars:     bars,
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	return pfx.Err(graph.Render(chart.SVG, f))
}

func truncateLabel(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
