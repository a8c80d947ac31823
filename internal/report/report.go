// Package report ranks profiled files by comment coverage and writes the
// result as CSV, JSON, YAML or a text table.
package report

import (
	"math"
	"sort"

	"github.com/Sumatoshi-tech/docgap/internal/discovery"
)

// LabelSeparator joins the labels of a row. Labels never contain it.
const LabelSeparator = ";"

// Row is one ranked file.
type Row struct {
	Path    string   `json:"path"          yaml:"path"`
	Total   int      `json:"total_lines"   yaml:"total_lines"`
	Comment int      `json:"comment_lines" yaml:"comment_lines"`
	Code    int      `json:"code_lines"    yaml:"code_lines"`
	Blank   int      `json:"blank_lines"   yaml:"blank_lines"`
	Ratio   float64  `json:"comment_ratio" yaml:"comment_ratio"`
	Labels  []string `json:"labels"        yaml:"labels"`
}

// Summary aggregates the ratios of every row.
type Summary struct {
	Files     int     `json:"files"      yaml:"files"`
	Labels    int     `json:"labels"     yaml:"labels"`
	MeanRatio float64 `json:"mean_ratio" yaml:"mean_ratio"`
	MinRatio  float64 `json:"min_ratio"  yaml:"min_ratio"`
	MaxRatio  float64 `json:"max_ratio"  yaml:"max_ratio"`
}

// Report is the ranked result, least commented files first.
type Report struct {
	Rows    []Row   `json:"files"   yaml:"files"`
	Summary Summary `json:"summary" yaml:"summary"`
}

// Render sorts entries by ratio and then path, and computes the summary.
// Labels are deduplicated and sorted per row.
func Render(entries []discovery.FileEntry) Report {
	rows := make([]Row, 0, len(entries))

	for _, entry := range entries {
		rows = append(rows, Row{
			Path:    entry.Path,
			Total:   entry.Counts.Total,
			Comment: entry.Counts.Comment,
			Code:    entry.Counts.Code,
			Blank:   entry.Counts.Blank,
			Ratio:   entry.Counts.Ratio(),
			Labels:  uniqueSorted(entry.Labels),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ratio != rows[j].Ratio {
			return rows[i].Ratio < rows[j].Ratio
		}

		return rows[i].Path < rows[j].Path
	})

	return Report{Rows: rows, Summary: summarize(rows)}
}

func summarize(rows []Row) Summary {
	if len(rows) == 0 {
		return Summary{}
	}

	labels := make(map[string]struct{})
	sum := 0.0
	minRatio := math.Inf(1)
	maxRatio := math.Inf(-1)

	for _, row := range rows {
		for _, label := range row.Labels {
			labels[label] = struct{}{}
		}

		sum += row.Ratio
		minRatio = math.Min(minRatio, row.Ratio)
		maxRatio = math.Max(maxRatio, row.Ratio)
	}

	return Summary{
		Files:     len(rows),
		Labels:    len(labels),
		MeanRatio: math.Round(sum*10/float64(len(rows))) / 10,
		MinRatio:  minRatio,
		MaxRatio:  maxRatio,
	}
}

func uniqueSorted(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))

	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}

		seen[label] = struct{}{}
		out = append(out, label)
	}

	sort.Strings(out)

	return out
}
