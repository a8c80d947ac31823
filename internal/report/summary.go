package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Ratios below lowCoverage are highlighted as poorly documented.
const (
	lowCoverage  = 10.0
	highCoverage = 25.0
)

// PrintSummary writes the console summary of r to w.
func PrintSummary(w io.Writer, r Report) {
	s := r.Summary

	bold := color.New(color.Bold)
	bold.Fprintf(w, "Files ranked: %s\n", humanize.Comma(int64(s.Files)))
	fmt.Fprintf(w, "Distinct labels: %s\n", humanize.Comma(int64(s.Labels)))

	if s.Files == 0 {
		color.New(color.FgYellow).Fprintln(w, "No files matched the configured commits and patterns.")

		return
	}

	fmt.Fprintf(w, "Comment ratio: min %s  mean %s  max %s\n",
		ratioColor(s.MinRatio).Sprintf("%.1f%%", s.MinRatio),
		ratioColor(s.MeanRatio).Sprintf("%.1f%%", s.MeanRatio),
		ratioColor(s.MaxRatio).Sprintf("%.1f%%", s.MaxRatio),
	)
}

func ratioColor(ratio float64) *color.Color {
	switch {
	case ratio < lowCoverage:
		return color.New(color.FgRed)
	case ratio < highCoverage:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
