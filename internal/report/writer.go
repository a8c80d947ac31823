package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

var (
	// ErrWrite is returned when the report cannot be written.
	ErrWrite = errors.New("write report")
	// ErrUnknownFormat is returned for an unsupported output format.
	ErrUnknownFormat = errors.New("unknown output format")
)

// csvHeader lists the CSV columns in order.
var csvHeader = []string{"path", "total_lines", "comment_lines", "code_lines", "comment_ratio", "labels"}

// ParseFormat parses a format name. An empty name yields FormatCSV.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "table", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatForPath guesses the format from the file extension, defaulting to CSV.
func FormatForPath(path string) Format {
	format, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatCSV
	}

	return format
}

// Write encodes the report to w.
func (r Report) Write(w io.Writer, format Format) error {
	var err error

	switch format {
	case FormatCSV:
		err = r.writeCSV(w)
	case FormatJSON:
		err = r.writeJSON(w)
	case FormatYAML:
		err = r.writeYAML(w)
	case FormatText:
		_, err = io.WriteString(w, r.Table()+"\n")
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return nil
}

// WriteFile writes the report to path, replacing any existing file.
func (r Report) WriteFile(path string, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	err = r.Write(f, format)
	if err != nil {
		f.Close()

		return err
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return nil
}

func (r Report) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	err := cw.Write(csvHeader)
	if err != nil {
		return err
	}

	for _, row := range r.Rows {
		err = cw.Write([]string{
			row.Path,
			strconv.Itoa(row.Total),
			strconv.Itoa(row.Comment),
			strconv.Itoa(row.Code),
			strconv.FormatFloat(row.Ratio, 'f', 1, 64),
			strings.Join(row.Labels, LabelSeparator),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

func (r Report) writeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(r)
}

func (r Report) writeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(r)
	if err != nil {
		return err
	}

	return enc.Close()
}

// Table renders the rows as an aligned text table with a summary footer.
func (r Report) Table() string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Footer = text.FormatDefault

	tbl.AppendHeader(table.Row{"Path", "Total", "Comment", "Code", "Ratio", "Labels"})

	for _, row := range r.Rows {
		tbl.AppendRow(table.Row{
			row.Path,
			humanize.Comma(int64(row.Total)),
			humanize.Comma(int64(row.Comment)),
			humanize.Comma(int64(row.Code)),
			fmt.Sprintf("%.1f%%", row.Ratio),
			strings.Join(row.Labels, LabelSeparator),
		})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("Total: %d files", r.Summary.Files),
		"", "", "",
		fmt.Sprintf("%.1f%%", r.Summary.MeanRatio),
		fmt.Sprintf("%d labels", r.Summary.Labels),
	})

	return tbl.Render()
}
