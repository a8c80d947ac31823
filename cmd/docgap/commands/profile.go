package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docgap/internal/discovery"
	"github.com/Sumatoshi-tech/docgap/internal/report"
	"github.com/Sumatoshi-tech/docgap/pkg/linecount"
)

func newProfileCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "profile FILE...",
		Short: "Count code, comment and blank lines of files",
		Long: `Profile files from disk without consulting git history. The files are
ranked the same way as the repository report.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			profiler := linecount.NewProfiler()
			entries := make([]discovery.FileEntry, 0, len(args))

			for _, path := range args {
				counts, profileErr := profiler.ProfileFile(cmd.Context(), path)
				if profileErr != nil {
					return profileErr
				}

				entries = append(entries, discovery.FileEntry{Path: path, Counts: counts})
			}

			return report.Render(entries).Write(cmd.OutOrStdout(), outFormat)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatText), "Output format: csv, json, yaml, text")

	return cmd
}
