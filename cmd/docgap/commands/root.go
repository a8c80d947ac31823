// Package commands implements the docgap CLI commands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docgap/internal/discovery"
	"github.com/Sumatoshi-tech/docgap/internal/report"
	"github.com/Sumatoshi-tech/docgap/pkg/config"
	"github.com/Sumatoshi-tech/docgap/pkg/observability"
	"github.com/Sumatoshi-tech/docgap/pkg/version"
)

// stdoutPath writes the report to standard output instead of a file.
const stdoutPath = "-"

// RunCommand holds the flags of the ranking command.
type RunCommand struct {
	configPath  string
	output      string
	format      string
	since       string
	workers     int
	extensions  []string
	metricsFile string
	logLevel    string
	jsonLogs    bool
	noColor     bool
}

// NewRootCommand creates the docgap command tree. The root command itself
// ranks the repository.
func NewRootCommand() *cobra.Command {
	rc := &RunCommand{}

	cmd := &cobra.Command{
		Use:   "docgap [repository] [output]",
		Short: "Rank security-fix files by comment coverage",
		Long: `docgap finds the files touched by security-relevant commits, either listed
explicitly in the configuration or found by searching commit messages, and
ranks them by the share of comment lines, least documented first.

The repository defaults to repository.path (DOCGAP_REPOSITORY_PATH) and the
report to output.path (comment_coverage.csv). Use "-" as output for stdout.`,
		Args:          cobra.MaximumNArgs(2), //nolint:mnd // repository and output
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          rc.run,
	}

	cmd.Flags().StringVarP(&rc.configPath, "config", "c", "", "Config file (default: docgap.yaml in . or ./config)")
	cmd.Flags().StringVarP(&rc.output, "output", "o", "", "Report path, '-' for stdout")
	cmd.Flags().StringVarP(&rc.format, "format", "f", "", "Report format: csv, json, yaml, text")
	cmd.Flags().StringVar(&rc.since, "since", "", "Search commits after this time (e.g. '720h', '2023-01-01', RFC3339)")
	cmd.Flags().IntVarP(&rc.workers, "workers", "w", 0, "Files profiled in parallel")
	cmd.Flags().StringSliceVar(&rc.extensions, "ext", nil, "File extensions to include (e.g. .c,.h)")
	cmd.Flags().StringVar(&rc.metricsFile, "metrics-file", "", "Write pipeline metrics in Prometheus text format")
	cmd.Flags().StringVar(&rc.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&rc.jsonLogs, "log-json", false, "Emit JSON logs")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored console summary")

	cmd.AddCommand(newProfileCommand())
	cmd.AddCommand(newMCPCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	if rc.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	cfg, err := rc.loadConfig(cmd, args)
	if err != nil {
		return err
	}

	providers, err := initObservability(cfg, observability.ModeCLI, rc.jsonLogs, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	defer shutdownObservability(providers)

	ctx, span := providers.Tracer.Start(cmd.Context(), "docgap.run")
	defer span.End()

	entries, err := rankRepository(ctx, cfg, providers)
	if err != nil {
		return err
	}

	rep := report.Render(entries)

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	writeErr := writeReport(rep, cfg.Output.Path, format, cmd.OutOrStdout())

	// The summary is printed even when the report could not be written.
	report.PrintSummary(cmd.OutOrStdout(), rep)

	if writeErr != nil {
		return writeErr
	}

	if cfg.Output.Path != stdoutPath {
		providers.Logger.InfoContext(ctx, "report written",
			slog.String("path", cfg.Output.Path), slog.Int("files", len(rep.Rows)))
	}

	return nil
}

// loadConfig reads the config file and applies positional arguments and
// explicitly set flags on top of it.
func (rc *RunCommand) loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(rc.configPath)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.Repository.Path = args[0]
	}

	if len(args) > 1 {
		cfg.Output.Path = args[1]
	}

	flags := cmd.Flags()

	if flags.Changed("output") {
		cfg.Output.Path = rc.output
	}

	if flags.Changed("format") {
		cfg.Output.Format = rc.format
	} else if flags.Changed("output") || len(args) > 1 {
		cfg.Output.Format = string(report.FormatForPath(cfg.Output.Path))
	}

	if flags.Changed("since") {
		cfg.Discovery.Since = rc.since
	}

	if flags.Changed("workers") {
		cfg.Discovery.Workers = rc.workers
	}

	if flags.Changed("ext") {
		cfg.Discovery.Extensions = discovery.NewExtensionSet(rc.extensions...).Sorted()
	}

	if flags.Changed("metrics-file") {
		cfg.Output.MetricsFile = rc.metricsFile
	}

	if flags.Changed("log-level") {
		cfg.Logging.Level = rc.logLevel
	}

	if rc.jsonLogs {
		cfg.Logging.Format = "json"
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func rankRepository(ctx context.Context, cfg *config.Config, providers observability.Providers) ([]discovery.FileEntry, error) {
	repo, err := discovery.OpenRepository(cfg.Repository.Path)
	if err != nil {
		return nil, err
	}
	defer repo.Free()

	dcfg, err := cfg.Discovery.ToDiscovery()
	if err != nil {
		return nil, err
	}

	pipeline, err := observability.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return nil, err
	}

	agg := discovery.NewAggregator(repo, dcfg,
		discovery.WithLogger(providers.Logger),
		discovery.WithTracer(providers.Tracer),
		discovery.WithRecorder(pipeline),
	)

	return agg.Run(ctx)
}

func writeReport(rep report.Report, path string, format report.Format, stdout io.Writer) error {
	if path == stdoutPath {
		return rep.Write(stdout, format)
	}

	return rep.WriteFile(path, format)
}

func initObservability(
	cfg *config.Config, mode observability.AppMode, jsonLogs bool, logOut io.Writer,
) (observability.Providers, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.MetricsFile = cfg.Output.MetricsFile
	obsCfg.LogLevel = observability.ParseLogLevel(cfg.Logging.Level)
	obsCfg.LogJSON = jsonLogs || cfg.Logging.Format == "json"

	providers, err := observability.InitWithWriter(obsCfg, logOut)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	return providers, nil
}

func shutdownObservability(providers observability.Providers) {
	err := providers.Shutdown(context.Background())
	if err != nil {
		providers.Logger.Warn("observability shutdown failed", slog.Any("error", err))
	}
}
