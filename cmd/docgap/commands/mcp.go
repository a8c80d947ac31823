package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docgap/pkg/config"
	"github.com/Sumatoshi-tech/docgap/pkg/mcp"
	"github.com/Sumatoshi-tech/docgap/pkg/observability"
)

func newMCPCommand() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server on stdio",
		Long: `Start a Model Context Protocol server on stdio exposing:
  - docgap_profile: line counts of inline source code
  - docgap_rank:    comment coverage ranking of a local repository

docgap_rank uses the targets and patterns of the loaded configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if debug {
				cfg.Logging.Level = "debug"
			}

			dcfg, err := cfg.Discovery.ToDiscovery()
			if err != nil {
				return err
			}

			providers, err := initObservability(cfg, observability.ModeMCP, true, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			defer shutdownObservability(providers)

			red, err := observability.NewREDMetrics(providers.Meter)
			if err != nil {
				return err
			}

			pipeline, err := observability.NewPipelineMetrics(providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:    providers.Logger,
				Metrics:   red,
				Pipeline:  pipeline,
				Tracer:    providers.Tracer,
				Discovery: dcfg,
			})

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: docgap.yaml in . or ./config)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}
