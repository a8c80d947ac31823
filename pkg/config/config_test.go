package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/docgap/internal/discovery"
	"github.com/Sumatoshi-tech/docgap/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "docgap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Repository.Path)
	assert.Equal(t, "comment_coverage.csv", cfg.Output.Path)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Empty(t, cfg.Output.MetricsFile)
	assert.Equal(t, []string{".c", ".h"}, cfg.Discovery.Extensions)
	assert.Equal(t, "2023-01-01", cfg.Discovery.Since)
	assert.Equal(t, 4, cfg.Discovery.Workers)
	assert.Empty(t, cfg.Discovery.Targets)
	assert.Equal(t, config.DefaultPatterns(), cfg.Discovery.Patterns)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
repository:
  path: /srv/openssl
output:
  path: out.json
  format: json
discovery:
  since: "2024-06-01"
  workers: 2
  extensions: [".c"]
  targets:
    - label: CVE-2023-3446
      commit: 1fa20cf2f506113c761777127a38bce5068740eb
  patterns:
    - label: dh
      text: "DH_check"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/openssl", cfg.Repository.Path)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 2, cfg.Discovery.Workers)
	assert.Equal(t, []string{".c"}, cfg.Discovery.Extensions)
	assert.Equal(t, []discovery.Target{
		{Label: "CVE-2023-3446", Commit: "1fa20cf2f506113c761777127a38bce5068740eb"},
	}, cfg.Discovery.Targets)
	assert.Equal(t, []discovery.Pattern{{Label: "dh", Text: "DH_check"}}, cfg.Discovery.Patterns)

	dcfg, err := cfg.Discovery.ToDiscovery()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), dcfg.Since)
	assert.Equal(t, 2, dcfg.Workers)
	assert.Len(t, dcfg.Targets, 1)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("DOCGAP_REPOSITORY_PATH", "/tmp/env-repo")
	t.Setenv("DOCGAP_OUTPUT_PATH", "/tmp/env.csv")
	t.Setenv("DOCGAP_DISCOVERY_WORKERS", "7")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env-repo", cfg.Repository.Path)
	assert.Equal(t, "/tmp/env.csv", cfg.Output.Path)
	assert.Equal(t, 7, cfg.Discovery.Workers)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "label with separator",
			content: "discovery:\n  patterns:\n    - {label: \"a;b\", text: x}\n",
			wantErr: config.ErrInvalidLabel,
		},
		{
			name:    "empty target label",
			content: "discovery:\n  targets:\n    - {label: \"\", commit: abc}\n",
			wantErr: config.ErrInvalidLabel,
		},
		{
			name:    "bad regex",
			content: "discovery:\n  patterns:\n    - {label: bad, text: \"(\"}\n",
			wantErr: config.ErrInvalidPattern,
		},
		{
			name:    "extension without dot",
			content: "discovery:\n  extensions: [c]\n",
			wantErr: config.ErrInvalidExtension,
		},
		{
			name:    "zero workers",
			content: "discovery:\n  workers: 0\n",
			wantErr: config.ErrInvalidWorkers,
		},
		{
			name:    "unparseable since",
			content: "discovery:\n  since: yesterday\n",
			wantErr: config.ErrInvalidSince,
		},
		{
			name:    "unknown format",
			content: "output:\n  format: xlsx\n",
			wantErr: config.ErrInvalidFormat,
		},
		{
			name:    "unknown log level",
			content: "logging:\n  level: loud\n",
			wantErr: config.ErrInvalidLogLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSinceTime_EmptyMeansUnbounded(t *testing.T) {
	t.Parallel()

	d := config.DiscoveryConfig{Workers: 1}

	since, err := d.SinceTime()
	require.NoError(t, err)
	assert.True(t, since.IsZero())
}
