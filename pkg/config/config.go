// Package config loads and validates docgap configuration.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/docgap/internal/discovery"
	"github.com/Sumatoshi-tech/docgap/internal/report"
	"github.com/Sumatoshi-tech/docgap/pkg/gitlib"
)

// Sentinel validation errors.
var (
	ErrInvalidPattern   = errors.New("invalid search pattern")
	ErrInvalidLabel     = errors.New("invalid label")
	ErrInvalidExtension = errors.New("invalid extension")
	ErrInvalidWorkers   = errors.New("workers must be positive")
	ErrInvalidSince     = errors.New("invalid since date")
	ErrInvalidFormat    = errors.New("invalid output format")
	ErrInvalidLogLevel  = errors.New("invalid log level")
)

// EnvPrefix prefixes every environment override, e.g. DOCGAP_REPOSITORY_PATH.
const EnvPrefix = "DOCGAP"

// Config holds all configuration for a docgap run.
type Config struct {
	Repository RepositoryConfig `mapstructure:"repository"`
	Output     OutputConfig     `mapstructure:"output"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// RepositoryConfig locates the analyzed working tree.
type RepositoryConfig struct {
	Path string `mapstructure:"path"`
}

// OutputConfig holds report output settings.
type OutputConfig struct {
	Path        string `mapstructure:"path"`
	Format      string `mapstructure:"format"`
	MetricsFile string `mapstructure:"metrics_file"`
}

// DiscoveryConfig selects which commits and files are ranked.
type DiscoveryConfig struct {
	Targets    []discovery.Target  `mapstructure:"targets"`
	Patterns   []discovery.Pattern `mapstructure:"patterns"`
	Since      string              `mapstructure:"since"`
	Extensions []string            `mapstructure:"extensions"`
	Workers    int                 `mapstructure:"workers"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	Environment  string `mapstructure:"environment"`
}

// LoadConfig loads configuration from file and environment variables.
// With an empty configPath, docgap.yaml is looked up in . and ./config and
// its absence is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("docgap")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("repository.path", DefaultRepositoryPath)

	viperCfg.SetDefault("output.path", DefaultOutputPath)
	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.metrics_file", "")

	patterns := make([]map[string]any, 0)
	for _, p := range DefaultPatterns() {
		patterns = append(patterns, map[string]any{"label": p.Label, "text": p.Text})
	}

	viperCfg.SetDefault("discovery.targets", []map[string]any{})
	viperCfg.SetDefault("discovery.patterns", patterns)
	viperCfg.SetDefault("discovery.since", DefaultSince)
	viperCfg.SetDefault("discovery.extensions", DefaultExtensions())
	viperCfg.SetDefault("discovery.workers", DefaultWorkers)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.environment", "")
}

// Validate checks every section. It is run by LoadConfig and again by
// callers that override fields from command-line flags.
func (c *Config) Validate() error {
	_, err := report.ParseFormat(c.Output.Format)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return c.Discovery.validate()
}

func (d *DiscoveryConfig) validate() error {
	for _, target := range d.Targets {
		err := validateLabel(target.Label)
		if err != nil {
			return err
		}

		if strings.TrimSpace(target.Commit) == "" {
			return fmt.Errorf("%w: target %q has no commit", ErrInvalidLabel, target.Label)
		}
	}

	for _, pattern := range d.Patterns {
		err := validateLabel(pattern.Label)
		if err != nil {
			return err
		}

		_, compileErr := regexp.Compile(pattern.Text)
		if pattern.Text == "" || compileErr != nil {
			return fmt.Errorf("%w: %q for %s", ErrInvalidPattern, pattern.Text, pattern.Label)
		}
	}

	for _, ext := range d.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
		}
	}

	if d.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, d.Workers)
	}

	_, err := d.SinceTime()

	return err
}

func validateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidLabel)
	}

	if strings.Contains(label, report.LabelSeparator) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidLabel, label, report.LabelSeparator)
	}

	return nil
}

// SinceTime parses the since bound. An empty value means no bound.
func (d *DiscoveryConfig) SinceTime() (time.Time, error) {
	if strings.TrimSpace(d.Since) == "" {
		return time.Time{}, nil
	}

	since, err := gitlib.ParseTime(d.Since)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidSince, err)
	}

	return since, nil
}

// ToDiscovery converts the validated section into the aggregator input.
func (d *DiscoveryConfig) ToDiscovery() (discovery.Config, error) {
	since, err := d.SinceTime()
	if err != nil {
		return discovery.Config{}, err
	}

	return discovery.Config{
		Targets:    append([]discovery.Target(nil), d.Targets...),
		Patterns:   append([]discovery.Pattern(nil), d.Patterns...),
		Since:      since,
		Extensions: append([]string(nil), d.Extensions...),
		Workers:    d.Workers,
	}, nil
}
