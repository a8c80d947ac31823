package config

import "github.com/Sumatoshi-tech/docgap/internal/discovery"

// Repository and output defaults.
const (
	DefaultRepositoryPath = "."
	DefaultOutputPath     = "comment_coverage.csv"
	DefaultOutputFormat   = "csv"
)

// Discovery defaults.
const (
	DefaultSince   = "2023-01-01"
	DefaultWorkers = 4
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultExtensions restricts discovery to C sources and headers.
func DefaultExtensions() []string {
	return []string{".c", ".h"}
}

// DefaultPatterns returns the OpenSSL Diffie-Hellman advisories searched
// for when no patterns are configured.
func DefaultPatterns() []discovery.Pattern {
	ids := []string{"CVE-2023-3446", "CVE-2023-3817", "CVE-2023-5678"}

	patterns := make([]discovery.Pattern, 0, len(ids))
	for _, id := range ids {
		patterns = append(patterns, discovery.Pattern{Label: id, Text: id})
	}

	return patterns
}
