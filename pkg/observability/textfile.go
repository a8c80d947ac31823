package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// TextfileExporter collects OTel instruments into a private Prometheus
// registry and dumps them in the node_exporter textfile format.
type TextfileExporter struct {
	path     string
	registry *prometheus.Registry
	reader   *promexporter.Exporter
}

// NewTextfileExporter creates an exporter writing to path. Each call uses
// its own registry so repeated runs never collide.
func NewTextfileExporter(path string) (*TextfileExporter, error) {
	registry := prometheus.NewRegistry()

	reader, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &TextfileExporter{path: path, registry: registry, reader: reader}, nil
}

// Reader returns the metric reader to attach to a MeterProvider.
func (e *TextfileExporter) Reader() sdkmetric.Reader {
	return e.reader
}

// Path returns the output file.
func (e *TextfileExporter) Path() string {
	return e.path
}

// Write gathers the current values and atomically replaces the file.
func (e *TextfileExporter) Write() error {
	err := prometheus.WriteToTextfile(e.path, e.registry)
	if err != nil {
		return fmt.Errorf("write metrics file %s: %w", e.path, err)
	}

	return nil
}
