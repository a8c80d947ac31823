package observability_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/docgap/pkg/observability"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}

	return out
}

func sumValue(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)

	want := attribute.NewSet(attrs...)

	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}

	return 0
}

func TestPipelineMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	pm, err := observability.NewPipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	pm.CommitsMatched(ctx, 4)
	pm.FileProfiled(ctx, 2*time.Millisecond)
	pm.FileProfiled(ctx, 3*time.Millisecond)
	pm.PathSkipped(ctx, "missing")
	pm.PathSkipped(ctx, "missing")
	pm.PathSkipped(ctx, "unknown_commit")

	metrics := collect(t, reader)

	assert.Equal(t, int64(4), sumValue(t, metrics["docgap.commits.matched"]))
	assert.Equal(t, int64(2), sumValue(t, metrics["docgap.files.profiled"]))
	assert.Equal(t, int64(2), sumValue(t, metrics["docgap.paths.skipped"], attribute.String("reason", "missing")))
	assert.Equal(t, int64(1), sumValue(t, metrics["docgap.paths.skipped"], attribute.String("reason", "unknown_commit")))

	hist, ok := metrics["docgap.profile.duration.seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestREDMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()

	done := red.TrackInflight(ctx, "docgap_rank")
	red.RecordRequest(ctx, "docgap_rank", observability.StatusOK, time.Second)
	red.RecordRequest(ctx, "docgap_rank", observability.StatusError, time.Second)

	metrics := collect(t, reader)
	op := attribute.String("op", "docgap_rank")

	assert.Equal(t, int64(1), sumValue(t, metrics["docgap.requests.total"], op, attribute.String("status", "ok")))
	assert.Equal(t, int64(1), sumValue(t, metrics["docgap.errors.total"], op))
	assert.Equal(t, int64(1), sumValue(t, metrics["docgap.inflight.requests"], op))

	done()

	metrics = collect(t, reader)
	assert.Equal(t, int64(0), sumValue(t, metrics["docgap.inflight.requests"], op))
}

func TestTextfileExporter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "metrics.prom")

	exporter, err := observability.NewTextfileExporter(path)
	require.NoError(t, err)
	assert.Equal(t, path, exporter.Path())

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter.Reader()))

	pm, err := observability.NewPipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	pm.FileProfiled(context.Background(), time.Millisecond)

	require.NoError(t, exporter.Write())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "docgap_files_profiled")
	assert.Contains(t, string(data), "docgap_profile_duration")
}

func TestTextfileExporter_UnwritablePath(t *testing.T) {
	t.Parallel()

	exporter, err := observability.NewTextfileExporter(filepath.Join(t.TempDir(), "missing", "m.prom"))
	require.NoError(t, err)

	require.Error(t, exporter.Write())
}
