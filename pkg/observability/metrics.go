package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "docgap.requests.total"
	metricRequestDuration  = "docgap.request.duration.seconds"
	metricErrorsTotal      = "docgap.errors.total"
	metricInflightRequests = "docgap.inflight.requests"

	metricCommitsMatched  = "docgap.commits.matched"
	metricFilesProfiled   = "docgap.files.profiled"
	metricPathsSkipped    = "docgap.paths.skipped"
	metricProfileDuration = "docgap.profile.duration.seconds"

	attrOp     = "op"
	attrStatus = "status"
	attrReason = "reason"

	// StatusOK and StatusError label RED requests.
	StatusOK    = "ok"
	StatusError = "error"
)

// requestBuckets covers tool calls from a single inline profile to a full
// history scan of a large repository.
var requestBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300}

// profileBuckets covers reading one source file.
var profileBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}

// REDMetrics holds the Rate, Error, Duration instruments for MCP tool calls.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates RED metric instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(requestBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// RecordRequest records a completed request.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns its decrement.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// PipelineMetrics counts discovery progress. It satisfies the discovery
// package's Recorder.
type PipelineMetrics struct {
	commitsMatched  metric.Int64Counter
	filesProfiled   metric.Int64Counter
	pathsSkipped    metric.Int64Counter
	profileDuration metric.Float64Histogram
}

// NewPipelineMetrics creates the discovery instruments from the given meter.
func NewPipelineMetrics(mt metric.Meter) (*PipelineMetrics, error) {
	matched, err := mt.Int64Counter(metricCommitsMatched,
		metric.WithDescription("Commits whose message matched a search pattern"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommitsMatched, err)
	}

	profiled, err := mt.Int64Counter(metricFilesProfiled,
		metric.WithDescription("Files whose lines were classified"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesProfiled, err)
	}

	skipped, err := mt.Int64Counter(metricPathsSkipped,
		metric.WithDescription("Paths or commits left out of the report"),
		metric.WithUnit("{path}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPathsSkipped, err)
	}

	duration, err := mt.Float64Histogram(metricProfileDuration,
		metric.WithDescription("Time to profile one file in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(profileBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricProfileDuration, err)
	}

	return &PipelineMetrics{
		commitsMatched:  matched,
		filesProfiled:   profiled,
		pathsSkipped:    skipped,
		profileDuration: duration,
	}, nil
}

// CommitsMatched adds n pattern matches.
func (pm *PipelineMetrics) CommitsMatched(ctx context.Context, n int) {
	pm.commitsMatched.Add(ctx, int64(n))
}

// FileProfiled records one profiled file.
func (pm *PipelineMetrics) FileProfiled(ctx context.Context, elapsed time.Duration) {
	pm.filesProfiled.Add(ctx, 1)
	pm.profileDuration.Record(ctx, elapsed.Seconds())
}

// PathSkipped records one skip with its reason.
func (pm *PipelineMetrics) PathSkipped(ctx context.Context, reason string) {
	pm.pathsSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String(attrReason, reason)))
}
