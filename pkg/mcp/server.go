// Package mcp exposes docgap's line profiler and coverage ranking as Model
// Context Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/docgap/internal/discovery"
	"github.com/Sumatoshi-tech/docgap/pkg/observability"
	"github.com/Sumatoshi-tech/docgap/pkg/version"
)

const (
	serverName = "docgap"
	toolCount  = 2
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use defaults.
type ServerDeps struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records RED metrics per tool call when set.
	Metrics *observability.REDMetrics

	// Pipeline receives discovery counters from docgap_rank when set.
	Pipeline discovery.Recorder

	// Tracer creates one span per tool call when set.
	Tracer trace.Tracer

	// Discovery supplies the targets, patterns, extensions and workers used
	// by docgap_rank. Since is overridden per call when the input sets it.
	Discovery discovery.Config
}

// Server wraps the MCP SDK server with the docgap tools registered.
type Server struct {
	inner     *mcpsdk.Server
	mu        sync.RWMutex
	tools     []string
	logger    *slog.Logger
	metrics   *observability.REDMetrics
	pipeline  discovery.Recorder
	tracer    trace.Tracer
	discovery discovery.Config
}

// NewServer creates an MCP server with every docgap tool registered.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{Name: serverName, Version: version.Version},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{
		inner:     inner,
		tools:     make([]string, 0, toolCount),
		logger:    logger,
		metrics:   deps.Metrics,
		pipeline:  deps.Pipeline,
		tracer:    deps.Tracer,
		discovery: deps.Discovery,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run serves on stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on transport until ctx is canceled or the
// connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameProfile,
		Description: profileToolDescription,
	}, withMetrics(s.metrics, ToolNameProfile, withTracing(s.tracer, ToolNameProfile, handleProfile)))
	s.trackTool(ToolNameProfile)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameRank,
		Description: rankToolDescription,
	}, withMetrics(s.metrics, ToolNameRank, withTracing(s.tracer, ToolNameRank, s.handleRank)))
	s.trackTool(ToolNameRank)
}

const mcpSpanPrefix = "mcp."

// traceIDMetaKey prefixes the trace id appended to sampled responses.
const traceIDMetaKey = "trace_id"

// withTracing starts a server span per call and appends the trace id to
// sampled responses.
func withTracing[Input any](
	tracer trace.Tracer, toolName string, handler mcpsdk.ToolHandlerFor[Input, ToolOutput],
) mcpsdk.ToolHandlerFor[Input, ToolOutput] {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		if result != nil && result.IsError {
			span.SetStatus(codes.Error, "tool returned error")
		}

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			result.Content = append(result.Content,
				&mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())})
		}

		return result, output, err
	}
}

// withMetrics records RED metrics per call.
func withMetrics[Input any](
	metrics *observability.REDMetrics, toolName string, handler mcpsdk.ToolHandlerFor[Input, ToolOutput],
) mcpsdk.ToolHandlerFor[Input, ToolOutput] {
	if metrics == nil {
		return handler
	}

	op := mcpSpanPrefix + toolName

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		done := metrics.TrackInflight(ctx, op)
		defer done()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, op, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

const (
	profileToolDescription = "Count code, comment and blank lines of inline source code. " +
		"The filename selects the comment syntax."

	rankToolDescription = "Rank the files touched by security-fix commits of a local Git repository " +
		"by comment coverage, least documented first."
)
