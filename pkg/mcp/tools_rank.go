package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/docgap/internal/discovery"
	"github.com/Sumatoshi-tech/docgap/internal/report"
	"github.com/Sumatoshi-tech/docgap/pkg/gitlib"
)

const defaultRankLimit = 20

// handleRank runs discovery on the requested repository. The summary always
// covers every ranked file; only the rows are truncated to the limit.
func (s *Server) handleRank(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input RankInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateRankInput(input)
	if err != nil {
		return errorResult(err)
	}

	cfg := s.discovery

	if input.Since != "" {
		cfg.Since, err = gitlib.ParseTime(input.Since)
		if err != nil {
			return errorResult(err)
		}
	}

	repo, err := discovery.OpenRepository(input.RepoPath)
	if err != nil {
		return errorResult(err)
	}
	defer repo.Free()

	opts := []discovery.Option{discovery.WithLogger(s.logger), discovery.WithRecorder(s.pipeline)}
	if s.tracer != nil {
		opts = append(opts, discovery.WithTracer(s.tracer))
	}

	entries, err := discovery.NewAggregator(repo, cfg, opts...).Run(ctx)
	if err != nil {
		return errorResult(err)
	}

	rep := report.Render(entries)

	limit := input.Limit
	if limit == 0 {
		limit = defaultRankLimit
	}

	if len(rep.Rows) > limit {
		rep.Rows = rep.Rows[:limit]
	}

	return jsonResult(rep)
}

func validateRankInput(input RankInput) error {
	if input.RepoPath == "" {
		return ErrEmptyRepoPath
	}

	if !filepath.IsAbs(input.RepoPath) {
		return ErrRepoPathNotAbsolute
	}

	info, err := os.Stat(input.RepoPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRepoNotFound, input.RepoPath)
	}

	if input.Limit < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeLimit, input.Limit)
	}

	return nil
}
