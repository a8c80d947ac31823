package discovery_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/docgap/internal/discovery"
	"github.com/Sumatoshi-tech/docgap/pkg/gitlib"
	"github.com/Sumatoshi-tech/docgap/pkg/gitlib/gittest"
	"github.com/Sumatoshi-tech/docgap/pkg/linecount"
)

type fixture struct {
	repo    *gitlib.Repository
	base    gitlib.Hash
	fixDH   gitlib.Hash
	fixRSA  gitlib.Hash
	cleanup gitlib.Hash
}

// newFixture builds a small history:
//
//	base     adds dh.c, rsa.c, README.md
//	fixDH    "Fix CVE-2023-3446" touches dh.c and dh.h
//	fixRSA   "Fix CVE-2023-3817 and CVE-2023-3446" touches dh.c and rsa.c
//	cleanup  "Fix CVE-2023-5678" adds old.c, then old.c is removed from the working tree
func newFixture(t *testing.T) fixture {
	t.Helper()

	g := gittest.New(t)

	g.WriteFile("crypto/dh.c", "int dh;\n")
	g.WriteFile("crypto/rsa.c", "int rsa;\n")
	g.WriteFile("README.md", "# docs\n")
	base := g.Commit("Initial import")

	g.WriteFile("crypto/dh.c", "/* checked */\nint dh;\n")
	g.WriteFile("include/dh.h", "// header\n// more\nint dh_check(void);\n")
	fixDH := g.Commit("Fix CVE-2023-3446: excessive DH check time")

	g.WriteFile("crypto/dh.c", "/* checked */\nint dh;\nint q;\n")
	g.WriteFile("crypto/rsa.c", "int rsa;\n\nint e;\n")
	fixRSA := g.Commit("Fix CVE-2023-3817 and CVE-2023-3446 follow-up")

	g.WriteFile("crypto/old.c", "int old;\n")
	cleanup := g.Commit("Fix CVE-2023-5678 in legacy code")

	g.Remove("crypto/old.c")

	repo, err := discovery.OpenRepository(g.Path())
	require.NoError(t, err)
	t.Cleanup(repo.Free)

	return fixture{repo: repo, base: base, fixDH: fixDH, fixRSA: fixRSA, cleanup: cleanup}
}

func defaultPatterns() []discovery.Pattern {
	return []discovery.Pattern{
		{Label: "CVE-2023-3446", Text: "CVE-2023-3446"},
		{Label: "CVE-2023-3817", Text: "CVE-2023-3817"},
		{Label: "CVE-2023-5678", Text: "CVE-2023-5678"},
	}
}

type countingRecorder struct {
	mu       sync.Mutex
	matched  int
	profiled int
	skipped  map[string]int
}

func (r *countingRecorder) CommitsMatched(_ context.Context, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.matched += n
}

func (r *countingRecorder) FileProfiled(context.Context, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiled++
}

func (r *countingRecorder) PathSkipped(_ context.Context, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.skipped == nil {
		r.skipped = make(map[string]int)
	}

	r.skipped[reason]++
}

func TestOpenRepository_NotFound(t *testing.T) {
	t.Parallel()

	_, err := discovery.OpenRepository(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, discovery.ErrRepositoryNotFound)
}

func TestExtensionSet(t *testing.T) {
	t.Parallel()

	set := discovery.NewExtensionSet(".c", "h", " ", ".c")

	assert.Equal(t, []string{".c", ".h"}, set.Sorted())
	assert.True(t, set.Match("a/b.c"))
	assert.True(t, set.Match("x.h"))
	assert.False(t, set.Match("x.cc"))
	assert.False(t, set.Match("Makefile"))
	assert.True(t, discovery.NewExtensionSet().Match("anything.txt"))
}

func TestListFiles(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	exts := discovery.NewExtensionSet(".c", ".h")

	files, err := discovery.ListFiles(fx.repo, fx.fixDH.String(), exts)
	require.NoError(t, err)
	assert.Equal(t, []string{"crypto/dh.c", "include/dh.h"}, files)

	files, err = discovery.ListFiles(fx.repo, fx.base.String(), exts)
	require.NoError(t, err)
	assert.Equal(t, []string{"crypto/dh.c", "crypto/rsa.c"}, files)

	files, err = discovery.ListFiles(fx.repo, fx.base.String(), discovery.NewExtensionSet(".md"))
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md"}, files)
}

func TestListFiles_UnknownCommit(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	_, err := discovery.ListFiles(fx.repo, "0123456789abcdef0123456789abcdef01234567", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, discovery.ErrUnknownCommit)
}

func TestFindCommits(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	refs, err := discovery.FindCommits(context.Background(), fx.repo, defaultPatterns(), time.Time{})
	require.NoError(t, err)

	got := make(map[string][]string)
	for _, ref := range refs {
		assert.Equal(t, discovery.SourceHistory, ref.Source)
		got[ref.Label] = append(got[ref.Label], ref.Hash)
	}

	assert.ElementsMatch(t, []string{fx.fixDH.String(), fx.fixRSA.String()}, got["CVE-2023-3446"])
	assert.Equal(t, []string{fx.fixRSA.String()}, got["CVE-2023-3817"])
	assert.Equal(t, []string{fx.cleanup.String()}, got["CVE-2023-5678"])
	assert.Len(t, refs, 4)
}

func TestFindCommits_SinceAndCase(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	// Commits are one hour apart starting at 13:00; only the last two are kept.
	since := time.Date(2024, time.January, 1, 15, 0, 0, 0, time.UTC)

	refs, err := discovery.FindCommits(context.Background(), fx.repo, defaultPatterns(), since)
	require.NoError(t, err)
	assert.Len(t, refs, 3)

	refs, err = discovery.FindCommits(context.Background(), fx.repo,
		[]discovery.Pattern{{Label: "lower", Text: "cve-2023"}}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestFindCommits_InvalidPattern(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	_, err := discovery.FindCommits(context.Background(), fx.repo,
		[]discovery.Pattern{{Label: "bad", Text: "("}}, time.Time{})
	require.Error(t, err)
	require.Error(t, discovery.CompilePatterns([]discovery.Pattern{{Label: "bad", Text: "["}}))
	require.NoError(t, discovery.CompilePatterns(defaultPatterns()))
}

func TestAggregator_RunMergesLabelsAndSkipsDeleted(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	var logs bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&logs, nil))
	recorder := &countingRecorder{}

	agg := discovery.NewAggregator(fx.repo, discovery.Config{
		Targets:    []discovery.Target{{Label: "manual", Commit: fx.fixDH.String()}},
		Patterns:   defaultPatterns(),
		Extensions: []string{".c", ".h"},
		Workers:    2,
	}, discovery.WithLogger(logger), discovery.WithRecorder(recorder))

	entries, err := agg.Run(context.Background())
	require.NoError(t, err)

	byPath := make(map[string]discovery.FileEntry)
	for _, entry := range entries {
		byPath[entry.Path] = entry
	}

	require.Len(t, byPath, 3)
	assert.Len(t, entries, 3)

	assert.Equal(t, []string{"CVE-2023-3446", "CVE-2023-3817", "manual"}, byPath["crypto/dh.c"].Labels)
	assert.Equal(t, linecount.Counts{Total: 3, Code: 2, Comment: 1}, byPath["crypto/dh.c"].Counts)
	assert.Equal(t, []string{"CVE-2023-3446", "manual"}, byPath["include/dh.h"].Labels)
	assert.Equal(t, []string{"CVE-2023-3446", "CVE-2023-3817"}, byPath["crypto/rsa.c"].Labels)
	assert.NotContains(t, byPath, "crypto/old.c")

	assert.Contains(t, logs.String(), "skipping path")
	assert.Contains(t, logs.String(), "crypto/old.c")
	assert.Contains(t, logs.String(), "CVE-2023-5678")
	assert.Contains(t, logs.String(), fx.cleanup.String())

	assert.Equal(t, 4, recorder.matched)
	assert.Equal(t, 3, recorder.profiled)
	assert.Equal(t, 1, recorder.skipped[discovery.SkipMissing])
}

func TestAggregator_UnknownExplicitCommitIsFatal(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	agg := discovery.NewAggregator(fx.repo, discovery.Config{
		Targets:    []discovery.Target{{Label: "CVE-0000-0000", Commit: "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"}},
		Patterns:   defaultPatterns(),
		Extensions: []string{".c", ".h"},
	})

	entries, err := agg.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, discovery.ErrUnknownCommit)
	assert.Nil(t, entries)
}

func TestAggregator_UnknownHistoryCommitIsSkipped(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	recorder := &countingRecorder{}

	agg := discovery.NewAggregator(fx.repo, discovery.Config{Extensions: []string{".c"}},
		discovery.WithRecorder(recorder))

	entries, err := agg.Aggregate(context.Background(), nil, []discovery.CommitRef{
		{Hash: "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", Label: "ghost", Source: discovery.SourceHistory},
		{Hash: fx.fixRSA.String(), Label: "real", Source: discovery.SourceHistory},
	})
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "crypto/dh.c", entries[0].Path)
	assert.Equal(t, "crypto/rsa.c", entries[1].Path)
	assert.Equal(t, 1, recorder.skipped[discovery.SkipUnknownCommit])
}

func TestAggregator_Idempotent(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	cfg := discovery.Config{Patterns: defaultPatterns(), Extensions: []string{".c", ".h"}, Workers: 8}

	first, err := discovery.NewAggregator(fx.repo, cfg).Run(context.Background())
	require.NoError(t, err)

	second, err := discovery.NewAggregator(fx.repo, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregator_CanceledContext(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := discovery.NewAggregator(fx.repo, discovery.Config{Patterns: defaultPatterns()}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
