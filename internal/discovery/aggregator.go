package discovery

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/docgap/pkg/gitlib"
	"github.com/Sumatoshi-tech/docgap/pkg/linecount"
)

const (
	tracerName     = "docgap"
	defaultWorkers = 4
)

// Skip reasons reported to the Recorder.
const (
	SkipMissing       = "missing"
	SkipUnreadable    = "unreadable"
	SkipUnknownCommit = "unknown_commit"
)

// Target is an explicitly configured commit.
type Target struct {
	Label  string `json:"label"  mapstructure:"label"  yaml:"label"`
	Commit string `json:"commit" mapstructure:"commit" yaml:"commit"`
}

// Config is the immutable discovery input.
type Config struct {
	Targets    []Target
	Patterns   []Pattern
	Since      time.Time
	Extensions []string
	Workers    int
}

// FileEntry is one profiled file with every label it was discovered under.
// Labels are sorted and distinct.
type FileEntry struct {
	Path   string
	Counts linecount.Counts
	Labels []string
}

// Recorder receives pipeline counters. Implementations must be safe for
// concurrent use.
type Recorder interface {
	CommitsMatched(ctx context.Context, n int)
	FileProfiled(ctx context.Context, elapsed time.Duration)
	PathSkipped(ctx context.Context, reason string)
}

type nopRecorder struct{}

func (nopRecorder) CommitsMatched(context.Context, int)         {}
func (nopRecorder) FileProfiled(context.Context, time.Duration) {}
func (nopRecorder) PathSkipped(context.Context, string)         {}

// Aggregator resolves commits to files, merges labels per path and
// profiles each distinct path once.
type Aggregator struct {
	repo     *gitlib.Repository
	cfg      Config
	exts     ExtensionSet
	logger   *slog.Logger
	tracer   trace.Tracer
	recorder Recorder
	profiler *linecount.Profiler
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger for skipped commits and paths.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithTracer sets the tracer. Without it the global provider is used.
func WithTracer(tracer trace.Tracer) Option {
	return func(a *Aggregator) {
		if tracer != nil {
			a.tracer = tracer
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(a *Aggregator) {
		if recorder != nil {
			a.recorder = recorder
		}
	}
}

// WithProfiler replaces the default line profiler.
func WithProfiler(profiler *linecount.Profiler) Option {
	return func(a *Aggregator) {
		if profiler != nil {
			a.profiler = profiler
		}
	}
}

// NewAggregator creates an Aggregator over repo.
func NewAggregator(repo *gitlib.Repository, cfg Config, opts ...Option) *Aggregator {
	a := &Aggregator{
		repo:     repo,
		cfg:      cfg,
		exts:     NewExtensionSet(cfg.Extensions...),
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.tracer == nil {
		a.tracer = otel.Tracer(tracerName)
	}

	if a.profiler == nil {
		a.profiler = linecount.NewProfiler(linecount.WithLogger(a.logger))
	}

	return a
}

// Run searches history for the configured patterns and aggregates the
// matches together with the explicit targets.
func (a *Aggregator) Run(ctx context.Context) ([]FileEntry, error) {
	ctx, span := a.tracer.Start(ctx, "docgap.discovery.run")
	defer span.End()

	found, err := a.findCommits(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	explicit := make([]CommitRef, 0, len(a.cfg.Targets))
	for _, target := range a.cfg.Targets {
		explicit = append(explicit, CommitRef{Hash: target.Commit, Label: target.Label, Source: SourceExplicit})
	}

	entries, err := a.Aggregate(ctx, explicit, found)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(attribute.Int("docgap.files", len(entries)))

	return entries, nil
}

func (a *Aggregator) findCommits(ctx context.Context) ([]CommitRef, error) {
	ctx, span := a.tracer.Start(ctx, "docgap.discovery.find_commits")
	defer span.End()

	found, err := FindCommits(ctx, a.repo, a.cfg.Patterns, a.cfg.Since)
	if err != nil {
		return nil, err
	}

	a.recorder.CommitsMatched(ctx, len(found))
	span.SetAttributes(attribute.Int("docgap.commits.matched", len(found)))
	a.logger.InfoContext(ctx, "history searched",
		slog.Int("patterns", len(a.cfg.Patterns)), slog.Int("matches", len(found)))

	return found, nil
}

// Aggregate lists the files of every reference, merges labels per path and
// profiles each path once from the working tree. An explicit reference that
// does not resolve fails the whole run; an unresolved history reference is
// skipped. Paths that cannot be read are logged and left out.
func (a *Aggregator) Aggregate(ctx context.Context, explicit, found []CommitRef) ([]FileEntry, error) {
	labels := make(map[string]map[string]struct{})
	origin := make(map[string]CommitRef)

	refs := make([]CommitRef, 0, len(explicit)+len(found))
	refs = append(refs, explicit...)
	refs = append(refs, found...)

	for _, ref := range refs {
		files, err := ListFiles(a.repo, ref.Hash, a.exts)
		if err != nil {
			if ref.Source == SourceExplicit {
				return nil, err
			}

			a.recorder.PathSkipped(ctx, SkipUnknownCommit)
			a.logger.WarnContext(ctx, "skipping commit",
				slog.String("commit", ref.Hash), slog.String("label", ref.Label), slog.Any("error", err))

			continue
		}

		for _, name := range files {
			set, ok := labels[name]
			if !ok {
				set = make(map[string]struct{})
				labels[name] = set
				origin[name] = ref
			}

			set[ref.Label] = struct{}{}
		}
	}

	paths := make([]string, 0, len(labels))
	for name := range labels {
		paths = append(paths, name)
	}

	sort.Strings(paths)

	counts, err := a.profileAll(ctx, paths, origin)
	if err != nil {
		return nil, err
	}

	entries := make([]FileEntry, 0, len(counts))

	for _, name := range paths {
		c, ok := counts[name]
		if !ok {
			continue
		}

		entries = append(entries, FileEntry{Path: name, Counts: c, Labels: sortedKeys(labels[name])})
	}

	return entries, nil
}

// profileAll profiles paths with a bounded worker pool. Only successfully
// profiled paths appear in the result.
func (a *Aggregator) profileAll(
	ctx context.Context, paths []string, origin map[string]CommitRef,
) (map[string]linecount.Counts, error) {
	ctx, span := a.tracer.Start(ctx, "docgap.discovery.profile",
		trace.WithAttributes(attribute.Int("docgap.paths", len(paths))))
	defer span.End()

	workers := a.cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	if workers > len(paths) {
		workers = len(paths)
	}

	root := a.repo.WorkDir()
	jobs := make(chan string)
	results := make(map[string]linecount.Counts, len(paths))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for name := range jobs {
				start := time.Now()

				c, err := a.profiler.ProfileFile(ctx, filepath.Join(root, filepath.FromSlash(name)))
				if err != nil {
					a.skipPath(ctx, name, origin[name], err)

					continue
				}

				a.recorder.FileProfiled(ctx, time.Since(start))

				mu.Lock()
				results[name] = c
				mu.Unlock()
			}
		}()
	}

feed:
	for _, name := range paths {
		select {
		case jobs <- name:
		case <-ctx.Done():
			break feed
		}
	}

	close(jobs)
	wg.Wait()

	ctxErr := ctx.Err()
	if ctxErr != nil {
		return nil, ctxErr
	}

	span.SetAttributes(attribute.Int("docgap.files.profiled", len(results)))

	return results, nil
}

func (a *Aggregator) skipPath(ctx context.Context, name string, ref CommitRef, err error) {
	reason := SkipUnreadable
	if errors.Is(err, fs.ErrNotExist) {
		reason = SkipMissing
	}

	a.recorder.PathSkipped(ctx, reason)
	a.logger.InfoContext(ctx, "skipping path",
		slog.String("path", name),
		slog.String("reason", reason),
		slog.String("label", ref.Label),
		slog.String("commit", ref.Hash),
		slog.String("source", string(ref.Source)),
		slog.Any("error", err),
	)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}

	sort.Strings(out)

	return out
}
