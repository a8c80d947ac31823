package discovery

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/Sumatoshi-tech/docgap/pkg/gitlib"
)

// Pattern is a commit message search. Text is a case-sensitive regular
// expression; every match is tagged with Label.
type Pattern struct {
	Label string `json:"label" mapstructure:"label" yaml:"label"`
	Text  string `json:"text"  mapstructure:"text"  yaml:"text"`
}

// Source tells where a commit reference came from.
type Source string

const (
	// SourceExplicit marks references from the configured commit list.
	SourceExplicit Source = "explicit"
	// SourceHistory marks references found by searching commit messages.
	SourceHistory Source = "history"
)

// CommitRef is a commit reference with the label it was discovered under.
type CommitRef struct {
	Hash   string
	Label  string
	Source Source
}

type compiledPattern struct {
	label string
	re    *regexp.Regexp
}

// CompilePatterns validates that every pattern text is a regular expression.
func CompilePatterns(patterns []Pattern) error {
	_, err := compilePatterns(patterns)

	return err
}

func compilePatterns(patterns []Pattern) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p.Text)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q for %s: %w", p.Text, p.Label, err)
		}

		compiled = append(compiled, compiledPattern{label: p.Label, re: re})
	}

	return compiled, nil
}

// FindCommits walks history from HEAD back to since and returns one
// reference per (commit, pattern) match. A zero since walks the whole
// history. The order of the result is not significant.
func FindCommits(ctx context.Context, repo *gitlib.Repository, patterns []Pattern, since time.Time) ([]CommitRef, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	compiled, err := compilePatterns(patterns)
	if err != nil {
		return nil, err
	}

	opts := &gitlib.LogOptions{}
	if !since.IsZero() {
		opts.Since = &since
	}

	iter, err := repo.Log(opts)
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}
	defer iter.Close()

	var refs []CommitRef

	err = iter.ForEach(func(commit *gitlib.Commit) error {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return ctxErr
		}

		message := commit.Message()

		for _, p := range compiled {
			if p.re.MatchString(message) {
				refs = append(refs, CommitRef{
					Hash:   commit.Hash().String(),
					Label:  p.label,
					Source: SourceHistory,
				})
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search commit messages: %w", err)
	}

	return refs, nil
}
