// Package discovery finds the files touched by security-relevant commits
// and profiles their comment coverage.
package discovery

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/docgap/pkg/gitlib"
)

var (
	// ErrRepositoryNotFound is returned when the repository path does not
	// hold a usable git working tree.
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrUnknownCommit is returned when a commit reference does not resolve.
	ErrUnknownCommit = errors.New("unknown commit")
)

// OpenRepository opens the working tree at repoPath for discovery.
func OpenRepository(repoPath string) (*gitlib.Repository, error) {
	repo, err := gitlib.LoadRepository(repoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRepositoryNotFound, repoPath, err)
	}

	return repo, nil
}

// ExtensionSet is a set of file extensions including the leading dot.
type ExtensionSet map[string]struct{}

// NewExtensionSet builds an ExtensionSet. A missing leading dot is added.
func NewExtensionSet(exts ...string) ExtensionSet {
	set := make(ExtensionSet, len(exts))

	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}

		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		set[ext] = struct{}{}
	}

	return set
}

// Match reports whether the file name carries one of the extensions.
// An empty set matches every file.
func (s ExtensionSet) Match(name string) bool {
	if len(s) == 0 {
		return true
	}

	_, ok := s[path.Ext(name)]

	return ok
}

// Sorted returns the extensions in lexical order.
func (s ExtensionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for ext := range s {
		out = append(out, ext)
	}

	sort.Strings(out)

	return out
}

// ListFiles returns the repository-relative paths that the commit named by
// ref changed, restricted to exts and sorted. Deleted files are included.
func ListFiles(repo *gitlib.Repository, ref string, exts ExtensionSet) ([]string, error) {
	commit, err := repo.ResolveCommit(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnknownCommit, ref, err)
	}
	defer commit.Free()

	changes, err := commit.Changes()
	if err != nil {
		return nil, fmt.Errorf("list changes of %s: %w", ref, err)
	}

	seen := make(map[string]struct{})

	for _, change := range changes {
		for _, name := range change.Paths() {
			if exts.Match(name) {
				seen[name] = struct{}{}
			}
		}
	}

	files := make([]string, 0, len(seen))
	for name := range seen {
		files = append(files, name)
	}

	sort.Strings(files)

	return files, nil
}
