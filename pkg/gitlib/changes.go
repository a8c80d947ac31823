package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ChangeAction represents the type of change in a diff.
type ChangeAction int

const (
	// Insert indicates a new file was added.
	Insert ChangeAction = iota
	// Delete indicates a file was removed.
	Delete
	// Modify indicates a file was modified.
	Modify
)

// String returns the lower-case name of the action.
func (a ChangeAction) String() string {
	switch a {
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	default:
		return "modify"
	}
}

// Change represents a single file change between two trees.
type Change struct {
	Action ChangeAction
	From   ChangeEntry
	To     ChangeEntry
}

// Paths returns the distinct non-empty paths the change touches.
func (c *Change) Paths() []string {
	switch {
	case c.From.Name == "":
		return []string{c.To.Name}
	case c.To.Name == "" || c.To.Name == c.From.Name:
		return []string{c.From.Name}
	default:
		return []string{c.From.Name, c.To.Name}
	}
}

// ChangeEntry represents one side of a change (old or new file).
type ChangeEntry struct {
	Name string
	Hash Hash
}

// Changes is a collection of Change objects.
type Changes []*Change

// TreeDiff computes the changes between two trees using libgit2.
// Skips diff when both tree OIDs are equal (e.g. metadata-only commits).
func TreeDiff(repo *Repository, oldTree, newTree *Tree) (Changes, error) {
	if oldTree != nil && newTree != nil && oldTree.Hash() == newTree.Hash() {
		return make(Changes, 0), nil
	}

	diff, err := repo.DiffTreeToTree(oldTree, newTree)
	if err != nil {
		return nil, err
	}
	defer diff.Free()

	numDeltas, err := diff.NumDeltas()
	if err != nil {
		return nil, fmt.Errorf("get num deltas: %w", err)
	}

	changes := make(Changes, 0, numDeltas)

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			return nil, fmt.Errorf("get delta %d: %w", i, deltaErr)
		}

		change := &Change{}

		switch delta.Status {
		case git2go.DeltaAdded:
			change.Action = Insert
			change.To = entryFromDiffFile(delta.NewFile)
		case git2go.DeltaDeleted:
			change.Action = Delete
			change.From = entryFromDiffFile(delta.OldFile)
		case git2go.DeltaModified, git2go.DeltaRenamed, git2go.DeltaCopied, git2go.DeltaTypeChange:
			change.Action = Modify
			change.From = entryFromDiffFile(delta.OldFile)
			change.To = entryFromDiffFile(delta.NewFile)
		case git2go.DeltaUnmodified, git2go.DeltaIgnored, git2go.DeltaUntracked,
			git2go.DeltaUnreadable, git2go.DeltaConflicted:
			continue
		}

		changes = append(changes, change)
	}

	return changes, nil
}

func entryFromDiffFile(file git2go.DiffFile) ChangeEntry {
	return ChangeEntry{Name: file.Path, Hash: HashFromOid(file.Oid)}
}

// InitialTreeChanges reports every file of a root commit's tree as inserted.
func InitialTreeChanges(tree *Tree) (Changes, error) {
	if tree == nil {
		return nil, nil
	}

	files, err := tree.Files()
	if err != nil {
		return nil, err
	}

	changes := make(Changes, 0, len(files))
	for _, file := range files {
		changes = append(changes, &Change{Action: Insert, To: file})
	}

	return changes, nil
}
