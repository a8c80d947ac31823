package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// Tree wraps a libgit2 tree.
type Tree struct {
	tree *git2go.Tree
}

// Hash returns the tree hash.
func (t *Tree) Hash() Hash {
	return HashFromOid(t.tree.Id())
}

// Files walks the tree recursively and returns one entry per blob, keyed by
// its slash-separated path from the tree root, in walk order.
func (t *Tree) Files() ([]ChangeEntry, error) {
	var files []ChangeEntry

	err := t.tree.Walk(func(dir string, entry *git2go.TreeEntry) error {
		if entry.Type == git2go.ObjectBlob {
			files = append(files, ChangeEntry{Name: dir + entry.Name, Hash: HashFromOid(entry.Id)})
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk tree %s: %w", t.Hash(), err)
	}

	return files, nil
}

// Free releases the tree resources.
func (t *Tree) Free() {
	if t.tree != nil {
		t.tree.Free()
		t.tree = nil
	}
}
