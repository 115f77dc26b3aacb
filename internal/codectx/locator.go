package codectx

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Locator resolves file paths reported in tracebacks to files on disk.
// Traceback paths often come from other machines or containers, so an exact
// hit is tried first and the project tree is searched by basename as a
// fallback.
type Locator struct {
	root string
}

// NewLocator creates a Locator searching under root. An empty root means
// the current directory.
func NewLocator(root string) *Locator {
	if root == "" {
		root = "."
	}
	return &Locator{root: root}
}

// Root returns the search root.
func (l *Locator) Root() string {
	return l.root
}

// Find resolves hint to an existing path: the hint itself when it points at
// a file, otherwise the first file under the root whose basename matches.
// The walk order is lexical, so the match is deterministic. The boolean is
// false when nothing matches.
func (l *Locator) Find(hint string) (string, bool) {
	if hint == "" {
		return "", false
	}
	if info, err := os.Stat(hint); err == nil && !info.IsDir() {
		return hint, true
	}

	base := filepath.Base(hint)
	var found string
	// Walk errors on individual entries are skipped; an unreadable
	// subdirectory should not abort the search.
	_ = filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && d.Name() == base {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found, found != ""
}
