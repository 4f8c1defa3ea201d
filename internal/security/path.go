// Package security validates externally supplied knowledge-base folder
// paths. The HTTP API accepts folder paths from clients; without a root
// allow-list a client could point the indexer at arbitrary directories
// (CWE-22).
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Folder restricts knowledge-base folders to a set of allowed root
// directories.
type Folder struct {
	roots []string
}

// NewFolder creates a validator for the given roots. An empty list means
// every folder is allowed, which is the right default for the local CLI.
func NewFolder(roots []string) (*Folder, error) {
	absRoots := make([]string, 0, len(roots))
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", root, err)
		}
		absRoots = append(absRoots, abs)
	}
	return &Folder{roots: absRoots}, nil
}

// Validate cleans the folder path and checks it against the allowed roots,
// following symlinks so a link inside a root cannot escape it. It returns
// the resolved absolute path.
func (f *Folder) Validate(folder string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(folder))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if len(f.roots) == 0 {
		return abs, nil
	}

	if !f.within(abs) {
		return "", fmt.Errorf("access denied: %s is outside the allowed knowledge-base roots", abs)
	}

	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", fmt.Errorf("resolve symlinks: %w", err)
	}
	if real != abs && !f.within(real) {
		return "", fmt.Errorf("access denied: %s resolves outside the allowed knowledge-base roots", folder)
	}
	return real, nil
}

func (f *Folder) within(path string) bool {
	withSep := filepath.Clean(path) + string(filepath.Separator)
	for _, root := range f.roots {
		if path == root || strings.HasPrefix(withSep, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
