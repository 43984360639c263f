// Package fslist provides the directory listing used for classification.
package fslist

import (
	"fmt"
	"os"
	"path/filepath"
)

// Lister reads directories and files from the local filesystem.
// Listings are not recursive and symlinks are reported, not followed.
type Lister struct{}

// List returns the names of the entries directly inside dir.
// Directories carry a trailing slash.
func (Lister) List(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	return names, nil
}

// ReadFile returns the content of a file.
func (Lister) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- path is inside the target directory chosen by the user
	return os.ReadFile(filepath.Clean(path))
}
