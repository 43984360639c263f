// Package pathutil provides utilities for safe path handling.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPath    = errors.New("path is empty")
	ErrNullBytes    = errors.New("path contains null bytes")
	ErrNotDirectory = errors.New("not a directory")
)

// ValidatePath cleans path and resolves symlinks.
// Returns ErrEmptyPath if path is empty, ErrNullBytes if path contains null bytes.
// Paths that do not exist yet are returned cleaned.
func ValidatePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if strings.Contains(path, "\x00") {
		return "", ErrNullBytes
	}

	cleaned := filepath.Clean(path)
	realPath, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		return cleaned, nil
	}
	return realPath, nil
}

// ValidateTarget returns the absolute, symlink-resolved form of a test target.
// The target must exist and be a directory.
func ValidateTarget(path string) (string, error) {
	cleaned, err := ValidatePath(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	return abs, nil
}
