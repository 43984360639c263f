package procexec

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Resolver locates executables. Names containing a path separator are
// resolved relative to the step directory, everything else through PATH.
// A PATH in the provided environment replaces the runner's own.
type Resolver struct{}

// LookPath resolves tool for a step running in dir with env overlaid on the
// runner's environment.
func (Resolver) LookPath(dir, tool string, env map[string]string) (string, error) {
	if tool == "" {
		return "", fmt.Errorf("empty program: %w", domain.ErrExecutableNotFound)
	}
	if !strings.ContainsAny(tool, `/\`) {
		if list, ok := envPath(env); ok {
			return searchPath(tool, list)
		}
		path, err := exec.LookPath(tool)
		if err != nil {
			return "", fmt.Errorf("%s: %w", tool, domain.ErrExecutableNotFound)
		}
		return path, nil
	}

	path := tool
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	if found, ok := executable(path); ok {
		return found, nil
	}
	return "", fmt.Errorf("%s: %w", tool, domain.ErrExecutableNotFound)
}

// searchPath looks for tool in every directory of a PATH list.
func searchPath(tool, list string) (string, error) {
	for _, dir := range filepath.SplitList(list) {
		if dir == "" {
			continue
		}
		if found, ok := executable(filepath.Join(dir, tool)); ok {
			return found, nil
		}
	}
	return "", fmt.Errorf("%s: %w", tool, domain.ErrExecutableNotFound)
}

// envPath returns the PATH entry of env. Windows keys are case-insensitive.
func envPath(env map[string]string) (string, bool) {
	if v, ok := env["PATH"]; ok {
		return v, true
	}
	if runtime.GOOS != "windows" {
		return "", false
	}
	for k, v := range env {
		if strings.EqualFold(k, "PATH") {
			return v, true
		}
	}
	return "", false
}

func executable(path string) (string, bool) {
	for _, candidate := range candidates(path) {
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() && isExecutable(info) {
			return candidate, true
		}
	}
	return "", false
}

func candidates(path string) []string {
	if runtime.GOOS != "windows" || filepath.Ext(path) != "" {
		return []string{path}
	}
	return []string{path, path + ".bat", path + ".cmd", path + ".exe"}
}

func isExecutable(info os.FileInfo) bool {
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
