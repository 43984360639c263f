// Package envprovider supplies the variables passed to child processes.
package envprovider

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DotEnvFile is read from every target directory when present.
const DotEnvFile = ".env"

// Provider collects variables from .env files and configuration without
// touching the runner's own environment. Later sources win: the target's
// .env file, then Files in order, then Vars.
type Provider struct {
	// Files are additional dotenv files. Relative paths resolve against the target.
	Files []string
	// Vars are literal variables from configuration.
	Vars map[string]string
}

// Environ returns the variables for target.
func (p Provider) Environ(target string) (map[string]string, error) {
	env := make(map[string]string)

	files := append([]string{DotEnvFile}, p.Files...)
	for i, name := range files {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(target, path)
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			// The implicit .env file is optional, configured files are not.
			if i == 0 && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		for k, v := range vars {
			env[k] = v
		}
	}

	for k, v := range p.Vars {
		env[k] = v
	}
	return env, nil
}
