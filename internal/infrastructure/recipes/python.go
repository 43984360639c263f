package recipes

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Python runs pytest, installing the project with pip or poetry first.
type Python struct{}

// Ecosystem returns the ecosystem this recipe serves.
func (Python) Ecosystem() domain.Ecosystem { return domain.EcosystemPython }

// RequiredTool returns poetry for poetry projects, otherwise the interpreter
// of a pinned version or pytest.
func (Python) RequiredTool(p application.Project) string {
	switch {
	case p.Has("poetry.lock"):
		return "poetry"
	case p.Options.ToolVersion != "":
		return "python" + p.Options.ToolVersion
	default:
		return "pytest"
	}
}

// Check refuses to install into an interpreter outside a virtualenv.
func (Python) Check(p application.Project) error {
	if p.Options.AcceptNoVenv || InVirtualenv(p) {
		return nil
	}
	return fmt.Errorf("%w: python projects must run inside a virtualenv, use --accept-no-venv to override", domain.ErrPrecondition)
}

// Steps returns the install and test steps for the project shape.
func (py Python) Steps(p application.Project) []domain.Step {
	var steps []domain.Step
	pip := py.pip(p)

	if reqs := p.Listing.Glob("requirements*.txt"); len(reqs) > 0 {
		args := append([]string(nil), pip[1:]...)
		args = append(args, "install")
		for _, r := range reqs {
			args = append(args, "-r", r)
		}
		steps = append(steps, command("install-requirements", pip[0], args...))
	}

	poetry := p.Has("poetry.lock")
	switch {
	case poetry:
		steps = append(steps, withFallback(
			command("install", "poetry", "install", "--with=test"),
			command("install-without-groups", "poetry", "install"),
		))
	case p.Has("setup.py") || p.Has("setup.cfg") || DeclaresProject(p):
		steps = append(steps, withFallback(
			command("install", pip[0], append(pip[1:], "install", "--editable=.[develop,test]")...),
			command("install-without-extras", pip[0], append(pip[1:], "install", "--editable=.")...),
		))
	}

	switch {
	case poetry:
		steps = append(steps, command("test", "poetry", "run", "pytest"))
	case p.Options.ToolVersion != "":
		steps = append(steps, command("test", "python"+p.Options.ToolVersion, "-m", "pytest"))
	default:
		steps = append(steps, command("test", "pytest"))
	}
	return steps
}

func (Python) pip(p application.Project) []string {
	if v := p.Options.ToolVersion; v != "" {
		return []string{"python" + v, "-m", "pip"}
	}
	return []string{"pip"}
}

// InVirtualenv reports whether a virtualenv or conda environment is active.
func InVirtualenv(p application.Project) bool {
	return p.Getenv("VIRTUAL_ENV") != "" || p.Getenv("CONDA_PREFIX") != ""
}

// DeclaresProject reports whether pyproject.toml carries a [project] table.
// Files used only to configure tools do not, and installing them fails.
func DeclaresProject(p application.Project) bool {
	if !p.Has("pyproject.toml") {
		return false
	}
	data, err := p.ReadFile("pyproject.toml")
	if err != nil {
		return false
	}
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return strings.Contains(string(data), "[project]")
	}
	_, ok := doc["project"]
	return ok
}
