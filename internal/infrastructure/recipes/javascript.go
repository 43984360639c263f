package recipes

import (
	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// JavaScript installs dependencies and runs the test script with the package
// manager whose lockfile is present.
type JavaScript struct{}

func (JavaScript) Ecosystem() domain.Ecosystem { return domain.EcosystemJavaScript }

// RequiredTool returns npm, yarn or pnpm.
func (JavaScript) RequiredTool(p application.Project) string {
	return PackageManager(p)
}

func (JavaScript) Check(application.Project) error { return nil }

func (JavaScript) Steps(p application.Project) []domain.Step {
	pm := PackageManager(p)
	var install domain.Step
	switch {
	case pm != "npm":
		install = command("install", pm, "install", "--frozen-lockfile")
	case p.Has("package-lock.json"):
		install = command("install", "npm", "ci")
	default:
		install = command("install", "npm", "install")
	}
	return []domain.Step{install, command("test", pm, "test")}
}

// PackageManager detects the package manager from the lockfile.
func PackageManager(p application.Project) string {
	switch {
	case p.Has("pnpm-lock.yaml"):
		return "pnpm"
	case p.Has("yarn.lock"):
		return "yarn"
	default:
		return "npm"
	}
}
