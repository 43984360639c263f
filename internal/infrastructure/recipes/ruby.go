package recipes

import (
	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Ruby installs the bundle and runs the rake test target.
type Ruby struct{}

func (Ruby) Ecosystem() domain.Ecosystem { return domain.EcosystemRuby }

func (Ruby) RequiredTool(application.Project) string { return "bundle" }

func (Ruby) Check(application.Project) error { return nil }

func (Ruby) Steps(p application.Project) []domain.Step {
	return []domain.Step{
		command("install", "bundle", "install"),
		command("test", "bundle", "exec", "rake", taskOr(p, "test")),
	}
}
