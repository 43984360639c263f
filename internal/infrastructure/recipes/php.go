package recipes

import (
	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// PHP installs Composer dependencies and runs the test script from composer.json.
type PHP struct{}

func (PHP) Ecosystem() domain.Ecosystem { return domain.EcosystemPHP }

func (PHP) RequiredTool(application.Project) string { return "composer" }

func (PHP) Check(application.Project) error { return nil }

func (PHP) Steps(p application.Project) []domain.Step {
	return []domain.Step{
		command("install", "composer", "install"),
		command("test", "composer", "run", taskOr(p, "test")),
	}
}
