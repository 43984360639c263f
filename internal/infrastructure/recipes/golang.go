package recipes

import (
	"strings"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Golang builds and tests every package of the module.
type Golang struct{}

func (Golang) Ecosystem() domain.Ecosystem { return domain.EcosystemGolang }

func (Golang) RequiredTool(application.Project) string { return "go" }

func (Golang) Check(application.Project) error { return nil }

// Steps pins GOTOOLCHAIN when a tool version is configured.
func (Golang) Steps(p application.Project) []domain.Step {
	steps := []domain.Step{
		command("build", "go", "build", "./..."),
		command("test", "go", "test", "-v", "./..."),
	}
	if v := p.Options.ToolVersion; v != "" {
		if !strings.HasPrefix(v, "go") {
			v = "go" + v
		}
		for i := range steps {
			steps[i] = withEnv(steps[i], "GOTOOLCHAIN", v)
		}
	}
	return steps
}
