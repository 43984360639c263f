package recipes

import (
	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Julia builds and tests the package in the project environment.
type Julia struct{}

func (Julia) Ecosystem() domain.Ecosystem { return domain.EcosystemJulia }

func (Julia) RequiredTool(application.Project) string { return "julia" }

func (Julia) Check(application.Project) error { return nil }

// Steps selects the juliaup channel when a tool version is configured.
func (Julia) Steps(p application.Project) []domain.Step {
	pkg := func(name, call string) domain.Step {
		var args []string
		if v := p.Options.ToolVersion; v != "" {
			args = append(args, "+"+v)
		}
		args = append(args, "--project=.", "--depwarn=error", "--eval=using Pkg; Pkg."+call+"()")
		return command(name, "julia", args...)
	}
	return []domain.Step{pkg("build", "build"), pkg("test", "test")}
}
