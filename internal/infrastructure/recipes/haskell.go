package recipes

import (
	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Haskell builds and tests with stack.
type Haskell struct{}

func (Haskell) Ecosystem() domain.Ecosystem { return domain.EcosystemHaskell }

func (Haskell) RequiredTool(application.Project) string { return "stack" }

func (Haskell) Check(application.Project) error { return nil }

func (Haskell) Steps(application.Project) []domain.Step {
	return []domain.Step{
		command("build", "stack", "build"),
		command("test", "stack", "test"),
	}
}
