package recipes

import (
	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Elixir installs hex and the project dependencies, then runs mix test.
type Elixir struct{}

func (Elixir) Ecosystem() domain.Ecosystem { return domain.EcosystemElixir }

func (Elixir) RequiredTool(application.Project) string { return "mix" }

func (Elixir) Check(application.Project) error { return nil }

func (Elixir) Steps(application.Project) []domain.Step {
	return []domain.Step{
		optional(command("install-hex", "mix", "local.hex", "--force", "--if-missing")),
		command("install", "mix", "deps.get"),
		command("test", "mix", "test", "--trace"),
	}
}
