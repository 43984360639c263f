package recipes

import (
	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Rust builds and tests with cargo.
type Rust struct{}

func (Rust) Ecosystem() domain.Ecosystem { return domain.EcosystemRust }

func (Rust) RequiredTool(application.Project) string { return "cargo" }

func (Rust) Check(application.Project) error { return nil }

// Steps selects the rustup toolchain when a tool version is configured.
func (Rust) Steps(p application.Project) []domain.Step {
	cargo := func(name, sub string) domain.Step {
		if v := p.Options.ToolVersion; v != "" {
			return command(name, "cargo", "+"+v, sub)
		}
		return command(name, "cargo", sub)
	}
	return []domain.Step{cargo("build", "build"), cargo("test", "test")}
}
