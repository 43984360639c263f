package recipes

import (
	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Make runs the install and test targets of a Makefile. It is the fallback
// for directories no other recipe claims.
type Make struct{}

func (Make) Ecosystem() domain.Ecosystem { return domain.EcosystemMake }

func (Make) RequiredTool(application.Project) string { return "make" }

func (Make) Check(application.Project) error { return nil }

// Steps treats the install target as optional; many Makefiles lack one.
func (Make) Steps(p application.Project) []domain.Step {
	return []domain.Step{
		optional(command("install", "make", "install")),
		command("test", "make", taskOr(p, "test")),
	}
}
