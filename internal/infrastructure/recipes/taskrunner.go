package recipes

import (
	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Task runs a go-task target, test by default.
type Task struct{}

func (Task) Ecosystem() domain.Ecosystem { return domain.EcosystemTask }

func (Task) RequiredTool(application.Project) string { return "task" }

func (Task) Check(application.Project) error { return nil }

func (Task) Steps(p application.Project) []domain.Step {
	return []domain.Step{command("test", "task", taskOr(p, "test"))}
}

// Just runs a just recipe, test by default.
type Just struct{}

func (Just) Ecosystem() domain.Ecosystem { return domain.EcosystemJust }

func (Just) RequiredTool(application.Project) string { return "just" }

func (Just) Check(application.Project) error { return nil }

func (Just) Steps(p application.Project) []domain.Step {
	return []domain.Step{command("test", "just", taskOr(p, "test"))}
}
