package recipes

import (
	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Java drives Maven or Gradle, preferring the project's wrapper scripts.
type Java struct{}

// Ecosystem returns the ecosystem this recipe serves.
func (Java) Ecosystem() domain.Ecosystem { return domain.EcosystemJava }

// RequiredTool returns the build tool the steps invoke first.
func (j Java) RequiredTool(p application.Project) string {
	if j.maven(p) {
		if p.Has("mvnw") {
			return "./mvnw"
		}
		return "mvn"
	}
	if p.Has("gradlew") {
		return "./gradlew"
	}
	return "gradle"
}

// Check has no preconditions.
func (Java) Check(application.Project) error { return nil }

// Steps returns the info, install and test steps.
func (j Java) Steps(p application.Project) []domain.Step {
	steps := []domain.Step{optional(command("info", "java", "-version"))}

	if j.maven(p) {
		mvn := j.RequiredTool(p)
		steps = append(steps, command("install", mvn, "-B", "install", "-DskipTests"))
		steps = append(steps, j.test(p, command("test", mvn, "-B", "test")))
		return steps
	}

	if !p.Has("gradlew") || p.Options.WrapperRegenerate {
		steps = append(steps, optional(command("wrapper", "gradle", "wrapper")))
	}
	return append(steps, j.test(p, command("test", "./gradlew", "check")))
}

func (Java) maven(p application.Project) bool {
	return p.Has("pom.xml")
}

func (Java) test(p application.Project, def domain.Step) domain.Step {
	if p.Listing.HasMakefile() {
		return command("test", "make", "test")
	}
	return def
}
