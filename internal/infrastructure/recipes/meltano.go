package recipes

import (
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Meltano installs the project plugins and runs a job.
type Meltano struct{}

func (Meltano) Ecosystem() domain.Ecosystem { return domain.EcosystemMeltano }

func (Meltano) RequiredTool(application.Project) string { return "meltano" }

func (Meltano) Check(application.Project) error { return nil }

// Steps runs the configured task, else the job named test, else the first
// declared job. Projects without jobs run the plugin tests.
func (Meltano) Steps(p application.Project) []domain.Step {
	steps := []domain.Step{command("install", "meltano", "install")}

	job := p.Options.Task
	if job == "" {
		job = defaultJob(MeltanoJobs(p))
	}
	if job == "" {
		return append(steps, command("test", "meltano", "test"))
	}
	return append(steps, command("test", "meltano", "run", job))
}

type meltanoProject struct {
	Jobs []struct {
		Name string `yaml:"name"`
	} `yaml:"jobs"`
}

// MeltanoJobs returns the job names declared in meltano.yml.
func MeltanoJobs(p application.Project) []string {
	data, err := p.ReadFile("meltano.yml")
	if err != nil {
		return nil
	}
	var project meltanoProject
	if err := yaml.Unmarshal(data, &project); err != nil {
		return nil
	}
	names := make([]string, 0, len(project.Jobs))
	for _, j := range project.Jobs {
		if j.Name != "" {
			names = append(names, j.Name)
		}
	}
	return names
}

func defaultJob(jobs []string) string {
	for _, j := range jobs {
		if j == "test" {
			return j
		}
	}
	if len(jobs) > 0 {
		return jobs[0]
	}
	return ""
}
