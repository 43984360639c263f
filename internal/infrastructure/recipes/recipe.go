package recipes

import (
	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

func command(name, program string, args ...string) domain.Step {
	return domain.Step{Name: name, Program: program, Args: args}
}

func optional(s domain.Step) domain.Step {
	s.Optional = true
	return s
}

func withFallback(s, fallback domain.Step) domain.Step {
	s.Fallback = &fallback
	return s
}

func withEnv(s domain.Step, key, value string) domain.Step {
	env := make(map[string]string, len(s.Env)+1)
	for k, v := range s.Env {
		env[k] = v
	}
	env[key] = value
	s.Env = env
	return s
}

// taskOr returns the configured task name, or def.
func taskOr(p application.Project, def string) string {
	if p.Options.Task != "" {
		return p.Options.Task
	}
	return def
}
