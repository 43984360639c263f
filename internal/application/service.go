package application

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Service dispatches targets. It holds only read-only collaborators, so one
// Service can serve concurrent dispatches.
type Service struct {
	FS       FileSystem
	Matcher  Matcher
	Registry RecipeRegistry
	Prober   ToolProber
	Executor StepExecutor
	Env      EnvProvider
	Sink     EventSink
}

func (s *Service) newDispatcher(opts domain.Options) *Dispatcher {
	d := NewDispatcher(s.FS, s.Matcher, s.Registry, s.Prober, s.Executor)
	d.Env = s.Env
	d.Sink = s.Sink
	d.Options = opts
	return d
}

// Test dispatches every target and returns the outcomes in target order.
// Targets are tested concurrently up to Config.Parallel at a time.
func (s *Service) Test(ctx context.Context, opts TestOptions) ([]domain.DispatchOutcome, error) {
	if len(opts.Targets) == 0 {
		return nil, fmt.Errorf("no target given")
	}

	outcomes := make([]domain.DispatchOutcome, len(opts.Targets))
	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Config.Parallel
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, target := range opts.Targets {
		g.Go(func() error {
			outcomes[i] = s.newDispatcher(opts.Config.Options).Dispatch(gctx, target)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// Detect reports the candidates, selection and planned steps for a target
// without running any step.
func (s *Service) Detect(ctx context.Context, opts DetectOptions) (DetectResult, error) {
	if opts.Target == "" {
		return DetectResult{}, fmt.Errorf("no target given")
	}
	return s.newDispatcher(opts.Config.Options).Plan(ctx, opts.Target), nil
}

// Ecosystems returns the supported ecosystems in registry order.
func (s *Service) Ecosystems() []domain.Ecosystem {
	return s.Registry.Ecosystems()
}
