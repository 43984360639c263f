package application

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Dispatcher runs one target directory through
// Matching → Selecting → Executing → Done.
//
// A Dispatcher is single-use: create one per target. Independent dispatchers
// may run concurrently; they share only the read-only matcher and registry.
type Dispatcher struct {
	FS       FileSystem
	Matcher  Matcher
	Registry RecipeRegistry
	Prober   ToolProber
	Executor StepExecutor
	Env      EnvProvider
	Sink     EventSink
	Options  domain.Options

	id    string
	state domain.State
}

// selection is the product of the Selecting state.
type selection struct {
	project    Project
	candidates []domain.Ecosystem
	recipe     Recipe
	tool       string
	fallback   bool
	missing    []domain.ToolMissingError
}

// NewDispatcher creates a dispatcher with a fresh dispatch id.
func NewDispatcher(fs FileSystem, matcher Matcher, registry RecipeRegistry, prober ToolProber, executor StepExecutor) *Dispatcher {
	return &Dispatcher{
		FS:       fs,
		Matcher:  matcher,
		Registry: registry,
		Prober:   prober,
		Executor: executor,
	}
}

// ID returns the dispatch id, assigned on first use.
func (d *Dispatcher) ID() string {
	if d.id == "" {
		d.id = uuid.NewString()
	}
	return d.id
}

// State returns the current state.
func (d *Dispatcher) State() domain.State {
	return d.state
}

// Dispatch tests the target directory and returns its outcome. Failures are
// reported through the outcome, never as a Go error.
func (d *Dispatcher) Dispatch(ctx context.Context, target string) domain.DispatchOutcome {
	start := time.Now()
	if d.state != domain.StateIdle {
		return domain.DispatchOutcome{
			ID:      d.ID(),
			Target:  target,
			Verdict: domain.VerdictFailure,
			Err:     domain.ErrDispatcherReused,
		}
	}

	sel, verdict, err := d.selectRecipe(ctx, target)
	var results []domain.ExecutionResult
	if err == nil {
		results, verdict, err = d.execute(ctx, sel)
	}

	outcome := domain.DispatchOutcome{
		ID:         d.ID(),
		Target:     sel.project.Dir,
		Candidates: sel.candidates,
		Fallback:   sel.fallback,
		Missing:    sel.missing,
		Results:    results,
		Verdict:    verdict,
		Err:        err,
		Duration:   time.Since(start),
	}
	if outcome.Target == "" {
		outcome.Target = target
	}
	if sel.recipe != nil {
		outcome.Ecosystem = sel.recipe.Ecosystem()
	}
	d.transition(domain.StateDone)
	d.emit(domain.DispatchFinishedEvent{
		BaseEvent: domain.NewBaseEvent(d.ID()),
		Target:    outcome.Target,
		Ecosystem: outcome.Ecosystem,
		Verdict:   outcome.Verdict,
		Duration:  outcome.Duration,
		Err:       outcome.Err,
	})
	return outcome
}

// Plan runs Matching and Selecting only and reports the steps that would run.
func (d *Dispatcher) Plan(ctx context.Context, target string) DetectResult {
	if d.state != domain.StateIdle {
		return DetectResult{Target: target, Err: domain.ErrDispatcherReused}
	}
	sel, _, err := d.selectRecipe(ctx, target)
	d.transition(domain.StateDone)
	res := DetectResult{
		Target:     sel.project.Dir,
		Candidates: sel.candidates,
		Fallback:   sel.fallback,
		Tool:       sel.tool,
		Missing:    sel.missing,
		Err:        err,
	}
	if res.Target == "" {
		res.Target = target
	}
	if sel.recipe != nil {
		res.Selected = sel.recipe.Ecosystem()
		res.Steps = sel.recipe.Steps(sel.project)
	}
	return res
}

func (d *Dispatcher) selectRecipe(ctx context.Context, target string) (selection, domain.Verdict, error) {
	var sel selection

	d.transition(domain.StateMatching)
	project, err := d.loadProject(target)
	if err != nil {
		return sel, domain.VerdictFailure, err
	}
	sel.project = project
	sel.candidates = d.Matcher.Match(project.Listing)
	d.emit(domain.CandidatesMatchedEvent{
		BaseEvent:  domain.NewBaseEvent(d.ID()),
		Target:     project.Dir,
		Candidates: sel.candidates,
	})

	d.transition(domain.StateSelecting)
	for _, candidate := range sel.candidates {
		if err := ctx.Err(); err != nil {
			return sel, domain.VerdictFailure, interrupted(err)
		}
		recipe, err := d.Registry.Lookup(candidate)
		if err != nil {
			return sel, domain.VerdictFailure, err
		}
		tool := recipe.RequiredTool(project)
		if !d.resolvable(project, tool) {
			sel.missing = append(sel.missing, domain.ToolMissingError{Ecosystem: candidate, Tool: tool})
			d.emit(domain.CandidateSkippedEvent{BaseEvent: domain.NewBaseEvent(d.ID()), Ecosystem: candidate, Tool: tool})
			continue
		}
		sel.recipe, sel.tool = recipe, tool
		d.emit(domain.EcosystemSelectedEvent{BaseEvent: domain.NewBaseEvent(d.ID()), Ecosystem: candidate, Tool: tool})
		return sel, "", nil
	}

	if project.Listing.HasMakefile() {
		recipe := d.Registry.Fallback()
		tool := recipe.RequiredTool(project)
		if d.resolvable(project, tool) {
			sel.recipe, sel.tool, sel.fallback = recipe, tool, true
			d.emit(domain.EcosystemSelectedEvent{BaseEvent: domain.NewBaseEvent(d.ID()), Ecosystem: recipe.Ecosystem(), Tool: tool, Fallback: true})
			return sel, "", nil
		}
		sel.missing = append(sel.missing, domain.ToolMissingError{Ecosystem: recipe.Ecosystem(), Tool: tool})
		d.emit(domain.CandidateSkippedEvent{BaseEvent: domain.NewBaseEvent(d.ID()), Ecosystem: recipe.Ecosystem(), Tool: tool})
	}

	if len(sel.missing) > 0 {
		return sel, domain.VerdictUnsupported, fmt.Errorf("%w: %w", domain.ErrUnsupportedProject, errors.Join(toolErrors(sel.missing)...))
	}
	return sel, domain.VerdictUnsupported, fmt.Errorf("%w: no ecosystem markers in %s", domain.ErrUnsupportedProject, project.Dir)
}

func (d *Dispatcher) execute(ctx context.Context, sel selection) ([]domain.ExecutionResult, domain.Verdict, error) {
	d.transition(domain.StateExecuting)
	if err := sel.recipe.Check(sel.project); err != nil {
		return nil, domain.VerdictFailure, err
	}

	var results []domain.ExecutionResult
	ecosystem := sel.recipe.Ecosystem()
	for _, step := range sel.recipe.Steps(sel.project) {
		if err := ctx.Err(); err != nil {
			return results, domain.VerdictFailure, interrupted(err)
		}
		res := d.runStep(ctx, ecosystem, sel.project, step)
		if !res.Succeeded() && step.Fallback != nil && !isTerminal(res.Err) {
			res.Recovered = true
			results = append(results, res)
			fb := *step.Fallback
			fb.Optional = step.Optional
			res = d.runStep(ctx, ecosystem, sel.project, fb)
		}
		results = append(results, res)
		if res.Succeeded() {
			continue
		}
		switch {
		case isTerminal(res.Err):
			return results, domain.VerdictFailure, res.Err
		case step.Optional:
			continue
		case errors.Is(res.Err, domain.ErrExecutableNotFound):
			return results, domain.VerdictFailure, fmt.Errorf("step %q: %w", res.Step, res.Err)
		default:
			return results, domain.VerdictFailure, res.Err
		}
	}
	return results, domain.VerdictSuccess, nil
}

func (d *Dispatcher) runStep(ctx context.Context, ecosystem domain.Ecosystem, project Project, step domain.Step) domain.ExecutionResult {
	dir := project.Dir
	if step.Dir != "" {
		dir = filepath.Join(project.Dir, step.Dir)
	}
	d.emit(domain.StepStartedEvent{
		BaseEvent: domain.NewBaseEvent(d.ID()),
		Ecosystem: ecosystem,
		Step:      step.Name,
		Command:   step.CommandLine(),
		Dir:       dir,
	})
	res := d.Executor.Run(ctx, step, dir, project.Env)
	res.Ecosystem = ecosystem
	res.Optional = step.Optional
	if res.Err == nil && res.ExitCode != 0 {
		res.Err = &domain.StepError{Step: step.Name, ExitCode: res.ExitCode}
	}
	d.emit(domain.StepFinishedEvent{BaseEvent: domain.NewBaseEvent(d.ID()), Result: res})
	return res
}

func (d *Dispatcher) loadProject(target string) (Project, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return Project{}, fmt.Errorf("%w: %v", domain.ErrInvalidTarget, err)
	}
	entries, err := d.FS.List(abs)
	if err != nil {
		return Project{Dir: abs}, fmt.Errorf("%w: %v", domain.ErrInvalidTarget, err)
	}
	project := Project{
		Dir:     abs,
		Listing: domain.NewListing(entries...),
		Options: d.Options,
		FS:      d.FS,
	}
	if d.Env != nil {
		env, err := d.Env.Environ(abs)
		if err != nil {
			return project, fmt.Errorf("load environment: %w", err)
		}
		project.Env = env
	}
	return project, nil
}

func (d *Dispatcher) resolvable(project Project, tool string) bool {
	if tool == "" {
		return true
	}
	_, err := d.Prober.LookPath(project.Dir, tool, project.Env)
	return err == nil
}

func (d *Dispatcher) transition(to domain.State) {
	from := d.state
	d.state = to
	d.emit(domain.StateChangedEvent{BaseEvent: domain.NewBaseEvent(d.ID()), From: from, To: to})
}

func (d *Dispatcher) emit(event domain.DomainEvent) {
	if d.Sink == nil {
		return
	}
	d.Sink.Emit(event)
}

// interrupted maps a context error to ErrTimeout or ErrCancelled.
func interrupted(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrCancelled, err)
}

func isTerminal(err error) bool {
	return errors.Is(err, domain.ErrTimeout) || errors.Is(err, domain.ErrCancelled)
}

func toolErrors(missing []domain.ToolMissingError) []error {
	errs := make([]error, 0, len(missing))
	for _, m := range missing {
		errs = append(errs, m)
	}
	return errs
}
