package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/ngr/internal/domain"
)

type fakeFS struct {
	entries map[string][]string
	files   map[string]string
}

func (f fakeFS) List(dir string) ([]string, error) {
	entries, ok := f.entries[filepath.Base(dir)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", dir, os.ErrNotExist)
	}
	return entries, nil
}

func (f fakeFS) ReadFile(path string) ([]byte, error) {
	content, ok := f.files[filepath.Base(path)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(content), nil
}

// fakeMatcher returns one candidate per ecosystem marker present.
type fakeMatcher struct {
	markers []struct {
		pattern   string
		ecosystem domain.Ecosystem
	}
}

func newFakeMatcher(pairs ...string) fakeMatcher {
	var m fakeMatcher
	for i := 0; i+1 < len(pairs); i += 2 {
		m.markers = append(m.markers, struct {
			pattern   string
			ecosystem domain.Ecosystem
		}{pairs[i], domain.Ecosystem(pairs[i+1])})
	}
	return m
}

func (m fakeMatcher) Match(listing domain.Listing) []domain.Ecosystem {
	var out []domain.Ecosystem
	for _, mk := range m.markers {
		if listing.Has(mk.pattern) {
			out = append(out, mk.ecosystem)
		}
	}
	return out
}

type fakeRecipe struct {
	ecosystem domain.Ecosystem
	tool      string
	checkErr  error
	steps     []domain.Step
}

func (r fakeRecipe) Ecosystem() domain.Ecosystem { return r.ecosystem }
func (r fakeRecipe) RequiredTool(Project) string { return r.tool }
func (r fakeRecipe) Check(Project) error { return r.checkErr }
func (r fakeRecipe) Steps(Project) []domain.Step { return r.steps }

type fakeRegistry struct {
	recipes  map[domain.Ecosystem]Recipe
	fallback Recipe
}

func (r fakeRegistry) Lookup(eco domain.Ecosystem) (Recipe, error) {
	recipe, ok := r.recipes[eco]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEcosystem, eco)
	}
	return recipe, nil
}

func (r fakeRegistry) Fallback() Recipe { return r.fallback }

func (r fakeRegistry) Ecosystems() []domain.Ecosystem {
	var out []domain.Ecosystem
	for eco := range r.recipes {
		out = append(out, eco)
	}
	return out
}

type fakeProber map[string]bool

func (p fakeProber) LookPath(dir, tool string, env map[string]string) (string, error) {
	if p[tool] {
		return "/usr/bin/" + tool, nil
	}
	return "", domain.ErrExecutableNotFound
}

// pathProber resolves tools only when the provided PATH names dir.
type pathProber struct{ dir string }

func (p pathProber) LookPath(dir, tool string, env map[string]string) (string, error) {
	if env["PATH"] == p.dir {
		return filepath.Join(p.dir, tool), nil
	}
	return "", domain.ErrExecutableNotFound
}

type envFunc func(target string) (map[string]string, error)

func (f envFunc) Environ(target string) (map[string]string, error) { return f(target) }

// fakeExecutor returns canned exit codes keyed by step name and records every call.
type fakeExecutor struct {
	mu    sync.Mutex
	exit  map[string]int
	errs  map[string]error
	calls []domain.Step
	// after runs once a step's result is settled.
	after func(step domain.Step)
}

func (e *fakeExecutor) Run(ctx context.Context, step domain.Step, dir string, env map[string]string) domain.ExecutionResult {
	e.mu.Lock()
	e.calls = append(e.calls, step)
	e.mu.Unlock()
	res := domain.ExecutionResult{
		Step:     step.Name,
		Command:  step.CommandLine(),
		Dir:      dir,
		ExitCode: e.exit[step.Name],
		Err:      e.errs[step.Name],
	}
	if res.Err == nil {
		if err := ctx.Err(); err != nil {
			res.ExitCode = -1
			res.Err = fmt.Errorf("%w: %v", domain.ErrCancelled, err)
		}
	}
	if e.after != nil {
		e.after(step)
	}
	return res
}

func (e *fakeExecutor) stepNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.calls))
	for _, c := range e.calls {
		names = append(names, c.Name)
	}
	return names
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (s *recordingSink) Emit(event domain.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType())
	}
	return out
}

var (
	pythonRecipe = fakeRecipe{
		ecosystem: domain.EcosystemPython,
		tool:      "pytest",
		steps:     []domain.Step{{Name: "test", Program: "pytest"}},
	}
	makeRecipe = fakeRecipe{
		ecosystem: domain.EcosystemMake,
		tool:      "make",
		steps: []domain.Step{
			{Name: "install", Program: "make", Args: []string{"install"}, Optional: true},
			{Name: "test", Program: "make", Args: []string{"test"}},
		},
	}
	rustRecipe = fakeRecipe{
		ecosystem: domain.EcosystemRust,
		tool:      "cargo",
		steps:     []domain.Step{{Name: "build", Program: "cargo", Args: []string{"build"}}, {Name: "test", Program: "cargo", Args: []string{"test"}}},
	}
)

func newFakeRegistry(recipes ...Recipe) fakeRegistry {
	r := fakeRegistry{recipes: map[domain.Ecosystem]Recipe{}, fallback: makeRecipe}
	for _, recipe := range recipes {
		r.recipes[recipe.Ecosystem()] = recipe
	}
	return r
}

type fixture struct {
	fs       fakeFS
	matcher  fakeMatcher
	registry fakeRegistry
	prober   fakeProber
	executor *fakeExecutor
	sink     *recordingSink
}

func newFixture() *fixture {
	return &fixture{
		fs: fakeFS{entries: map[string][]string{
			"py":     {"pyproject.toml", "tests"},
			"mk":     {"Makefile", "README.md"},
			"empty":  {},
			"mixed":  {"Cargo.toml", "pyproject.toml"},
			"nomake": {"README.md"},
		}},
		matcher:  newFakeMatcher("Cargo.toml", "rust", "pyproject.toml", "python"),
		registry: newFakeRegistry(pythonRecipe, rustRecipe),
		prober:   fakeProber{"pytest": true, "make": true, "cargo": true},
		executor: &fakeExecutor{exit: map[string]int{}, errs: map[string]error{}},
		sink:     &recordingSink{},
	}
}

func (f *fixture) dispatcher() *Dispatcher {
	d := NewDispatcher(f.fs, f.matcher, f.registry, f.prober, f.executor)
	d.Sink = f.sink
	return d
}

func (f *fixture) service() *Service {
	return &Service{
		FS:       f.fs,
		Matcher:  f.matcher,
		Registry: f.registry,
		Prober:   f.prober,
		Executor: f.executor,
		Sink:     f.sink,
	}
}
