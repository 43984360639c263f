package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/ngr/internal/domain"
)

type OutputFormat string

const (
	OutputText  OutputFormat = "text"
	OutputJSON  OutputFormat = "json"
	OutputBrief OutputFormat = "brief"
)

// CaptureMode selects how child output reaches the caller.
type CaptureMode string

const (
	// CaptureBuffer keeps output in memory only.
	CaptureBuffer CaptureMode = "buffer"
	// CaptureStream additionally copies output to the caller's sink as it arrives.
	CaptureStream CaptureMode = "stream"
)

var ErrConfigNotFound = errors.New("config not found")

// Config represents validated, application-ready configuration.
type Config struct {
	Prefer      []domain.Ecosystem
	Options     domain.Options
	Timeout     time.Duration
	GracePeriod time.Duration
	Capture     CaptureMode
	Parallel    int
	Env         map[string]string
	EnvFiles    []string
}

type ConfigLoader interface {
	Load(path string) (Config, error)
	Exists(path string) (bool, error)
}

// FileSystem is the listing provider consumed by the dispatcher.
type FileSystem interface {
	// List returns the names of the entries directly inside dir.
	List(dir string) ([]string, error)
	// ReadFile returns the content of a file.
	ReadFile(path string) ([]byte, error)
}

// Matcher maps a directory listing to ordered ecosystem candidates.
type Matcher interface {
	Match(listing domain.Listing) []domain.Ecosystem
}

// Recipe encodes how one ecosystem is built and tested.
// Implementations exist for every supported ecosystem.
type Recipe interface {
	// Ecosystem returns the ecosystem this recipe serves.
	Ecosystem() domain.Ecosystem
	// RequiredTool returns the executable that must resolve for the recipe to be selected.
	RequiredTool(p Project) string
	// Check validates recipe preconditions before any step runs.
	Check(p Project) error
	// Steps returns the ordered steps for the project.
	Steps(p Project) []domain.Step
}

// RecipeRegistry resolves ecosystems to recipes. It is read-only after construction.
type RecipeRegistry interface {
	// Lookup fails with domain.ErrUnknownEcosystem for unregistered ecosystems.
	Lookup(ecosystem domain.Ecosystem) (Recipe, error)
	// Fallback returns the recipe of last resort.
	Fallback() Recipe
	// Ecosystems returns all registered ecosystems in registry order.
	Ecosystems() []domain.Ecosystem
}

// ToolProber resolves executables without running them.
type ToolProber interface {
	// LookPath resolves tool for a step running in dir. A PATH in env
	// takes precedence over the runner's own.
	LookPath(dir, tool string, env map[string]string) (string, error)
}

// StepExecutor runs a step as a child process tree.
type StepExecutor interface {
	Run(ctx context.Context, step domain.Step, dir string, env map[string]string) domain.ExecutionResult
}

// EnvProvider supplies variables passed through to child processes.
type EnvProvider interface {
	Environ(target string) (map[string]string, error)
}

// EventSink receives structured dispatch events.
type EventSink interface {
	Emit(event domain.DomainEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(domain.DomainEvent)

// Emit calls f(event).
func (f EventSinkFunc) Emit(event domain.DomainEvent) { f(event) }

// Project is the view of a target directory handed to recipes.
type Project struct {
	Dir     string
	Listing domain.Listing
	Options domain.Options
	Env     map[string]string
	FS      FileSystem
}

// Has reports whether the listing contains an entry matching pattern.
func (p Project) Has(pattern string) bool {
	return p.Listing.Has(pattern)
}

// ReadFile reads a file relative to the project directory.
func (p Project) ReadFile(name string) ([]byte, error) {
	if p.FS == nil {
		return nil, os.ErrNotExist
	}
	return p.FS.ReadFile(filepath.Join(p.Dir, name))
}

// Getenv looks up key in the provided environment, then in the runner's own.
func (p Project) Getenv(key string) string {
	if v, ok := p.Env[key]; ok {
		return v
	}
	return os.Getenv(key)
}

type TestOptions struct {
	Targets []string
	Config  Config
}

type DetectOptions struct {
	Target string
	Config Config
}

// DetectResult describes what a dispatch would do without running anything.
type DetectResult struct {
	Target     string
	Candidates []domain.Ecosystem
	Selected   domain.Ecosystem
	Fallback   bool
	Tool       string
	Missing    []domain.ToolMissingError
	Steps      []domain.Step
	Err        error
}

// FileWatcher provides file change notifications.
type FileWatcher interface {
	WatchDir(root string) error
	Events(ctx context.Context) <-chan struct{}
	Close() error
}

// WatchCallback receives the outcomes of every watch run.
type WatchCallback func(runNumber int, outcomes []domain.DispatchOutcome, err error)
