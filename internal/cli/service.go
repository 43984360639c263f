package cli

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/envprovider"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/fslist"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/logsink"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/procexec"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/recipes"
	"github.com/felixgeelhaar/ngr/internal/infrastructure/signature"
)

type Service interface {
	Test(ctx context.Context, opts application.TestOptions) ([]domain.DispatchOutcome, error)
	Detect(ctx context.Context, opts application.DetectOptions) (application.DetectResult, error)
	Watch(ctx context.Context, opts application.TestOptions, watcher application.FileWatcher, callback application.WatchCallback) error
	Ecosystems() []domain.Ecosystem
}

// Builder creates the service for a resolved configuration. Child output
// streamed in stream capture mode goes to stderr.
type Builder func(cfg application.Config, logger *slog.Logger, stderr io.Writer) Service

// BuildService wires the production collaborators.
func BuildService(cfg application.Config, logger *slog.Logger, stderr io.Writer) Service {
	registry := recipes.Default()
	resolver := procexec.Resolver{}
	executor := &procexec.Executor{
		Timeout:     cfg.Timeout,
		GracePeriod: cfg.GracePeriod,
		Resolver:    resolver,
	}
	if cfg.Capture != application.CaptureBuffer {
		out := &lockedWriter{w: stderr}
		executor.Stdout = out
		executor.Stderr = out
	}
	return &application.Service{
		FS: fslist.Lister{},
		Matcher: signature.NewMatcher(
			signature.WithOrder(registry.Ecosystems()),
			signature.WithPreference(cfg.Prefer),
		),
		Registry: registry,
		Prober:   resolver,
		Executor: executor,
		Env:      envprovider.Provider{Files: cfg.EnvFiles, Vars: cfg.Env},
		Sink:     logsink.New(logger),
	}
}

// lockedWriter serializes writes of concurrently running steps.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
