// Package logsink turns dispatch events into structured log records.
package logsink

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/ngr/internal/domain"
)

// Sink logs domain events. It is safe for concurrent use.
type Sink struct {
	logger *slog.Logger
}

// New creates a sink writing to logger, or to slog.Default when nil.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

// Emit logs one event.
func (s *Sink) Emit(event domain.DomainEvent) {
	log := s.logger.With("dispatch", event.Dispatch())
	ctx := context.Background()

	switch e := event.(type) {
	case domain.StateChangedEvent:
		log.Debug("state changed", "from", e.From.String(), "to", e.To.String())
	case domain.CandidatesMatchedEvent:
		log.Info("candidates matched", "target", e.Target, "candidates", ecosystems(e.Candidates))
	case domain.CandidateSkippedEvent:
		log.Warn("candidate skipped", "ecosystem", e.Ecosystem.String(), "tool", e.Tool, "reason", "tool not found")
	case domain.EcosystemSelectedEvent:
		log.Info("ecosystem selected", "ecosystem", e.Ecosystem.String(), "tool", e.Tool, "fallback", e.Fallback)
	case domain.StepStartedEvent:
		log.Info("running step", "ecosystem", e.Ecosystem.String(), "step", e.Step, "command", e.Command, "dir", e.Dir)
	case domain.StepFinishedEvent:
		r := e.Result
		attrs := []any{"step", r.Step, "exit_code", r.ExitCode, "duration", r.Duration}
		level := slog.LevelInfo
		switch {
		case r.Succeeded():
		case r.Optional || r.Recovered:
			level = slog.LevelWarn
			attrs = append(attrs, "optional", r.Optional, "recovered", r.Recovered, "error", r.Err)
		default:
			level = slog.LevelError
			attrs = append(attrs, "error", r.Err)
		}
		log.Log(ctx, level, "step finished", attrs...)
	case domain.DispatchFinishedEvent:
		attrs := []any{"target", e.Target, "ecosystem", e.Ecosystem.String(), "verdict", string(e.Verdict), "duration", e.Duration}
		if e.Err != nil {
			log.Error("dispatch finished", append(attrs, "error", e.Err)...)
			return
		}
		log.Info("dispatch finished", attrs...)
	default:
		log.Debug(event.EventType())
	}
}

func ecosystems(ecos []domain.Ecosystem) []string {
	out := make([]string, 0, len(ecos))
	for _, e := range ecos {
		out = append(out, e.String())
	}
	return out
}
