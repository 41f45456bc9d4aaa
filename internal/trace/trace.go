// Package trace tags one CLI invocation with a run id and logs its duration.
package trace

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/log"
)

type contextKey string

const runIDKey contextKey = "run_id"

// NewRunID returns a short random id, prefixed so it stands out in logs.
func NewRunID() string {
	id := uuid.New()
	return "run_" + id.String()[:8]
}

func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunID returns the id stored by WithRunID, or "".
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// Span times a single command.
type Span struct {
	name   string
	start  time.Time
	logger *log.Logger
	now    func() time.Time
}

// Start stores a new run id in ctx and returns a span whose logger carries it.
// The returned context also carries that logger.
func Start(ctx context.Context, logger *log.Logger, name string) (context.Context, *Span) {
	id := NewRunID()
	ctx = WithRunID(ctx, id)
	l := logger.With(log.FieldRunID, id, log.FieldCommand, name)
	ctx = log.WithContext(ctx, l)

	s := &Span{name: name, logger: l, now: time.Now}
	s.start = s.now()
	l.DebugContext(ctx, "Command started")
	return ctx, s
}

func (s *Span) Logger() *log.Logger {
	return s.logger
}

// End logs how the command finished. Failures are logged at Warn.
func (s *Span) End(ctx context.Context, err error) time.Duration {
	d := s.now().Sub(s.start)
	if err != nil {
		s.logger.WarnContext(ctx, "Command failed",
			log.FieldError, err,
			"duration_ms", d.Milliseconds(),
			"success", false)
		return d
	}
	s.logger.DebugContext(ctx, "Command completed",
		"duration_ms", d.Milliseconds(),
		"success", true)
	return d
}
