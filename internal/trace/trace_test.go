package trace

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fintrack/internal/log"
)

func TestRunID(t *testing.T) {
	id := NewRunID()
	if !strings.HasPrefix(id, "run_") || len(id) != len("run_")+8 {
		t.Fatalf("NewRunID() = %q", id)
	}
	if NewRunID() == id {
		t.Fatal("run ids should differ")
	}

	ctx := context.Background()
	if got := RunID(ctx); got != "" {
		t.Fatalf("RunID(empty) = %q", got)
	}
	if got := RunID(WithRunID(ctx, "run_x")); got != "run_x" {
		t.Fatalf("RunID = %q, want run_x", got)
	}
}

func TestSpan(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    string
		success string
	}{
		{"success", nil, "Command completed", "success=true"},
		{"failure", errors.New("boom"), "Command failed", "success=false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := log.New(log.Config{Level: log.LevelDebug, Output: &buf})

			ctx, span := Start(context.Background(), logger, "fintrack tx add")
			id := RunID(ctx)
			if id == "" {
				t.Fatal("Start should store a run id")
			}
			if log.FromContext(ctx) != span.Logger() {
				t.Fatal("context should carry the span logger")
			}

			start := span.start
			span.now = func() time.Time { return start.Add(150 * time.Millisecond) }
			if d := span.End(ctx, tt.err); d != 150*time.Millisecond {
				t.Fatalf("duration = %v, want 150ms", d)
			}

			out := buf.String()
			for _, want := range []string{"Command started", tt.want, tt.success, "run_id=" + id, "duration_ms=150"} {
				if !strings.Contains(out, want) {
					t.Errorf("log output missing %q:\n%s", want, out)
				}
			}
		})
	}
}
