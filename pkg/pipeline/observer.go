package pipeline

import (
	"log/slog"
	"sync"
	"time"
)

// RunEventType classifies run events for filtering and routing.
type RunEventType string

const (
	EventStageEnter   RunEventType = "stage_enter"
	EventStageExit    RunEventType = "stage_exit"
	EventRetry        RunEventType = "retry"
	EventRepair       RunEventType = "repair"
	EventFallback     RunEventType = "fallback"
	EventEdgeEvaluate RunEventType = "edge_evaluate"
	EventTransition   RunEventType = "transition"
	EventRunComplete  RunEventType = "run_complete"
	EventRunError     RunEventType = "run_error"
)

// RunEvent is a single observation from a pipeline run.
type RunEvent struct {
	Type       RunEventType
	Stage      string
	Attempt    int
	Edge       string
	Violations []Violation
	Elapsed    time.Duration
	Error      error
}

// Observer receives events during a run. Single-method design (like
// http.Handler) so adding new event types never breaks existing observers.
type Observer interface {
	OnEvent(RunEvent)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(RunEvent)

func (f ObserverFunc) OnEvent(e RunEvent) { f(e) }

// MultiObserver fans out events to multiple observers.
type MultiObserver []Observer

func (m MultiObserver) OnEvent(e RunEvent) {
	for _, obs := range m {
		obs.OnEvent(e)
	}
}

// LogObserver writes run events as structured slog lines.
type LogObserver struct {
	Logger *slog.Logger
}

func (o *LogObserver) OnEvent(e RunEvent) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{slog.String("event", string(e.Type))}
	if e.Stage != "" {
		attrs = append(attrs, slog.String("stage", e.Stage))
	}
	if e.Attempt > 0 {
		attrs = append(attrs, slog.Int("attempt", e.Attempt))
	}
	if e.Edge != "" {
		attrs = append(attrs, slog.String("edge", e.Edge))
	}
	if e.Elapsed > 0 {
		attrs = append(attrs, slog.Duration("elapsed", e.Elapsed))
	}
	if len(e.Violations) > 0 {
		attrs = append(attrs, slog.Int("violations", len(e.Violations)))
	}
	if e.Error != nil {
		attrs = append(attrs, slog.String("error", e.Error.Error()))
	}

	level := slog.LevelInfo
	if e.Error != nil {
		level = slog.LevelWarn
	}
	logger.LogAttrs(nil, level, "run", attrs...)
}

// TraceCollector accumulates run events in memory for post-run analysis.
// Safe for concurrent use.
type TraceCollector struct {
	mu     sync.Mutex
	events []RunEvent
}

func (t *TraceCollector) OnEvent(e RunEvent) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}

// Events returns a copy of all collected events.
func (t *TraceCollector) Events() []RunEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]RunEvent, len(t.events))
	copy(out, t.events)
	return out
}

// EventsOfType returns only events matching the given type.
func (t *TraceCollector) EventsOfType(typ RunEventType) []RunEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []RunEvent
	for _, e := range t.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// emitEvent safely emits an event to a possibly-nil observer.
func emitEvent(obs Observer, e RunEvent) {
	if obs != nil {
		obs.OnEvent(e)
	}
}
