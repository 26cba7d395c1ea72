package pipeline

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestMultiObserver_FansOut(t *testing.T) {
	a, b := &TraceCollector{}, &TraceCollector{}
	m := MultiObserver{a, b}
	m.OnEvent(RunEvent{Type: EventStageEnter, Stage: "s"})

	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Errorf("fan-out missed an observer: %d, %d", len(a.Events()), len(b.Events()))
	}
}

func TestTraceCollector_EventsOfType(t *testing.T) {
	c := &TraceCollector{}
	c.OnEvent(RunEvent{Type: EventStageEnter, Stage: "a"})
	c.OnEvent(RunEvent{Type: EventRetry, Stage: "a", Attempt: 1})
	c.OnEvent(RunEvent{Type: EventStageEnter, Stage: "b"})

	if got := c.EventsOfType(EventStageEnter); len(got) != 2 {
		t.Errorf("EventsOfType(stage_enter) = %d, want 2", len(got))
	}
	if got := c.EventsOfType(EventRepair); len(got) != 0 {
		t.Errorf("EventsOfType(repair) = %d, want 0", len(got))
	}
}

func TestLogObserver_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	obs := &LogObserver{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	obs.OnEvent(RunEvent{Type: EventTransition, Stage: "gen", Edge: "next"})

	out := buf.String()
	if !strings.Contains(out, "event=transition") || !strings.Contains(out, "stage=gen") {
		t.Errorf("log line missing attrs: %s", out)
	}
}

func TestLogObserver_NilLoggerDoesNotPanic(t *testing.T) {
	obs := &LogObserver{}
	obs.OnEvent(RunEvent{Type: EventStageEnter, Stage: "a"})
}

func TestEmitEvent_NilObserver(t *testing.T) {
	emitEvent(nil, RunEvent{Type: EventStageEnter})
}
