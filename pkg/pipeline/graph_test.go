package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testStage(id string) *Stage {
	return &Stage{
		ID: id,
		Invoke: func(ctx context.Context, s *State) (Artifact, error) {
			return Artifact{Text: id}, nil
		},
	}
}

func TestNewGraph_DuplicateStage(t *testing.T) {
	_, err := NewGraph("g", "a", []*Stage{testStage("a"), testStage("a")}, nil)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("got %v, want duplicate stage error", err)
	}
}

func TestNewGraph_UnknownEntry(t *testing.T) {
	_, err := NewGraph("g", "nope", []*Stage{testStage("a")}, nil)
	if !errors.Is(err, ErrStageNotFound) {
		t.Fatalf("got %v, want ErrStageNotFound", err)
	}
}

func TestNewGraph_EdgeUnknownTarget(t *testing.T) {
	_, err := NewGraph("g", "a", []*Stage{testStage("a")},
		[]Edge{{ID: "e1", From: "a", To: "ghost"}})
	if !errors.Is(err, ErrStageNotFound) {
		t.Fatalf("got %v, want ErrStageNotFound", err)
	}
}

func TestNewGraph_DoneTargetAllowed(t *testing.T) {
	_, err := NewGraph("g", "a", []*Stage{testStage("a")},
		[]Edge{{ID: "e1", From: "a", To: DoneStage}})
	if err != nil {
		t.Fatalf("edge to done pseudo-stage rejected: %v", err)
	}
}

func TestNewGraph_EdgeAfterDefaultUnreachable(t *testing.T) {
	_, err := NewGraph("g", "a", []*Stage{testStage("a"), testStage("b")},
		[]Edge{
			{ID: "e1", From: "a", To: "b"}, // default
			{ID: "e2", From: "a", To: DoneStage, When: `state.x == "1"`},
		})
	if err == nil || !strings.Contains(err.Error(), "unreachable") {
		t.Fatalf("got %v, want unreachable edge error", err)
	}
}

func TestNewGraph_BadPredicate(t *testing.T) {
	_, err := NewGraph("g", "a", []*Stage{testStage("a")},
		[]Edge{{ID: "e1", From: "a", To: DoneStage, When: "state.x =="}})
	if err == nil || !strings.Contains(err.Error(), "compile") {
		t.Fatalf("got %v, want predicate compile error", err)
	}
}

func TestGraph_Next_NoEdgesIsDone(t *testing.T) {
	g, err := NewGraph("g", "a", []*Stage{testStage("a")}, nil)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	next, err := g.Next("a", NewState(nil))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != DoneStage {
		t.Errorf("Next = %q, want %q", next, DoneStage)
	}
}

func TestGraph_Next_FirstMatchWins(t *testing.T) {
	g, err := NewGraph("g", "a",
		[]*Stage{testStage("a"), testStage("b"), testStage("c")},
		[]Edge{
			{ID: "e1", From: "a", To: "b", When: `state.score > 10`},
			{ID: "e2", From: "a", To: "c", When: `state.score > 5`},
		})
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}

	// Both predicates hold; declaration order decides.
	next, err := g.Next("a", NewState(map[string]any{"score": 20}))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != "b" {
		t.Errorf("Next = %q, want b (first declared match)", next)
	}

	next, err = g.Next("a", NewState(map[string]any{"score": 7}))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != "c" {
		t.Errorf("Next = %q, want c", next)
	}
}

func TestGraph_Next_DeadEnd(t *testing.T) {
	g, err := NewGraph("g", "a", []*Stage{testStage("a"), testStage("b")},
		[]Edge{{ID: "e1", From: "a", To: "b", When: `state.go == true`}})
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	_, err = g.Next("a", NewState(map[string]any{"go": false}))
	if !errors.Is(err, ErrRoutingDeadEnd) {
		t.Fatalf("got %v, want ErrRoutingDeadEnd", err)
	}
}

func TestGraph_Next_DefaultEdge(t *testing.T) {
	g, err := NewGraph("g", "a", []*Stage{testStage("a"), testStage("b")},
		[]Edge{
			{ID: "e1", From: "a", To: "b", When: `state.go == true`},
			{ID: "e2", From: "a", To: DoneStage},
		})
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	next, err := g.Next("a", NewState(nil))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != DoneStage {
		t.Errorf("Next = %q, want default edge target %q", next, DoneStage)
	}
}

func TestGraph_Next_ExclusiveAmbiguity(t *testing.T) {
	g, err := NewGraph("g", "a",
		[]*Stage{testStage("a"), testStage("b"), testStage("c")},
		[]Edge{
			{ID: "e1", From: "a", To: "b", When: `state.score > 5`},
			{ID: "e2", From: "a", To: "c", When: `state.score > 10`},
		},
		WithExclusiveEdges("a"))
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	_, err = g.Next("a", NewState(map[string]any{"score": 20}))
	if !errors.Is(err, ErrRoutingAmbiguity) {
		t.Fatalf("got %v, want ErrRoutingAmbiguity", err)
	}
}

func TestGraph_Next_ExclusiveSingleMatch(t *testing.T) {
	g, err := NewGraph("g", "a",
		[]*Stage{testStage("a"), testStage("b")},
		[]Edge{
			{ID: "e1", From: "a", To: "b", When: `state.go == true`},
			{ID: "e2", From: "a", To: DoneStage},
		},
		WithExclusiveEdges("a"))
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}

	next, err := g.Next("a", NewState(map[string]any{"go": true}))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != "b" {
		t.Errorf("Next = %q, want b", next)
	}

	next, err = g.Next("a", NewState(map[string]any{"go": false}))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next != DoneStage {
		t.Errorf("Next = %q, want default %q", next, DoneStage)
	}
}
