package pipeline

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestState_SetAndGet(t *testing.T) {
	s := NewState(map[string]any{"seed": "value"})

	if got := s.GetString("seed"); got != "value" {
		t.Errorf("GetString(seed) = %q, want value", got)
	}
	if err := s.Set("outline", "- item"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.GetString("outline"); got != "- item" {
		t.Errorf("GetString(outline) = %q, want - item", got)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) reported present")
	}
}

func TestState_Has(t *testing.T) {
	s := NewState(map[string]any{"empty": "", "flag": false, "text": "x"})

	if s.Has("empty") {
		t.Error("empty string field reported present")
	}
	if !s.Has("flag") {
		t.Error("false bool field reported absent")
	}
	if !s.Has("text") {
		t.Error("text field reported absent")
	}
	if s.Has("missing") {
		t.Error("missing field reported present")
	}
}

func TestState_MarkFinal(t *testing.T) {
	s := NewState(nil)
	if err := s.Set("source", "original"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.MarkFinal("source")

	err := s.Set("source", "mutated")
	if !errors.Is(err, ErrFieldFinal) {
		t.Fatalf("Set on final field: got %v, want ErrFieldFinal", err)
	}
	if got := s.GetString("source"); got != "original" {
		t.Errorf("final field changed to %q", got)
	}
}

func TestState_SetRevision(t *testing.T) {
	s := NewState(map[string]any{"outline": "v1"})
	s.MarkFinal("outline")

	rev := s.SetRevision("outline", "v2")
	if rev != 1 {
		t.Errorf("first revision = %d, want 1", rev)
	}
	if got := s.GetString("outline"); got != "v2" {
		t.Errorf("outline = %q, want v2", got)
	}
	if got := s.GetString("outline@1"); got != "v1" {
		t.Errorf("outline@1 = %q, want v1 (prior value must be preserved)", got)
	}
	if s.Revision("outline") != 1 {
		t.Errorf("Revision = %d, want 1", s.Revision("outline"))
	}
}

func TestState_SnapshotIsolation(t *testing.T) {
	s := NewState(map[string]any{"a": "1"})
	snap := s.Snapshot()
	snap["a"] = "mutated"
	snap["b"] = "new"

	if got := s.GetString("a"); got != "1" {
		t.Errorf("snapshot mutation leaked into state: a = %q", got)
	}
	if s.Has("b") {
		t.Error("snapshot addition leaked into state")
	}
	if diff := cmp.Diff(map[string]any{"a": "1"}, s.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}
