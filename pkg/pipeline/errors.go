package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInput is returned when a stage's required input field is
	// absent or empty. This is a graph/configuration defect and is never retried.
	ErrMissingInput = errors.New("pipeline: required input missing")

	// ErrCapabilityFailure is returned when a capability call fails after
	// exhausting the stage's retry budget.
	ErrCapabilityFailure = errors.New("pipeline: capability failed")

	// ErrValidationFailure is returned when a stage's output fails validation
	// after exhausting corrective retries and no fallback is available.
	ErrValidationFailure = errors.New("pipeline: validation failed")

	// ErrRoutingAmbiguity is returned when more than one edge predicate matches
	// on a stage declared exclusive.
	ErrRoutingAmbiguity = errors.New("pipeline: ambiguous routing")

	// ErrRoutingDeadEnd is returned when no edge predicate matches and the
	// stage declares no default edge.
	ErrRoutingDeadEnd = errors.New("pipeline: no matching edge")

	// ErrStageNotFound is returned when a referenced stage does not exist in the graph.
	ErrStageNotFound = errors.New("pipeline: stage not found")

	// ErrFieldFinal is returned when a stage attempts to overwrite a field
	// that has been marked final without going through a revision.
	ErrFieldFinal = errors.New("pipeline: field is final")

	// ErrCancelled is returned when the caller cancels an in-flight run.
	// It is a distinct outcome, not a stage failure.
	ErrCancelled = errors.New("pipeline: run cancelled")
)

// TerminalFailure names the failing stage, the error kind, and the tail of the
// run record so the caller never receives a silent empty result.
type TerminalFailure struct {
	StageID string
	Kind    error
	Cause   error
	Tail    []Attempt
}

func (f *TerminalFailure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("stage %s: %v: %v", f.StageID, f.Kind, f.Cause)
	}
	return fmt.Sprintf("stage %s: %v", f.StageID, f.Kind)
}

func (f *TerminalFailure) Unwrap() error { return f.Kind }
