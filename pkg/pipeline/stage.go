package pipeline

import (
	"context"
	"time"
)

// FeedbackField returns the state field name where the Executor places prior
// violations before a corrective retry of the given stage. Stages append its
// contents to their prompt when present.
func FeedbackField(stageID string) string { return stageID + "__feedback" }

// InvokeFunc is one unit of pipeline work: consume state, invoke a capability,
// produce a generated artifact. Implementations read the stage's declared
// inputs from state and must not write state directly; the Executor merges
// accepted outputs.
type InvokeFunc func(ctx context.Context, s *State) (Artifact, error)

// Stage declares one node of the pipeline graph: its identity, data contract,
// capability invocation, and acceptance policy.
type Stage struct {
	ID string

	// RequiredInputs are state fields that must be present and non-empty
	// before the stage runs. A missing input aborts the run.
	RequiredInputs []string

	// ProducedOutputs are the state fields this stage writes. The default
	// merge writes the accepted artifact text to the first output field.
	ProducedOutputs []string

	// Invoke calls the stage's capability.
	Invoke InvokeFunc

	// Validator, when set, must pass before outputs are accepted.
	Validator Validator

	// Repairer, when set, is tried once per failed validation before
	// regeneration is attempted.
	Repairer Repairer

	// Kind is the declared artifact kind of this stage's output.
	Kind ArtifactKind

	// Mandatory escalates validation exhaustion to a terminal failure
	// instead of degrading to a fallback.
	Mandatory bool

	// Fallback is the templated default artifact text used when a
	// non-mandatory stage exhausts validation retries. When empty, the
	// last-known-good value of the first output field is reused instead.
	Fallback string

	// MaxRetries bounds capability retries: the capability is invoked at
	// most MaxRetries+1 times per generation attempt.
	MaxRetries int

	// RetryBackoff is the initial delay between capability retries,
	// doubling each retry. Zero means no delay.
	RetryBackoff time.Duration

	// MaxValidationRetries bounds corrective regenerations after a failed
	// validation. Distinct from the capability retry ceiling.
	MaxValidationRetries int

	// Timeout bounds a single capability call. Zero means no per-call bound
	// beyond the run context.
	Timeout time.Duration

	// Merge, when set, replaces the default artifact-to-state merge.
	Merge func(s *State, a Artifact) error
}

// merge applies the stage's accepted artifact to state.
func (st *Stage) merge(s *State, a Artifact) error {
	if st.Merge != nil {
		return st.Merge(s, a)
	}
	if len(st.ProducedOutputs) == 0 {
		return nil
	}
	return s.Set(st.ProducedOutputs[0], a.Text)
}
