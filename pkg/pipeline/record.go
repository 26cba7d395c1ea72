package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Outcome classifies one recorded stage attempt.
type Outcome string

const (
	OutcomeAccepted         Outcome = "accepted"
	OutcomeCapabilityError  Outcome = "capability_error"
	OutcomeValidationFailed Outcome = "validation_failed"
	OutcomeRepaired         Outcome = "repaired"
	OutcomeDegraded         Outcome = "degraded"
	OutcomeTerminal         Outcome = "terminal"
	OutcomeCancelled        Outcome = "cancelled"
)

// Attempt is one entry in the run's diagnostic trail.
type Attempt struct {
	Stage      string    `json:"stage"`
	Attempt    int       `json:"attempt"`
	Outcome    Outcome   `json:"outcome"`
	Violations []string  `json:"violations,omitempty"`
	At         time.Time `json:"at"`
}

// RunRecord is the append-only ordered trail of stage attempts and validation
// outcomes for one pipeline run. Entries are strictly ordered by invocation;
// retries of a stage appear as successive attempts under the same stage id.
type RunRecord struct {
	ID       string    `json:"id"`
	Pipeline string    `json:"pipeline"`
	Started  time.Time `json:"started"`
	Attempts []Attempt `json:"attempts"`
}

// NewRunRecord creates a record with a fresh run identifier.
func NewRunRecord(pipeline string) *RunRecord {
	return &RunRecord{
		ID:       uuid.NewString(),
		Pipeline: pipeline,
		Started:  time.Now().UTC(),
	}
}

func (r *RunRecord) add(stage string, attempt int, outcome Outcome, violations []Violation) {
	entry := Attempt{
		Stage:   stage,
		Attempt: attempt,
		Outcome: outcome,
		At:      time.Now().UTC(),
	}
	for _, v := range violations {
		entry.Violations = append(entry.Violations, v.String())
	}
	r.Attempts = append(r.Attempts, entry)
}

// AttemptsFor returns the recorded attempts for one stage, in order.
func (r *RunRecord) AttemptsFor(stage string) []Attempt {
	var out []Attempt
	for _, a := range r.Attempts {
		if a.Stage == stage {
			out = append(out, a)
		}
	}
	return out
}

// Degraded reports whether any stage fell back to a degraded artifact.
func (r *RunRecord) Degraded() bool {
	for _, a := range r.Attempts {
		if a.Outcome == OutcomeDegraded {
			return true
		}
	}
	return false
}

// Grounded reports the final disclosure to the caller: true when no stage
// output was accepted in a degraded form.
func (r *RunRecord) Grounded() bool { return !r.Degraded() }

// Tail returns the last n attempts, for terminal failure reporting.
func (r *RunRecord) Tail(n int) []Attempt {
	if n >= len(r.Attempts) {
		n = len(r.Attempts)
	}
	return r.Attempts[len(r.Attempts)-n:]
}
