package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Executor walks a stage graph from an entry stage to a terminal stage,
// applying per-stage retry policies and surfacing terminal failures. Given
// identical state and identical capability responses its control flow is fully
// determined by state: the clock is consulted only for record timestamps and
// retry backoff, never for routing.
type Executor struct {
	graph    *Graph
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
}

// ExecutorOption configures an Executor during construction.
type ExecutorOption func(*Executor)

// WithObserver attaches an observer that receives events for the full run
// lifecycle (stage enter/exit, retries, repairs, fallbacks, transitions).
func WithObserver(obs Observer) ExecutorOption {
	return func(e *Executor) { e.observer = obs }
}

// NewExecutor constructs an Executor for the given graph.
func NewExecutor(g *Graph, opts ...ExecutorOption) *Executor {
	e := &Executor{graph: g, sleep: sleepCtx}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run drives the state through the graph starting at entry ("" means the
// graph's declared entry). The returned RunRecord is always non-nil; on error
// it holds the trail up to the failure. Cancellation between stages or
// mid-capability-call ends the run with ErrCancelled, distinct from a
// terminal failure.
func (e *Executor) Run(ctx context.Context, state *State, entry string) (*State, *RunRecord, error) {
	if entry == "" {
		entry = e.graph.entry
	}
	record := NewRunRecord(e.graph.name)

	stageID := entry
	for {
		if err := ctx.Err(); err != nil {
			record.add(stageID, 0, OutcomeCancelled, nil)
			emitEvent(e.observer, RunEvent{Type: EventRunError, Stage: stageID, Error: ErrCancelled})
			return state, record, fmt.Errorf("%w: before stage %s", ErrCancelled, stageID)
		}

		stage, ok := e.graph.StageByID(stageID)
		if !ok {
			return state, record, e.terminal(record, stageID, ErrStageNotFound, nil)
		}

		for _, in := range stage.RequiredInputs {
			if !state.Has(in) {
				return state, record, e.terminal(record, stageID,
					ErrMissingInput, fmt.Errorf("field %q", in))
			}
		}

		emitEvent(e.observer, RunEvent{Type: EventStageEnter, Stage: stageID})
		start := time.Now()

		artifact, degraded, err := e.runStage(ctx, stage, state, record)
		if err != nil {
			emitEvent(e.observer, RunEvent{Type: EventStageExit, Stage: stageID, Elapsed: time.Since(start), Error: err})
			emitEvent(e.observer, RunEvent{Type: EventRunError, Stage: stageID, Error: err})
			return state, record, err
		}

		if !degraded || artifact.Text != "" {
			if err := stage.merge(state, artifact); err != nil {
				return state, record, e.terminal(record, stageID, ErrFieldFinal, err)
			}
		}
		if stage.Validator != nil {
			// Inputs consumed under validation are now verified fact for
			// downstream stages and must not be silently mutated.
			for _, in := range stage.RequiredInputs {
				state.MarkFinal(in)
			}
		}

		emitEvent(e.observer, RunEvent{Type: EventStageExit, Stage: stageID, Elapsed: time.Since(start)})

		next, err := e.graph.Next(stageID, state)
		if err != nil {
			kind := ErrRoutingDeadEnd
			if errors.Is(err, ErrRoutingAmbiguity) {
				kind = ErrRoutingAmbiguity
			}
			return state, record, e.terminal(record, stageID, kind, err)
		}
		emitEvent(e.observer, RunEvent{Type: EventTransition, Stage: stageID, Edge: next})

		if next == DoneStage {
			emitEvent(e.observer, RunEvent{Type: EventRunComplete, Stage: stageID})
			return state, record, nil
		}
		stageID = next
	}
}

// runStage produces an accepted artifact for one stage, applying the
// capability retry policy, validation with bounded corrective regeneration,
// mechanical repair, and the per-stage degrade-or-escalate policy.
func (e *Executor) runStage(ctx context.Context, st *Stage, state *State, record *RunRecord) (Artifact, bool, error) {
	attempt := 0
	var lastResult ValidationResult

	for vtry := 0; vtry <= st.MaxValidationRetries; vtry++ {
		if vtry > 0 {
			// Prior violations become corrective context for regeneration.
			if err := state.Set(FeedbackField(st.ID), lastResult.Feedback()); err != nil {
				return Artifact{}, false, e.terminal(record, st.ID, ErrFieldFinal, err)
			}
		}

		artifact, err := e.invokeWithRetries(ctx, st, state, record, &attempt)
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				record.add(st.ID, attempt, OutcomeCancelled, nil)
				return Artifact{}, false, err
			}
			return e.exhaust(st, state, record, attempt, ErrCapabilityFailure, err)
		}

		if st.Validator == nil {
			record.add(st.ID, attempt, OutcomeAccepted, nil)
			return artifact, false, nil
		}

		result := st.Validator.Validate(artifact, state)
		if result.OK {
			record.add(st.ID, attempt, OutcomeAccepted, nil)
			return artifact, false, nil
		}

		if st.Repairer != nil {
			if repaired, ok := st.Repairer.Repair(artifact, result.Violations); ok {
				if revalidated := st.Validator.Validate(repaired, state); revalidated.OK {
					record.add(st.ID, attempt, OutcomeRepaired, result.Violations)
					emitEvent(e.observer, RunEvent{Type: EventRepair, Stage: st.ID, Attempt: attempt, Violations: result.Violations})
					return repaired, false, nil
				}
			}
		}

		record.add(st.ID, attempt, OutcomeValidationFailed, result.Violations)
		emitEvent(e.observer, RunEvent{Type: EventRetry, Stage: st.ID, Attempt: attempt, Violations: result.Violations})
		lastResult = result
	}

	return e.exhaust(st, state, record, attempt, ErrValidationFailure, errors.New(lastResult.Feedback()))
}

// invokeWithRetries calls the stage capability up to MaxRetries+1 times with
// exponential backoff, bounding each call by the stage timeout. Caller
// cancellation is surfaced as ErrCancelled; per-call timeouts count as
// capability failures and feed the retry policy.
func (e *Executor) invokeWithRetries(ctx context.Context, st *Stage, state *State, record *RunRecord, attempt *int) (Artifact, error) {
	backoff := st.RetryBackoff
	var lastErr error

	for try := 0; try <= st.MaxRetries; try++ {
		if err := ctx.Err(); err != nil {
			return Artifact{}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		if try > 0 {
			if err := e.sleep(ctx, backoff); err != nil {
				return Artifact{}, fmt.Errorf("%w: %v", ErrCancelled, err)
			}
			backoff *= 2
		}

		*attempt++
		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if st.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, st.Timeout)
		}
		artifact, err := st.Invoke(callCtx, state)
		cancel()

		if err == nil {
			if artifact.Kind == "" {
				artifact.Kind = st.Kind
			}
			return artifact, nil
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return Artifact{}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		lastErr = err
		record.add(st.ID, *attempt, OutcomeCapabilityError, nil)
		emitEvent(e.observer, RunEvent{Type: EventRetry, Stage: st.ID, Attempt: *attempt, Error: err})
	}

	return Artifact{}, lastErr
}

// exhaust applies the per-stage policy after retries run out: mandatory stages
// escalate to a terminal failure; others fall back to the templated default or
// the last-known-good output value, flagged degraded in the record.
func (e *Executor) exhaust(st *Stage, state *State, record *RunRecord, attempt int, kind error, cause error) (Artifact, bool, error) {
	if st.Mandatory {
		return Artifact{}, false, e.terminal(record, st.ID, kind, cause)
	}

	fallback := st.Fallback
	if fallback == "" {
		if len(st.ProducedOutputs) > 0 && state.Has(st.ProducedOutputs[0]) {
			// Keep the last-known-good value already in state.
			record.add(st.ID, attempt, OutcomeDegraded, nil)
			emitEvent(e.observer, RunEvent{Type: EventFallback, Stage: st.ID, Attempt: attempt})
			return Artifact{Kind: st.Kind}, true, nil
		}
		return Artifact{}, false, e.terminal(record, st.ID, kind, cause)
	}

	record.add(st.ID, attempt, OutcomeDegraded, nil)
	emitEvent(e.observer, RunEvent{Type: EventFallback, Stage: st.ID, Attempt: attempt})
	return Artifact{Kind: st.Kind, Text: fallback}, true, nil
}

// terminal records a terminal outcome and builds the failure error.
func (e *Executor) terminal(record *RunRecord, stageID string, kind, cause error) error {
	record.add(stageID, 0, OutcomeTerminal, nil)
	return &TerminalFailure{
		StageID: stageID,
		Kind:    kind,
		Cause:   cause,
		Tail:    record.Tail(5),
	}
}
