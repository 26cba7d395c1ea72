package pipeline

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Edge is a conditional connection between two stages. When is an expression
// over the run state, compiled at graph build time and evaluated against
// {"state": <field snapshot>}. An empty When is the default ("else") edge:
// it always matches and must be declared last among a stage's edges.
type Edge struct {
	ID   string
	From string
	To   string
	When string

	program *vm.Program
}

// compile builds the edge's predicate program. Empty When compiles to nil.
func (e *Edge) compile() error {
	if e.When == "" {
		return nil
	}
	p, err := expr.Compile(e.When, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return fmt.Errorf("edge %s: compile %q: %w", e.ID, e.When, err)
	}
	e.program = p
	return nil
}

// IsDefault reports whether this edge matches unconditionally.
func (e *Edge) IsDefault() bool { return e.When == "" }

// Matches evaluates the edge predicate over the state. Default edges always
// match. A runtime evaluation error is surfaced as a graph defect.
func (e *Edge) Matches(s *State) (bool, error) {
	if e.program == nil {
		return true, nil
	}
	out, err := expr.Run(e.program, map[string]any{"state": s.Snapshot()})
	if err != nil {
		return false, fmt.Errorf("edge %s: evaluate %q: %w", e.ID, e.When, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("edge %s: predicate %q is not boolean", e.ID, e.When)
	}
	return b, nil
}
