package pipeline

// ArtifactKind selects which validator applies to a stage's generated output.
type ArtifactKind string

const (
	KindHierarchy ArtifactKind = "hierarchy"
	KindDiagram   ArtifactKind = "diagram-source"
	KindDocument  ArtifactKind = "document"
	KindPlan      ArtifactKind = "plan"
	KindText      ArtifactKind = "text" // unvalidated free text
)

// Artifact is the raw output of one stage invocation plus its declared kind.
type Artifact struct {
	Kind ArtifactKind
	Text string
}

// Violation names one offending content span or field in a validation result.
type Violation struct {
	Span    string // the offending item text, line, or field name
	Message string
}

func (v Violation) String() string {
	if v.Span == "" {
		return v.Message
	}
	return v.Message + ": " + v.Span
}

// ValidationResult is the outcome of checking a generated artifact. Violations
// are ordered; Hint is a remediation hint consumed by the retry policy and
// appended as corrective context on regeneration.
type ValidationResult struct {
	OK         bool
	Violations []Violation
	Hint       string
}

// Passed is the canonical all-clear result.
func Passed() ValidationResult { return ValidationResult{OK: true} }

// Failed builds a failing result from ordered violations.
func Failed(hint string, violations ...Violation) ValidationResult {
	return ValidationResult{OK: false, Violations: violations, Hint: hint}
}

// Feedback renders violations as corrective context for a regeneration prompt.
func (r ValidationResult) Feedback() string {
	if r.OK {
		return ""
	}
	out := "The previous output had the following problems:\n"
	for _, v := range r.Violations {
		out += "- " + v.String() + "\n"
	}
	if r.Hint != "" {
		out += r.Hint + "\n"
	}
	return out
}

// Validator checks a stage's artifact against the run state before the
// Executor accepts its outputs.
type Validator interface {
	Validate(a Artifact, s *State) ValidationResult
}

// Repairer attempts bounded local repair of mechanically fixable violations.
// It returns the repaired artifact and true, or the zero Artifact and false
// when the violations require semantic judgment.
type Repairer interface {
	Repair(a Artifact, violations []Violation) (Artifact, bool)
}
