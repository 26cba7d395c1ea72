// Package pipeline implements a stage pipeline engine for LLM-backed
// processing: a directed graph of stages threaded by a single mutable state,
// with conditional edges governing transitions, bounded retry policies, and
// per-stage output validation. Concrete pipelines (mind-map extraction,
// document tailoring, market interpretation) are instances of this generic
// structure.
package pipeline

import "fmt"

// State is the named-field record threaded through all stages of one run.
// It is owned exclusively by the Executor for the run's duration; no other
// concurrent actor may read or write it.
type State struct {
	fields    map[string]any
	finals    map[string]bool
	revisions map[string]int
}

// NewState creates a State seeded with the caller's initial fields.
func NewState(initial map[string]any) *State {
	s := &State{
		fields:    make(map[string]any, len(initial)),
		finals:    make(map[string]bool),
		revisions: make(map[string]int),
	}
	for k, v := range initial {
		s.fields[k] = v
	}
	return s
}

// Get returns the value of a field and whether it is present.
func (s *State) Get(name string) (any, bool) {
	v, ok := s.fields[name]
	return v, ok
}

// GetString returns a field's value as a string, or "" if absent or non-string.
func (s *State) GetString(name string) string {
	v, ok := s.fields[name]
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// GetBool returns a field's value as a bool, or false if absent or non-bool.
func (s *State) GetBool(name string) bool {
	v, ok := s.fields[name]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Has reports whether a field is present and non-empty.
func (s *State) Has(name string) bool {
	v, ok := s.fields[name]
	if !ok {
		return false
	}
	if str, isStr := v.(string); isStr {
		return str != ""
	}
	return true
}

// Set writes a field by name. Writing a field marked final is an error;
// such updates must go through SetRevision or a new field name.
func (s *State) Set(name string, value any) error {
	if s.finals[name] {
		return fmt.Errorf("%w: %s", ErrFieldFinal, name)
	}
	s.fields[name] = value
	return nil
}

// MarkFinal freezes a field once it has been consumed as validated input by a
// later stage. Subsequent Set calls on the field fail with ErrFieldFinal.
func (s *State) MarkFinal(name string) {
	s.finals[name] = true
}

// SetRevision replaces a final field under an explicit revision counter. The
// prior value is preserved under "<name>@<rev>" so no content is silently lost.
func (s *State) SetRevision(name string, value any) int {
	if prior, ok := s.fields[name]; ok {
		s.revisions[name]++
		s.fields[fmt.Sprintf("%s@%d", name, s.revisions[name])] = prior
	}
	s.fields[name] = value
	return s.revisions[name]
}

// Revision returns the current revision counter for a field (0 if never revised).
func (s *State) Revision(name string) int {
	return s.revisions[name]
}

// Snapshot returns a copy of the field map for read-only evaluation, e.g. by
// edge predicates. Mutating the copy does not affect the state.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}
