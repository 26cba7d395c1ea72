// Package document validates tailored-document artifacts (ATS-friendly
// resumes and cover letters) before they reach exporters: machine readers
// need the candidate name as the first line, plain-text section headers, and
// no markdown fences.
package document

import (
	"fmt"
	"regexp"
	"strings"

	"groundwork/pkg/pipeline"
)

// RequiredSections are the standard headers a tailored resume must carry.
var RequiredSections = []string{"EXPERIENCE", "SKILLS", "EDUCATION"}

// NameRe extracts a candidate name from the first resume line: two or three
// capitalized words at the start.
var NameRe = regexp.MustCompile(`^([A-Z][a-z]+(?:\s[A-Z][a-z]+){1,2})`)

// FallbackName is used when no name can be extracted from the source resume.
const FallbackName = "Candidate Name"

// ExtractName pulls the candidate name from the first line of a resume,
// falling back to a generic placeholder.
func ExtractName(resume string) string {
	first := strings.TrimSpace(strings.SplitN(resume, "\n", 2)[0])
	if m := NameRe.FindString(first); m != "" {
		return strings.TrimSpace(m)
	}
	return FallbackName
}

// Validator checks a "document" artifact: first line is the candidate name
// recorded in the NameField state field, the required sections are present,
// and the text carries no markdown fences.
type Validator struct {
	NameField string
	Sections  []string
}

// New builds a Validator reading the expected name from nameField.
func New(nameField string) *Validator {
	return &Validator{NameField: nameField, Sections: RequiredSections}
}

func (v *Validator) Validate(a pipeline.Artifact, s *pipeline.State) pipeline.ValidationResult {
	text := strings.TrimSpace(a.Text)
	if text == "" {
		return pipeline.Failed("", pipeline.Violation{Message: "empty document"})
	}

	var violations []pipeline.Violation

	if strings.Contains(text, "```") {
		violations = append(violations, pipeline.Violation{Message: "document contains markdown code fences"})
	}

	name := s.GetString(v.NameField)
	if name != "" {
		first := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
		if !strings.Contains(first, name) {
			violations = append(violations, pipeline.Violation{
				Span:    first,
				Message: fmt.Sprintf("first line must be the candidate name %q", name),
			})
		}
	}

	upper := strings.ToUpper(text)
	for _, sec := range v.Sections {
		if !strings.Contains(upper, sec) {
			violations = append(violations, pipeline.Violation{
				Span:    sec,
				Message: "missing required section header",
			})
		}
	}

	if len(violations) > 0 {
		return pipeline.Failed(
			"Return the plain-text document only: candidate name on the first line, "+
				"standard section headers, no code fences.", violations...)
	}
	return pipeline.Passed()
}

// Repairer fixes the mechanical violations: fences are stripped and a known
// candidate name is prepended. A missing section is a content problem and is
// left to regeneration.
type Repairer struct {
	Name string
}

func (r *Repairer) Repair(a pipeline.Artifact, violations []pipeline.Violation) (pipeline.Artifact, bool) {
	text := strings.TrimSpace(a.Text)
	changed := false

	if strings.Contains(text, "```") {
		text = strings.TrimSpace(strings.ReplaceAll(text, "```", ""))
		changed = true
	}

	if r.Name != "" {
		first := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
		if !strings.Contains(first, r.Name) {
			text = r.Name + "\n\n" + text
			changed = true
		}
	}

	if !changed {
		return pipeline.Artifact{}, false
	}
	return pipeline.Artifact{Kind: a.Kind, Text: text}, true
}
