package grounding

import (
	"strings"

	"groundwork/pkg/pipeline"
)

// HierarchyValidator adapts the grounding check to the engine's validator
// contract for outline ("hierarchy") artifacts: each bullet item of the
// generated outline must be attributable to the source text held in the
// named state field.
type HierarchyValidator struct {
	Checker     *Validator
	SourceField string
}

// NewHierarchyValidator builds a validator reading the source from sourceField.
func NewHierarchyValidator(sourceField string) *HierarchyValidator {
	return &HierarchyValidator{Checker: New(), SourceField: sourceField}
}

func (h *HierarchyValidator) Validate(a pipeline.Artifact, s *pipeline.State) pipeline.ValidationResult {
	source := s.GetString(h.SourceField)
	return h.Checker.Check(SplitOutline(a.Text), source)
}

// SplitOutline breaks an indented bullet outline into its item labels,
// stripping bullet markers and indentation. Blank lines are skipped.
func SplitOutline(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		item := strings.TrimSpace(line)
		item = strings.TrimLeft(item, "-*•")
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}
