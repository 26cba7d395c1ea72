// Package diagram validates and repairs generated Mermaid "graph TD" sources
// so downstream renderers always receive a parseable artifact. Validation is
// structural: identifier declaration before use, no conflicting redefinition,
// exactly one root node, sanitized labels. Repair is limited to mechanical
// edits; anything requiring semantic judgment is left to regeneration.
package diagram

import (
	"fmt"
	"regexp"
	"strings"

	"groundwork/pkg/pipeline"
)

// Header is the required first line of a diagram artifact.
const Header = "graph TD"

// Placeholder is the minimal valid artifact emitted when generation and
// repair are both exhausted, so rendering never receives unparseable input.
const Placeholder = Header + "\nA((Main Topic))"

// MaxNodes bounds the diagram size; outlines are expected to stay compact.
const MaxNodes = 20

// maxRepairEdits bounds how many local edits one Repair call may apply.
const maxRepairEdits = 8

var (
	nodeRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)\s*(\(\((.+)\)\)|\(([^()]*)\))$`)
	edgeRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)\s*(?:\(\((.+)\)\)|\(([^()]*)\))?\s*-->\s*([A-Za-z][A-Za-z0-9_]*)\s*(?:\(\((.+)\)\)|\(([^()]*)\))?$`)
)

type node struct {
	id    string
	label string
	root  bool
	line  int
}

type edge struct {
	from string
	to   string
	line int
}

type parsed struct {
	lines     []string
	nodes     []node
	edges     []edge
	badLines  []int
	declared  map[string]int // id -> line of first declaration
	conflicts map[string]int // id -> line of conflicting redeclaration
}

// Validator implements both the validation and repair contracts for the
// "diagram-source" artifact kind.
type Validator struct{}

func New() *Validator { return &Validator{} }

// Validate reports every structural violation in order of appearance.
func (v *Validator) Validate(a pipeline.Artifact, _ *pipeline.State) pipeline.ValidationResult {
	text := strings.TrimSpace(a.Text)
	if text == "" {
		return pipeline.Failed("", pipeline.Violation{Message: "empty diagram source"})
	}

	var violations []pipeline.Violation
	if !strings.HasPrefix(text, Header) {
		violations = append(violations, pipeline.Violation{
			Span:    firstLine(text),
			Message: "output must start with \"" + Header + "\"",
		})
		return pipeline.Failed(regenerateHint(), violations...)
	}

	p := parse(text)

	for _, ln := range p.badLines {
		violations = append(violations, pipeline.Violation{
			Span:    p.lines[ln],
			Message: fmt.Sprintf("line %d: not a valid node or edge statement", ln+1),
		})
	}

	for id, ln := range p.conflicts {
		violations = append(violations, pipeline.Violation{
			Span:    p.lines[ln],
			Message: fmt.Sprintf("line %d: node %s redeclared with a different label", ln+1, id),
		})
	}

	for _, e := range p.edges {
		for _, id := range []string{e.from, e.to} {
			declLine, ok := p.declared[id]
			if !ok {
				violations = append(violations, pipeline.Violation{
					Span:    p.lines[e.line],
					Message: fmt.Sprintf("line %d: node %s referenced but never declared", e.line+1, id),
				})
			} else if declLine > e.line {
				violations = append(violations, pipeline.Violation{
					Span:    p.lines[e.line],
					Message: fmt.Sprintf("line %d: node %s referenced before its declaration on line %d", e.line+1, id, declLine+1),
				})
			}
		}
	}

	roots := 0
	for _, n := range p.nodes {
		if n.root {
			roots++
		}
	}
	if roots == 0 {
		violations = append(violations, pipeline.Violation{Message: "no root node: exactly one ID((Label)) is required"})
	}
	if roots > 1 {
		violations = append(violations, pipeline.Violation{Message: fmt.Sprintf("%d root nodes: exactly one ID((Label)) is allowed", roots)})
	}

	for _, n := range p.nodes {
		if bad := labelProblem(n.label); bad != "" {
			violations = append(violations, pipeline.Violation{
				Span:    n.label,
				Message: fmt.Sprintf("line %d: label %s", n.line+1, bad),
			})
		}
	}

	if len(p.declared) > MaxNodes {
		violations = append(violations, pipeline.Violation{
			Message: fmt.Sprintf("%d nodes exceeds the limit of %d", len(p.declared), MaxNodes),
		})
	}

	if len(violations) > 0 {
		return pipeline.Failed(regenerateHint(), violations...)
	}
	return pipeline.Passed()
}

func regenerateHint() string {
	return "Output ONLY valid Mermaid code starting with \"graph TD\": one root ID((Label)), " +
		"plain nodes ID(Label), edges A --> B1(Label); declare every node before referencing it; " +
		"no parentheses, quotes, or non-ASCII characters inside labels."
}

// parse splits a diagram source into nodes, edges, and unparseable lines.
// Inline labels on edge endpoints count as declarations.
func parse(text string) *parsed {
	p := &parsed{
		lines:     strings.Split(text, "\n"),
		declared:  make(map[string]int),
		conflicts: make(map[string]int),
	}
	labels := make(map[string]string)

	declare := func(id, label string, root bool, line int) {
		if prior, ok := p.declared[id]; ok {
			if label != "" && labels[id] != "" && labels[id] != label {
				if _, seen := p.conflicts[id]; !seen {
					p.conflicts[id] = line
				}
			}
			_ = prior
			return
		}
		if label == "" {
			return // bare reference, not a declaration
		}
		p.declared[id] = line
		labels[id] = label
		p.nodes = append(p.nodes, node{id: id, label: label, root: root, line: line})
	}

	for i, raw := range p.lines {
		line := strings.TrimSpace(raw)
		if i == 0 || line == "" {
			continue
		}
		if m := nodeRe.FindStringSubmatch(line); m != nil {
			label, root := m[3], true
			if label == "" {
				label, root = m[4], false
			}
			declare(m[1], label, root, i)
			continue
		}
		if m := edgeRe.FindStringSubmatch(line); m != nil {
			fromLabel, fromRoot := m[2], true
			if fromLabel == "" {
				fromLabel, fromRoot = m[3], false
			}
			toLabel, toRoot := m[5], true
			if toLabel == "" {
				toLabel, toRoot = m[6], false
			}
			declare(m[1], fromLabel, fromRoot, i)
			declare(m[4], toLabel, toRoot, i)
			p.edges = append(p.edges, edge{from: m[1], to: m[4], line: i})
			continue
		}
		p.badLines = append(p.badLines, i)
	}
	return p
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

// labelProblem names the first sanitization rule a label breaks, or "".
func labelProblem(label string) string {
	if strings.ContainsAny(label, "()") {
		return "contains parentheses"
	}
	if strings.ContainsAny(label, `"`) {
		return "contains double quotes"
	}
	for _, r := range label {
		if r > 127 {
			return fmt.Sprintf("contains non-ASCII character %q", r)
		}
	}
	return ""
}
