package diagram

import (
	"regexp"
	"strings"

	"groundwork/pkg/pipeline"
)

var idRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Repair applies bounded mechanical fixes: markdown fence and prose
// stripping, label sanitization, moving late declarations above their first
// use, suffixing conflicting redeclarations, root promotion/demotion, and
// dropping a trailing malformed line. Violations requiring semantic judgment
// (a node never declared anywhere, too many nodes) are not repaired here;
// the stage falls back to regeneration with the violation list as feedback.
func (v *Validator) Repair(a pipeline.Artifact, _ []pipeline.Violation) (pipeline.Artifact, bool) {
	edits := 0

	text, n := Extract(a.Text)
	edits += n

	text, n = sanitizeText(text)
	edits += n

	text, n = fixLines(text)
	edits += n

	text, n = fixStructure(text)
	edits += n

	if edits == 0 || edits > maxRepairEdits {
		return pipeline.Artifact{}, false
	}
	return pipeline.Artifact{Kind: a.Kind, Text: text}, true
}

// Extract isolates the Mermaid source from surrounding markdown fences and
// leading prose, mirroring how model output is cleaned before rendering.
func Extract(text string) (string, int) {
	edits := 0
	text = strings.TrimSpace(text)

	if i := strings.Index(text, "```mermaid"); i >= 0 {
		rest := text[i+len("```mermaid"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		text = strings.TrimSpace(rest)
		edits++
	} else if strings.Contains(text, "```") {
		text = strings.TrimSpace(strings.ReplaceAll(text, "```", ""))
		edits++
	}

	if i := strings.Index(text, Header); i > 0 {
		text = strings.TrimSpace(text[i:])
		edits++
	} else if i < 0 && !strings.HasPrefix(text, "graph") {
		text = Header + "\n" + text
		edits++
	}
	return text, edits
}

var smartQuotes = strings.NewReplacer(
	"‘", "'", "’", "'", "“", "'", "”", "'", `"`, "'",
)

// sanitizeText normalizes quotes and drops non-ASCII runes, which the
// renderer cannot parse inside labels.
func sanitizeText(text string) (string, int) {
	out := smartQuotes.Replace(text)
	out = strings.Map(func(r rune) rune {
		if r > 127 {
			return -1
		}
		return r
	}, out)
	if out != text {
		return out, 1
	}
	return text, 0
}

// fixLines rebuilds statements whose labels carry inner or unbalanced
// parentheses, e.g. "B1(Graph Neural Networks (GNNs))".
func fixLines(text string) (string, int) {
	lines := strings.Split(text, "\n")
	edits := 0
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if i == 0 || line == "" || nodeRe.MatchString(line) || edgeRe.MatchString(line) {
			continue
		}
		fixed, changed := fixLine(line)
		if changed {
			lines[i] = fixed
			edits++
		}
	}
	return strings.Join(lines, "\n"), edits
}

func fixLine(line string) (string, bool) {
	parts := strings.Split(line, "-->")
	changed := false
	for i, part := range parts {
		fixed, ok := fixSegment(part)
		if ok {
			parts[i] = fixed
			changed = true
		} else {
			parts[i] = strings.TrimSpace(part)
		}
	}
	if !changed {
		return line, false
	}
	return strings.Join(parts, " --> "), true
}

// fixSegment rewrites one "ID(label)" or "ID((label))" segment, stripping
// parentheses from the label body and restoring balanced delimiters.
func fixSegment(seg string) (string, bool) {
	seg = strings.TrimSpace(seg)
	i := strings.IndexByte(seg, '(')
	if i <= 0 {
		return seg, false
	}
	id := strings.TrimSpace(seg[:i])
	if !idRe.MatchString(id) {
		return seg, false
	}
	rest := strings.TrimSpace(seg[i:])
	open := 1
	if strings.HasPrefix(rest, "((") {
		open = 2
	}
	content := strings.Trim(rest, "()")
	content = strings.NewReplacer("(", " ", ")", " ").Replace(content)
	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return seg, false
	}
	if open == 2 {
		return id + "((" + content + "))", true
	}
	return id + "(" + content + ")", true
}

// fixStructure reorders late declarations above their uses, suffixes
// conflicting redeclarations, normalizes the root count, and drops a trailing
// malformed line.
func fixStructure(text string) (string, int) {
	edits := 0
	p := parse(text)
	lines := append([]string(nil), p.lines...)

	// A declaration below its first use moves to just under the header,
	// which precedes every possible use. A standalone declaration line moves
	// as-is; a declaration inline on an edge stays put and a synthesized
	// standalone declaration is inserted instead, so the edge's other
	// endpoint keeps its position relative to its own declaration.
	handled := map[string]bool{}
	moved := map[int]bool{}
	var inserts []string
	for _, e := range p.edges {
		for _, id := range []string{e.from, e.to} {
			declLine, ok := p.declared[id]
			if !ok || declLine <= e.line || handled[id] {
				continue
			}
			handled[id] = true
			if nodeRe.MatchString(strings.TrimSpace(lines[declLine])) {
				moved[declLine] = true
			} else {
				for _, n := range p.nodes {
					if n.id != id {
						continue
					}
					stmt := n.id + "(" + n.label + ")"
					if n.root {
						stmt = n.id + "((" + n.label + "))"
					}
					inserts = append(inserts, stmt)
					break
				}
			}
			edits++
		}
	}
	if len(moved) > 0 || len(inserts) > 0 {
		var head, body []string
		for i, line := range lines {
			if moved[i] {
				head = append(head, strings.TrimSpace(line))
			} else {
				body = append(body, line)
			}
		}
		head = append(head, inserts...)
		if len(body) > 0 {
			lines = append([]string{body[0]}, append(head, body[1:]...)...)
		}
	}

	// Conflicting redeclaration keeps the first definition; the second gets
	// a disambiguating suffix.
	for id, ln := range p.conflicts {
		lines[lineIndexAfterMove(lines, p.lines[ln])] = strings.Replace(lines[lineIndexAfterMove(lines, p.lines[ln])], id, id+"_2", 1)
		edits++
	}

	text = strings.Join(lines, "\n")
	p = parse(text)
	lines = append([]string(nil), p.lines...)

	roots := 0
	for _, n := range p.nodes {
		if n.root {
			roots++
		}
	}
	if roots == 0 && len(p.nodes) > 0 {
		first := p.nodes[0]
		lines[first.line] = strings.Replace(lines[first.line],
			first.id+"("+first.label+")", first.id+"(("+first.label+"))", 1)
		edits++
	}
	if roots > 1 {
		seen := false
		for _, n := range p.nodes {
			if !n.root {
				continue
			}
			if !seen {
				seen = true
				continue
			}
			lines[n.line] = strings.Replace(lines[n.line],
				n.id+"(("+n.label+"))", n.id+"("+n.label+")", 1)
			edits++
		}
	}

	// Only a trailing malformed line is safely droppable.
	if len(p.badLines) > 0 {
		last := p.badLines[len(p.badLines)-1]
		if last == lastContentLine(lines) {
			lines = append(lines[:last], lines[last+1:]...)
			edits++
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), edits
}

func lineIndexAfterMove(lines []string, original string) int {
	for i, l := range lines {
		if l == original {
			return i
		}
	}
	return 0
}

func lastContentLine(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return -1
}
