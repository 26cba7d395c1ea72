// Package grounding checks that generated hierarchical or claims content is
// traceable to the source text it was derived from, so fabricated content
// never propagates downstream as verified fact.
package grounding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"groundwork/pkg/pipeline"
)

// DefaultThreshold is the minimum fraction of an item's salient terms that
// must have source support. The value is a documented tunable: it favors
// catching fabrications over precision on borderline paraphrase, because
// downstream consumers treat passed content as verified fact.
const DefaultThreshold = 0.5

// Validator checks generated items against a source text. Matching is
// paraphrase-tolerant term overlap, with strict checks for numbers and
// proper nouns: those must appear in the source or the item fails.
type Validator struct {
	Threshold float64
}

// New returns a Validator with the default support threshold.
func New() *Validator {
	return &Validator{Threshold: DefaultThreshold}
}

// Check validates each generated item against the source text. An item with
// no discoverable support is a violation naming the item and its position.
// An empty item sequence fails with a dedicated violation rather than
// vacuously passing.
func (v *Validator) Check(items []string, source string) pipeline.ValidationResult {
	if len(items) == 0 {
		return pipeline.Failed("", pipeline.Violation{Message: "no content to validate"})
	}

	sourceTerms := termSet(source)
	sourceNums := numberSet(source)

	var violations []pipeline.Violation
	for i, item := range items {
		violations = append(violations, v.checkItem(i, item, sourceTerms, sourceNums)...)
	}

	if len(violations) > 0 {
		return pipeline.Failed(
			"Remove or correct items that are not supported by the source text; do not invent facts.",
			violations...)
	}
	return pipeline.Passed()
}

func (v *Validator) checkItem(pos int, item string, sourceTerms map[string]bool, sourceNums []float64) []pipeline.Violation {
	var out []pipeline.Violation

	for _, n := range extractNumbers(item) {
		if !containsNumber(sourceNums, n) {
			out = append(out, pipeline.Violation{
				Span:    item,
				Message: fmt.Sprintf("item %d: number %s has no match in source", pos+1, formatNumber(n)),
			})
		}
	}

	for _, noun := range properNouns(item) {
		if !sourceTerms[stem(strings.ToLower(noun))] {
			out = append(out, pipeline.Violation{
				Span:    item,
				Message: fmt.Sprintf("item %d: proper noun %q not found in source", pos+1, noun),
			})
		}
	}

	salient := salientTerms(item)
	if len(salient) > 0 {
		hits := 0
		for _, t := range salient {
			if sourceTerms[t] {
				hits++
			}
		}
		threshold := v.Threshold
		if threshold == 0 {
			threshold = DefaultThreshold
		}
		if score := float64(hits) / float64(len(salient)); score < threshold {
			out = append(out, pipeline.Violation{
				Span:    item,
				Message: fmt.Sprintf("item %d: insufficient source support (%.2f)", pos+1, score),
			})
		}
	}

	return out
}

// stopwords are excluded from salience scoring and proper-noun checks.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"in": true, "on": true, "to": true, "for": true, "with": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "by": true, "at": true,
	"as": true, "it": true, "its": true, "this": true, "that": true,
	"from": true, "per": true, "via": true, "has": true, "have": true,
}

// wordNumbers lets numerals match their spelled-out source forms.
var wordNumbers = map[string]float64{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

var tokenRe = regexp.MustCompile(`[a-zA-Z]+|\d+(?:\.\d+)?`)

func tokens(text string) []string {
	return tokenRe.FindAllString(text, -1)
}

// stem trims common suffixes for paraphrase-tolerant matching.
func stem(t string) string {
	if len(t) > 5 {
		for _, suf := range []string{"ing", "ed", "es"} {
			if strings.HasSuffix(t, suf) {
				return t[:len(t)-len(suf)]
			}
		}
	}
	if len(t) > 3 && strings.HasSuffix(t, "s") {
		return t[:len(t)-1]
	}
	return t
}

func termSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range tokens(strings.ToLower(text)) {
		set[t] = true
		set[stem(t)] = true
	}
	return set
}

func salientTerms(item string) []string {
	var out []string
	for _, t := range tokens(strings.ToLower(item)) {
		if stopwords[t] {
			continue
		}
		out = append(out, stem(t))
	}
	return out
}

var numberRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(million|billion|thousand|bn|mn|k|%)?`)

// extractNumbers pulls numeric values from text, resolving magnitude words
// so "5.5 million" and "5500000" compare equal. Spelled-out small numbers
// are included so "nine countries" supports "9 countries".
func extractNumbers(text string) []float64 {
	var out []float64
	for _, m := range numberRe.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(m[1], ",", "")
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		switch m[2] {
		case "thousand", "k":
			n *= 1e3
		case "million", "mn":
			n *= 1e6
		case "billion", "bn":
			n *= 1e9
		}
		out = append(out, n)
	}
	for _, t := range tokens(strings.ToLower(text)) {
		if n, ok := wordNumbers[t]; ok {
			out = append(out, n)
		}
	}
	return out
}

// numberSet returns source numbers both raw and magnitude-resolved, so an
// item's "5.5" and "5.5 million" each find support in "5.5 million".
func numberSet(source string) []float64 {
	nums := extractNumbers(source)
	for _, m := range numberRe.FindAllStringSubmatch(source, -1) {
		raw := strings.ReplaceAll(m[1], ",", "")
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			nums = append(nums, n)
		}
	}
	return nums
}

func containsNumber(set []float64, n float64) bool {
	for _, s := range set {
		if equalNumber(s, n) {
			return true
		}
	}
	return false
}

func equalNumber(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	scale := a
	if scale < 0 {
		scale = -scale
	}
	if scale < 1 {
		scale = 1
	}
	return diff <= scale*1e-9
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

var properRe = regexp.MustCompile(`\b[A-Z][a-z]+\b`)

// properNouns returns capitalized tokens that are not stopwords. Items are
// short labels rather than prose, so sentence-initial capitals are treated
// the same as any other capitalized token.
func properNouns(item string) []string {
	var out []string
	for _, m := range properRe.FindAllString(item, -1) {
		if stopwords[strings.ToLower(m)] {
			continue
		}
		out = append(out, m)
	}
	return out
}
