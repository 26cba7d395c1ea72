package market

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"groundwork/pkg/pipeline"
)

// UnavailableMarker lets a generated plan opt out when no setup exists.
const UnavailableMarker = "Trade Plan Status: Unavailable"

// levelTolerance is the relative slack allowed between a quoted level and
// the computed zone it must come from.
const levelTolerance = 0.002

var planLineRe = regexp.MustCompile(`(?im)^\s*(entry|stop[ -]?loss|take[ -]?profit)\s*[:=]\s*\$?([0-9]+(?:\.[0-9]+)?)`)

// PlanValidator checks that a generated trade plan quotes levels that exist
// in the computed zones and that the setup is internally consistent. The
// zones come from the summary JSON stored under SummaryField.
type PlanValidator struct {
	SummaryField string
}

func (v PlanValidator) Validate(a pipeline.Artifact, s *pipeline.State) pipeline.ValidationResult {
	text := strings.TrimSpace(a.Text)
	if text == "" {
		return fail("", "plan is empty")
	}
	if strings.Contains(text, UnavailableMarker) {
		return pipeline.ValidationResult{OK: true}
	}

	var summary Summary
	if raw := s.GetString(v.SummaryField); raw != "" {
		if err := json.Unmarshal([]byte(raw), &summary); err != nil {
			return fail("", "summary is not decodable: "+err.Error())
		}
	}

	levels := map[string]float64{}
	for _, m := range planLineRe.FindAllStringSubmatch(text, -1) {
		key := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(m[1], " ", "-"), "_", "-"))
		val, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		levels[key] = val
	}

	var res pipeline.ValidationResult
	res.OK = true
	for _, want := range []string{"entry", "stop-loss", "take-profit"} {
		if _, ok := levels[want]; !ok {
			res = appendViolation(res, want, fmt.Sprintf("missing %s line", want))
		}
	}
	if !res.OK {
		res.Hint = "State Entry, Stop-Loss and Take-Profit on their own lines, or declare \"" + UnavailableMarker + "\"."
		return res
	}

	entry, stop, target := levels["entry"], levels["stop-loss"], levels["take-profit"]
	if !(stop < entry && entry < target) {
		res = appendViolation(res, "", fmt.Sprintf("levels out of order: stop %.2f, entry %.2f, target %.2f", stop, entry, target))
	}
	if entry > stop {
		if rr := (target - entry) / (entry - stop); rr < 1.0 {
			res = appendViolation(res, "", fmt.Sprintf("risk/reward %.2f below 1.0", rr))
		}
	}
	if !nearZone(stop, summary.Levels.Support) {
		res = appendViolation(res, "stop-loss", "stop-loss does not match any computed support zone")
	}
	if !nearZone(target, summary.Levels.Resistance) {
		res = appendViolation(res, "take-profit", "take-profit does not match any computed resistance zone")
	}
	if !res.OK {
		res.Hint = "Use only the support and resistance levels provided in the analysis; do not invent price levels."
	}
	return res
}

func nearZone(level float64, zones []Zone) bool {
	for _, z := range zones {
		if z.Level == 0 {
			continue
		}
		if math.Abs(level-z.Level)/z.Level <= levelTolerance {
			return true
		}
	}
	return false
}

func appendViolation(res pipeline.ValidationResult, span, msg string) pipeline.ValidationResult {
	res.OK = false
	res.Violations = append(res.Violations, pipeline.Violation{Span: span, Message: msg})
	return res
}

func fail(span, msg string) pipeline.ValidationResult {
	return pipeline.ValidationResult{
		Violations: []pipeline.Violation{{Span: span, Message: msg}},
		Hint:       "Produce a complete trade plan or declare \"" + UnavailableMarker + "\".",
	}
}
