package jobapp

import (
	"context"
	"strings"
	"testing"

	"groundwork/pkg/pipeline"
)

const jobDescription = `Senior Go engineer for a logistics platform team.
Kubernetes and distributed systems experience required.`

const sourceResume = `Jane Doe
Platform engineer.

EXPERIENCE
Build team lead.

SKILLS
Go, Kubernetes.

EDUCATION
BSc Computer Science.`

const tailoredResume = `Jane Doe

EXPERIENCE
Led the build platform team; migrated services to Kubernetes.

SKILLS
Go, Kubernetes, distributed systems.

EDUCATION
BSc Computer Science.`

const coverLetter = `Jane Doe

Dear hiring team,

I would like to apply for the senior Go engineer position.`

// stageGen answers each stage's prompt by matching its distinctive text.
func stageGen(match, tailored, letter string) pipeline.Generator {
	return pipeline.GeneratorFunc(func(ctx context.Context, prompt string, opts pipeline.GenerateOptions) (string, error) {
		switch {
		case strings.Contains(prompt, "match score"):
			return match, nil
		case strings.Contains(prompt, "cover letter"):
			return letter, nil
		default:
			return tailored, nil
		}
	})
}

func TestRun_ResumeOnly(t *testing.T) {
	gen := stageGen("Match score: 82. Strong Kubernetes overlap.", tailoredResume, coverLetter)

	state, record, err := Run(context.Background(), jobDescription, sourceResume, false, gen, pipeline.GenerateOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := state.GetString(FieldTailored); got != tailoredResume {
		t.Errorf("tailored resume = %q", got)
	}
	if state.Has(FieldCoverLetter) {
		t.Error("cover letter generated despite the flag being off")
	}
	if got := state.GetString(FieldName); got != "Jane Doe" {
		t.Errorf("person_name = %q, want Jane Doe", got)
	}
	if record.Degraded() {
		t.Errorf("clean run degraded: %+v", record.Attempts)
	}
}

func TestRun_WithCoverLetter(t *testing.T) {
	gen := stageGen("Match score: 82.", tailoredResume, coverLetter)

	state, _, err := Run(context.Background(), jobDescription, sourceResume, true, gen, pipeline.GenerateOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := state.GetString(FieldCoverLetter); got != coverLetter {
		t.Errorf("cover letter = %q", got)
	}
}

func TestRun_FencedResumeRepaired(t *testing.T) {
	fenced := "```\n" + tailoredResume + "\n```"
	tailorCalls := 0
	gen := pipeline.GeneratorFunc(func(ctx context.Context, prompt string, opts pipeline.GenerateOptions) (string, error) {
		switch {
		case strings.Contains(prompt, "match score"):
			return "Match score: 70.", nil
		case strings.Contains(prompt, "cover letter"):
			return coverLetter, nil
		default:
			tailorCalls++
			return fenced, nil
		}
	})

	state, record, err := Run(context.Background(), jobDescription, sourceResume, false, gen, pipeline.GenerateOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tailorCalls != 1 {
		t.Errorf("tailor stage generated %d times, want 1 (mechanical repair)", tailorCalls)
	}
	if strings.Contains(state.GetString(FieldTailored), "```") {
		t.Error("fences survive in accepted resume")
	}
	repaired := false
	for _, a := range record.AttemptsFor("tailor-resume") {
		if a.Outcome == pipeline.OutcomeRepaired {
			repaired = true
		}
	}
	if !repaired {
		t.Errorf("no repaired outcome recorded: %+v", record.AttemptsFor("tailor-resume"))
	}
}

func TestRun_MissingSectionRegenerated(t *testing.T) {
	incomplete := "Jane Doe\n\nEXPERIENCE\nwork\n\nSKILLS\nGo"
	tailorCalls := 0
	gen := pipeline.GeneratorFunc(func(ctx context.Context, prompt string, opts pipeline.GenerateOptions) (string, error) {
		if strings.Contains(prompt, "match score") {
			return "Match score: 70.", nil
		}
		tailorCalls++
		if tailorCalls == 1 {
			return incomplete, nil
		}
		return tailoredResume, nil
	})

	state, _, err := Run(context.Background(), jobDescription, sourceResume, false, gen, pipeline.GenerateOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tailorCalls != 2 {
		t.Errorf("tailor stage generated %d times, want 2 (content regeneration)", tailorCalls)
	}
	if got := state.GetString(FieldTailored); got != tailoredResume {
		t.Errorf("tailored resume = %q, want the corrected version", got)
	}
}

func TestRun_HeaderlessResumeUsesFallbackName(t *testing.T) {
	headerless := "RESUME 2026\n\nEXPERIENCE\nwork"
	gen := stageGen("Match score: 50.", "Candidate Name\n\nEXPERIENCE\nwork\n\nSKILLS\nGo\n\nEDUCATION\nBSc", coverLetter)

	state, _, err := Run(context.Background(), jobDescription, headerless, false, gen, pipeline.GenerateOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := state.GetString(FieldName); got != "Candidate Name" {
		t.Errorf("person_name = %q, want the fallback", got)
	}
}

func TestDef_CoverLetterRoutingIsExclusive(t *testing.T) {
	def := Def()
	if len(def.Exclusive) != 1 || def.Exclusive[0] != "tailor-resume" {
		t.Errorf("exclusive stages = %v, want [tailor-resume]", def.Exclusive)
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("definition invalid: %v", err)
	}
}
