// Package jobapp tailors a resume to a job description and optionally writes
// a matching cover letter. Generated documents are validated for machine
// readability before they are accepted; the cover-letter stage runs only when
// the caller asked for one.
package jobapp

import (
	"context"
	"fmt"
	"strings"

	"groundwork/internal/document"
	"groundwork/pkg/pipeline"
)

// State fields used by the application pipeline.
const (
	FieldJob         = "job_description"
	FieldResume      = "original_resume"
	FieldName        = "person_name"
	FieldMatch       = "match_score"
	FieldTailored    = "adjusted_resume"
	FieldCoverLetter = "cover_letter"
	FieldWantLetter  = "generate_cover_letter"
)

const matchPrompt = `Rate how well the resume below matches the job
description. Respond with a match score from 0 to 100 on the first line,
then a short list of the strongest overlaps and the biggest gaps.

Job description:
%s

Resume:
%s`

const tailorPrompt = `Rewrite the resume below so it targets the job
description, keeping every claim truthful to the original resume. Output
plain text only: the candidate name "%s" on the first line, then the
standard EXPERIENCE, SKILLS and EDUCATION sections. No markdown fences.

Job description:
%s

Original resume:
%s

Match analysis:
%s
%s`

const letterPrompt = `Write a one-page cover letter for the candidate below.
Output plain text only, starting with the candidate name "%s" on the first
line. No markdown fences.

Job description:
%s

Tailored resume:
%s
%s`

// Def declares the application pipeline. The cover-letter branch is guarded
// by the generate_cover_letter flag; the default edge finishes the run.
func Def() *pipeline.Def {
	return &pipeline.Def{
		Pipeline:    "job-application",
		Description: "tailored resume and optional cover letter",
		Entry:       "analyze-match",
		Exclusive:   []string{"tailor-resume"},
		Stages: []pipeline.StageDef{
			{
				ID:             "analyze-match",
				Inputs:         []string{FieldJob, FieldResume},
				Outputs:        []string{FieldMatch},
				Kind:           string(pipeline.KindText),
				Mandatory:      true,
				MaxRetries:     2,
				RetryBackoffMs: 500,
			},
			{
				ID:                   "tailor-resume",
				Inputs:               []string{FieldJob, FieldResume, FieldName, FieldMatch},
				Outputs:              []string{FieldTailored},
				Kind:                 string(pipeline.KindDocument),
				Mandatory:            true,
				MaxRetries:           2,
				RetryBackoffMs:       500,
				MaxValidationRetries: 2,
			},
			{
				ID:                   "write-cover-letter",
				Inputs:               []string{FieldJob, FieldTailored, FieldName},
				Outputs:              []string{FieldCoverLetter},
				Kind:                 string(pipeline.KindDocument),
				MaxRetries:           2,
				RetryBackoffMs:       500,
				MaxValidationRetries: 1,
			},
		},
		Edges: []pipeline.EdgeDef{
			{ID: "analyze-to-tailor", From: "analyze-match", To: "tailor-resume"},
			{
				ID:   "tailor-to-letter",
				From: "tailor-resume",
				To:   "write-cover-letter",
				When: "state.generate_cover_letter == true",
			},
			{ID: "tailor-done", From: "tailor-resume", To: pipeline.DoneStage},
			{ID: "letter-done", From: "write-cover-letter", To: pipeline.DoneStage},
		},
	}
}

// Bindings wires the pipeline to a generator. The candidate name is fixed
// per run so the repairer can restore it mechanically.
func Bindings(gen pipeline.Generator, opts pipeline.GenerateOptions, name string) pipeline.Registry {
	return pipeline.Registry{
		"analyze-match": {
			Invoke: func(ctx context.Context, s *pipeline.State) (pipeline.Artifact, error) {
				prompt := fmt.Sprintf(matchPrompt, s.GetString(FieldJob), s.GetString(FieldResume))
				text, err := gen.Generate(ctx, prompt, opts)
				if err != nil {
					return pipeline.Artifact{}, err
				}
				return pipeline.Artifact{Kind: pipeline.KindText, Text: strings.TrimSpace(text)}, nil
			},
		},
		"tailor-resume": {
			Invoke: func(ctx context.Context, s *pipeline.State) (pipeline.Artifact, error) {
				prompt := fmt.Sprintf(tailorPrompt, s.GetString(FieldName),
					s.GetString(FieldJob), s.GetString(FieldResume), s.GetString(FieldMatch),
					feedback(s, "tailor-resume"))
				text, err := gen.Generate(ctx, prompt, opts)
				if err != nil {
					return pipeline.Artifact{}, err
				}
				return pipeline.Artifact{Kind: pipeline.KindDocument, Text: strings.TrimSpace(text)}, nil
			},
			Validator: document.New(FieldName),
			Repairer:  &document.Repairer{Name: name},
		},
		"write-cover-letter": {
			Invoke: func(ctx context.Context, s *pipeline.State) (pipeline.Artifact, error) {
				prompt := fmt.Sprintf(letterPrompt, s.GetString(FieldName),
					s.GetString(FieldJob), s.GetString(FieldTailored),
					feedback(s, "write-cover-letter"))
				text, err := gen.Generate(ctx, prompt, opts)
				if err != nil {
					return pipeline.Artifact{}, err
				}
				return pipeline.Artifact{Kind: pipeline.KindDocument, Text: strings.TrimSpace(text)}, nil
			},
			Validator: &document.Validator{NameField: FieldName},
			Repairer:  &document.Repairer{Name: name},
		},
	}
}

// Run executes the pipeline for one job description and resume.
func Run(ctx context.Context, job, resume string, coverLetter bool, gen pipeline.Generator, opts pipeline.GenerateOptions, exec ...pipeline.ExecutorOption) (*pipeline.State, *pipeline.RunRecord, error) {
	name := document.ExtractName(resume)
	graph, err := Def().Build(Bindings(gen, opts, name))
	if err != nil {
		return nil, nil, err
	}
	state := pipeline.NewState(map[string]any{
		FieldJob:        job,
		FieldResume:     resume,
		FieldName:       name,
		FieldWantLetter: coverLetter,
	})
	return pipeline.NewExecutor(graph, exec...).Run(ctx, state, "")
}

func feedback(s *pipeline.State, stage string) string {
	fb := s.GetString(pipeline.FeedbackField(stage))
	if fb == "" {
		return ""
	}
	return "\nPrevious attempt was rejected:\n" + fb
}
