// Package mindmap turns a web page into a grounded Mermaid mind map: fetch
// the page text, summarize it into an outline whose every item must be
// supported by the page, then render the outline as a mind-map diagram.
package mindmap

import (
	"context"
	"fmt"
	"strings"

	"groundwork/internal/diagram"
	"groundwork/internal/grounding"
	"groundwork/pkg/pipeline"
)

// State fields used by the mind-map pipeline.
const (
	FieldURL     = "source_url"
	FieldSource  = "source_text"
	FieldOutline = "outline"
	FieldDiagram = "mermaid"
)

const outlinePrompt = `Summarize the article below as a flat bullet list of
its key facts, one fact per line, each line starting with "- ". Use only
names and numbers that appear in the article; do not add outside knowledge.

Article:
%s
%s`

const diagramPrompt = `Convert the outline below into a Mermaid mind map.
Rules:
- first line must be exactly "graph TD"
- exactly one root node, declared as A((Root Topic))
- every other node appears as ID(Label) on an edge line: A --> B1(Label)
- declare nodes before referencing them, at most %d nodes
- labels must be plain ASCII without parentheses or quotes
Output only the Mermaid code.

Outline:
%s
%s`

// Def declares the mind-map pipeline.
func Def() *pipeline.Def {
	return &pipeline.Def{
		Pipeline:    "mindmap",
		Description: "grounded Mermaid mind map from a web page",
		Entry:       "fetch-source",
		Stages: []pipeline.StageDef{
			{
				ID:             "fetch-source",
				Inputs:         []string{FieldURL},
				Outputs:        []string{FieldSource},
				Kind:           string(pipeline.KindText),
				Mandatory:      true,
				MaxRetries:     2,
				RetryBackoffMs: 1000,
				TimeoutSeconds: 60,
			},
			{
				ID:                   "draft-outline",
				Inputs:               []string{FieldSource},
				Outputs:              []string{FieldOutline},
				Kind:                 string(pipeline.KindHierarchy),
				Mandatory:            true,
				MaxRetries:           2,
				RetryBackoffMs:       500,
				MaxValidationRetries: 2,
			},
			{
				ID:                   "render-diagram",
				Inputs:               []string{FieldOutline},
				Outputs:              []string{FieldDiagram},
				Kind:                 string(pipeline.KindDiagram),
				Fallback:             diagram.Placeholder,
				MaxRetries:           2,
				RetryBackoffMs:       500,
				MaxValidationRetries: 2,
			},
		},
		Edges: []pipeline.EdgeDef{
			{ID: "source-to-outline", From: "fetch-source", To: "draft-outline"},
			{ID: "outline-to-diagram", From: "draft-outline", To: "render-diagram"},
			{ID: "diagram-done", From: "render-diagram", To: pipeline.DoneStage},
		},
	}
}

// Bindings wires the pipeline to a fetcher and generator.
func Bindings(fetch pipeline.Fetcher, gen pipeline.Generator, opts pipeline.GenerateOptions) pipeline.Registry {
	dv := diagram.New()
	return pipeline.Registry{
		"fetch-source": {
			Invoke: func(ctx context.Context, s *pipeline.State) (pipeline.Artifact, error) {
				text, err := fetch.Fetch(ctx, s.GetString(FieldURL))
				if err != nil {
					return pipeline.Artifact{}, err
				}
				if strings.TrimSpace(text) == "" {
					return pipeline.Artifact{}, fmt.Errorf("fetched page is empty")
				}
				return pipeline.Artifact{Kind: pipeline.KindText, Text: text}, nil
			},
		},
		"draft-outline": {
			Invoke: func(ctx context.Context, s *pipeline.State) (pipeline.Artifact, error) {
				prompt := fmt.Sprintf(outlinePrompt, s.GetString(FieldSource), feedback(s, "draft-outline"))
				text, err := gen.Generate(ctx, prompt, opts)
				if err != nil {
					return pipeline.Artifact{}, err
				}
				return pipeline.Artifact{Kind: pipeline.KindHierarchy, Text: strings.TrimSpace(text)}, nil
			},
			Validator: grounding.NewHierarchyValidator(FieldSource),
		},
		"render-diagram": {
			Invoke: func(ctx context.Context, s *pipeline.State) (pipeline.Artifact, error) {
				prompt := fmt.Sprintf(diagramPrompt, diagram.MaxNodes, s.GetString(FieldOutline), feedback(s, "render-diagram"))
				text, err := gen.Generate(ctx, prompt, opts)
				if err != nil {
					return pipeline.Artifact{}, err
				}
				return pipeline.Artifact{Kind: pipeline.KindDiagram, Text: strings.TrimSpace(text)}, nil
			},
			Validator: dv,
			Repairer:  dv,
		},
	}
}

// Run executes the mind-map pipeline for one URL.
func Run(ctx context.Context, url string, fetch pipeline.Fetcher, gen pipeline.Generator, opts pipeline.GenerateOptions, exec ...pipeline.ExecutorOption) (*pipeline.State, *pipeline.RunRecord, error) {
	graph, err := Def().Build(Bindings(fetch, gen, opts))
	if err != nil {
		return nil, nil, err
	}
	state := pipeline.NewState(map[string]any{FieldURL: url})
	return pipeline.NewExecutor(graph, exec...).Run(ctx, state, "")
}

func feedback(s *pipeline.State, stage string) string {
	fb := s.GetString(pipeline.FeedbackField(stage))
	if fb == "" {
		return ""
	}
	return "\nPrevious attempt was rejected:\n" + fb
}
