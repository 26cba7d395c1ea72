package market

import (
	"context"
	"fmt"
	"strings"

	"groundwork/pkg/pipeline"
)

// State fields used by the analysis pipeline.
const (
	FieldCSVPath = "csv_path"
	FieldSummary = "market_summary"
	FieldReport  = "market_report"
	FieldPlan    = "trade_plan"
)

// FallbackReport stands in when the report stage degrades.
const FallbackReport = "Automated analysis unavailable; see the raw indicator summary."

const reportPrompt = `You are a market technician. Write a concise technical
analysis report from the indicator summary below. Cover trend, momentum,
volatility and the key support/resistance zones. Do not invent price levels.

Indicator summary:
%s
%s`

const planPrompt = `Using the analysis below, produce a trade plan with three
lines, exactly:
Entry: <price>
Stop-Loss: <price>
Take-Profit: <price>
Use only support and resistance levels from the indicator summary. If no valid
long setup exists, respond with the single line "%s".

Indicator summary:
%s

Analysis:
%s
%s`

// Def declares the analysis pipeline: load prices, write the report, then
// draft a trade plan validated against the computed zones.
func Def() *pipeline.Def {
	return &pipeline.Def{
		Pipeline:    "market-analysis",
		Description: "technical analysis and trade plan from OHLC history",
		Entry:       "load-data",
		Stages: []pipeline.StageDef{
			{
				ID:        "load-data",
				Inputs:    []string{FieldCSVPath},
				Outputs:   []string{FieldSummary},
				Kind:      string(pipeline.KindText),
				Mandatory: true,
			},
			{
				ID:             "write-report",
				Inputs:         []string{FieldSummary},
				Outputs:        []string{FieldReport},
				Kind:           string(pipeline.KindDocument),
				Fallback:       FallbackReport,
				MaxRetries:     2,
				RetryBackoffMs: 500,
			},
			{
				ID:                   "draft-plan",
				Inputs:               []string{FieldSummary, FieldReport},
				Outputs:              []string{FieldPlan},
				Kind:                 string(pipeline.KindPlan),
				Fallback:             UnavailableMarker,
				MaxRetries:           2,
				RetryBackoffMs:       500,
				MaxValidationRetries: 2,
			},
		},
		Edges: []pipeline.EdgeDef{
			{ID: "data-to-report", From: "load-data", To: "write-report"},
			{ID: "report-to-plan", From: "write-report", To: "draft-plan"},
			{ID: "plan-done", From: "draft-plan", To: pipeline.DoneStage},
		},
	}
}

// Bindings wires the pipeline stages to a generator.
func Bindings(gen pipeline.Generator, opts pipeline.GenerateOptions) pipeline.Registry {
	return pipeline.Registry{
		"load-data": {
			Invoke: func(ctx context.Context, s *pipeline.State) (pipeline.Artifact, error) {
				series, err := ReadCSVFile(s.GetString(FieldCSVPath))
				if err != nil {
					return pipeline.Artifact{}, err
				}
				summary, err := Compute(ctx, series)
				if err != nil {
					return pipeline.Artifact{}, err
				}
				text, err := summary.JSON()
				if err != nil {
					return pipeline.Artifact{}, err
				}
				return pipeline.Artifact{Kind: pipeline.KindText, Text: text}, nil
			},
		},
		"write-report": {
			Invoke: func(ctx context.Context, s *pipeline.State) (pipeline.Artifact, error) {
				prompt := fmt.Sprintf(reportPrompt, s.GetString(FieldSummary), feedback(s, "write-report"))
				text, err := gen.Generate(ctx, prompt, opts)
				if err != nil {
					return pipeline.Artifact{}, err
				}
				return pipeline.Artifact{Kind: pipeline.KindDocument, Text: strings.TrimSpace(text)}, nil
			},
		},
		"draft-plan": {
			Invoke: func(ctx context.Context, s *pipeline.State) (pipeline.Artifact, error) {
				prompt := fmt.Sprintf(planPrompt, UnavailableMarker,
					s.GetString(FieldSummary), s.GetString(FieldReport), feedback(s, "draft-plan"))
				text, err := gen.Generate(ctx, prompt, opts)
				if err != nil {
					return pipeline.Artifact{}, err
				}
				return pipeline.Artifact{Kind: pipeline.KindPlan, Text: strings.TrimSpace(text)}, nil
			},
			Validator: PlanValidator{SummaryField: FieldSummary},
		},
	}
}

// Run executes the analysis pipeline over one CSV file.
func Run(ctx context.Context, csvPath string, gen pipeline.Generator, opts pipeline.GenerateOptions, exec ...pipeline.ExecutorOption) (*pipeline.State, *pipeline.RunRecord, error) {
	graph, err := Def().Build(Bindings(gen, opts))
	if err != nil {
		return nil, nil, err
	}
	state := pipeline.NewState(map[string]any{FieldCSVPath: csvPath})
	return pipeline.NewExecutor(graph, exec...).Run(ctx, state, "")
}

func feedback(s *pipeline.State, stage string) string {
	fb := s.GetString(pipeline.FeedbackField(stage))
	if fb == "" {
		return ""
	}
	return "\nPrevious attempt was rejected:\n" + fb
}
