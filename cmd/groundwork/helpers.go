package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"groundwork/internal/artifact"
	"groundwork/internal/logging"
	"groundwork/pkg/pipeline"
)

// Model configuration defaults, overridable per flag or environment.
const (
	envModel   = "OLLAMA_MODEL_NAME"
	envBaseURL = "OLLAMA_BASE_URL"

	defaultModel = "llama3.2"
)

var modelFlags struct {
	model       string
	baseURL     string
	temperature float64
	timeout     int
	outDir      string
	logLevel    string
	logFormat   string
}

func addModelFlags(f *pflag.FlagSet) {
	f.StringVar(&modelFlags.model, "model", "", "Model name (default: $"+envModel+" or "+defaultModel+")")
	f.StringVar(&modelFlags.baseURL, "base-url", "", "OpenAI-compatible endpoint (default: $"+envBaseURL+" or local Ollama)")
	f.Float64Var(&modelFlags.temperature, "temperature", 0.0, "Sampling temperature")
	f.IntVar(&modelFlags.timeout, "timeout", 120, "Per-call timeout in seconds")
	f.StringVarP(&modelFlags.outDir, "output-dir", "o", ".", "Directory for output artifacts")
	f.StringVar(&modelFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	f.StringVar(&modelFlags.logFormat, "log-format", "text", "Log format (text, json)")
}

func genOptions() pipeline.GenerateOptions {
	model := modelFlags.model
	if model == "" {
		model = os.Getenv(envModel)
	}
	if model == "" {
		model = defaultModel
	}
	base := modelFlags.baseURL
	if base == "" {
		base = os.Getenv(envBaseURL)
	}
	return pipeline.GenerateOptions{
		Model:          model,
		BaseURL:        base,
		Temperature:    modelFlags.temperature,
		TimeoutSeconds: modelFlags.timeout,
	}
}

// setupRun initializes logging and returns the run observer plus the
// artifact writer for the command's outputs.
func setupRun(component string) (pipeline.ExecutorOption, *artifact.Writer) {
	logging.Init(logging.ParseLevel(modelFlags.logLevel), modelFlags.logFormat)
	obs := &pipeline.LogObserver{Logger: logging.New(component)}
	return pipeline.WithObserver(obs), artifact.NewWriter(modelFlags.outDir)
}

// reportRun prints the run outcome summary to the command's stdout.
func reportRun(cmd *cobra.Command, record *pipeline.RunRecord) {
	if record == nil {
		return
	}
	status := "complete"
	if record.Degraded() {
		status = "complete (degraded)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %s, %d attempts recorded\n",
		record.ID, status, len(record.Attempts))
}
