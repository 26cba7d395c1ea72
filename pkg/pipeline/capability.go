package pipeline

import "context"

// GenerateOptions carries the recognized language-model configuration.
// Model and BaseURL map to the backend's model identifier and endpoint;
// TimeoutSeconds bounds a single call; MaxRetries is consumed by the
// Executor's capability retry policy, not by the backend.
type GenerateOptions struct {
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	MaxRetries     int     `yaml:"max_retries"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	Temperature    float64 `yaml:"temperature"`
}

// Generator is the language-model capability invoked by generation stages.
// Implementations must be stateless and safe for use by concurrent runs.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	return f(ctx, prompt, opts)
}

// Fetcher resolves a URL or document locator to clean extracted text.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (string, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, locator string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, locator string) (string, error) {
	return f(ctx, locator)
}

// Exporter converts a finished text artifact to an output format. Used only
// by terminal artifact steps; format conversion itself is outside the engine.
type Exporter interface {
	Export(ctx context.Context, text, format string) ([]byte, error)
}
