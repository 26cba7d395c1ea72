// Package ollama implements the generation capability against an
// OpenAI-compatible chat endpoint, which is what Ollama exposes at
// /v1. Any server speaking the same protocol works.
package ollama

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"groundwork/pkg/pipeline"
)

// DefaultBaseURL is the local Ollama OpenAI-compatible endpoint.
const DefaultBaseURL = "http://localhost:11434/v1"

// Generator implements pipeline.Generator over the chat completions API.
type Generator struct {
	Token string // unused by Ollama, required by hosted backends
}

// New returns a Generator. The endpoint and model come from GenerateOptions
// at call time, so one Generator serves every pipeline.
func New(token string) *Generator {
	return &Generator{Token: token}
}

// Generate sends prompt as a single user message and returns the reply text.
func (g *Generator) Generate(ctx context.Context, prompt string, opts pipeline.GenerateOptions) (string, error) {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	cfg := openai.DefaultConfig(g.Token)
	cfg.BaseURL = base
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       opts.Model,
		Temperature: float32(opts.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ pipeline.Generator = (*Generator)(nil)
