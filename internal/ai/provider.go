// Package ai talks to the generative service that composes diet plans.
package ai

import "context"

// Provider sends one prompt and returns the raw model text. Implementations
// classify failures as *RateLimitError, *TransientError or a plain error that
// should not be retried.
type Provider interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

type Request struct {
	Model           string
	System          string
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
}

type Usage struct {
	PromptTokens int
	OutputTokens int
}

type Response struct {
	Text  string
	Model string
	Usage Usage
}
