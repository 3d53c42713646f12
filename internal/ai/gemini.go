package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fdg312/dietplan/internal/config"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type GeminiProvider struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
}

func NewGeminiProvider(ctx context.Context, cfg *config.Config) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{
		client:      client,
		model:       cfg.GeminiModel,
		maxTokens:   cfg.AIMaxOutputTokens,
		temperature: cfg.AITemperature,
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (Response, error) {
	name := req.Model
	if name == "" {
		name = p.model
	}
	// GenerativeModel carries per-call settings, so each call gets its own.
	model := p.client.GenerativeModel(name)
	if strings.TrimSpace(req.System) != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = p.temperature
	}
	model.SetTemperature(float32(temperature))
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return Response{}, classifyGeminiError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Response{}, &TransientError{Err: errors.New("gemini returned no content")}
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return Response{}, &TransientError{Err: errors.New("gemini content is not text")}
	}

	out := Response{Text: strings.TrimSpace(b.String()), Model: name}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens: int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// classifyGeminiError maps gRPC and REST failures onto the retry taxonomy.
func classifyGeminiError(err error) error {
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return &RateLimitError{Err: err}
		case codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Aborted:
			return &TransientError{Err: err}
		}
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusTooManyRequests:
			return &RateLimitError{Err: err}
		case gerr.Code == http.StatusRequestTimeout || gerr.Code >= 500:
			return &TransientError{Err: err}
		}
	}
	return fmt.Errorf("gemini generate: %w", err)
}
