package ai

import (
	"context"
	"sync"
)

// Step is one canned reply of a ScriptedProvider.
type Step struct {
	Text string
	Err  error
}

// ScriptedProvider replays Steps in order and repeats the last one once the
// script runs out. It records every prompt it receives.
type ScriptedProvider struct {
	mu      sync.Mutex
	steps   []Step
	prompts []string
}

func NewScriptedProvider(steps ...Step) *ScriptedProvider {
	return &ScriptedProvider{steps: steps}
}

func (p *ScriptedProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	i := len(p.prompts)
	p.prompts = append(p.prompts, req.Prompt)
	if len(p.steps) == 0 {
		return Response{}, nil
	}
	if i >= len(p.steps) {
		i = len(p.steps) - 1
	}
	step := p.steps[i]
	if step.Err != nil {
		return Response{}, step.Err
	}
	return Response{Text: step.Text, Model: "scripted"}, nil
}

// Calls returns how many times Generate ran.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

func (p *ScriptedProvider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.prompts))
	copy(out, p.prompts)
	return out
}
