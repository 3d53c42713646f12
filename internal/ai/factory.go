package ai

import (
	"context"
	"errors"
	"time"

	"github.com/fdg312/dietplan/internal/config"
	"github.com/fdg312/dietplan/internal/logger"
	"github.com/fdg312/dietplan/internal/metrics"
)

// NewProvider builds the provider selected by AI_MODE, instrumented and
// wrapped in gate. A nil gate leaves calls unspaced.
func NewProvider(ctx context.Context, cfg *config.Config, gate *Gate, log *logger.Logger, m *metrics.Metrics) (Provider, error) {
	log = logger.OrNop(log)

	var (
		base Provider
		name = cfg.AIMode
	)
	switch cfg.AIMode {
	case config.AIModeOpenAI:
		base = NewOpenAIProvider(cfg)
	case config.AIModeGemini:
		gp, err := NewGeminiProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		base = gp
	default:
		name = config.AIModeMock
		base = NewMockProvider()
	}

	log.Info("ai provider ready",
		"mode", name,
		"model", cfg.ModelName(),
		"gate_interval", gate.Interval().String(),
	)

	var p Provider = Instrument(base, name, log, m)
	if gate != nil {
		p = NewGatedProvider(p, gate)
	}
	return p, nil
}

// RequestDefaults returns the fixed call settings: system instruction, low
// temperature and bounded output.
func RequestDefaults(cfg *config.Config) Request {
	return Request{
		Model:           cfg.ModelName(),
		System:          cfg.AISystemInstruction,
		Temperature:     cfg.AITemperature,
		MaxOutputTokens: cfg.AIMaxOutputTokens,
	}
}

type instrumented struct {
	name    string
	next    Provider
	log     *logger.Logger
	metrics *metrics.Metrics
}

// Instrument records every call outcome on m and logs it at debug level.
func Instrument(next Provider, name string, log *logger.Logger, m *metrics.Metrics) Provider {
	return &instrumented{name: name, next: next, log: logger.OrNop(log), metrics: m}
}

func (p *instrumented) Generate(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := p.next.Generate(ctx, req)
	st := callStatus(err)
	p.metrics.ObserveAICall(p.name, st)

	kv := []interface{}{
		"provider", p.name,
		"status", st,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		p.log.Debug("ai call failed", append(kv, "error", err.Error())...)
		return resp, err
	}
	p.log.Debug("ai call", append(kv,
		"prompt_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"response_bytes", len(resp.Text),
	)...)
	return resp, nil
}

func callStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
