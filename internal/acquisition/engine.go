// Package acquisition runs the call, validate and retry loop that turns a
// prompt into an accepted diet plan.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/fdg312/dietplan/internal/ai"
	"github.com/fdg312/dietplan/internal/config"
	"github.com/fdg312/dietplan/internal/logger"
	"github.com/fdg312/dietplan/internal/mealplans"
	"github.com/fdg312/dietplan/internal/metrics"
	"github.com/fdg312/dietplan/internal/validation"
)

var ErrExhausted = errors.New("plan acquisition exhausted")

// ExhaustedError is returned once the attempt ceilings are reached.
type ExhaustedError struct {
	LastRaw    string
	LastReason Reason
	LastErr    error
	Attempts   int
}

func (e *ExhaustedError) Error() string {
	msg := fmt.Sprintf("%s after %d attempts (last: %s)", ErrExhausted.Error(), e.Attempts, e.LastReason)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }
func (e *ExhaustedError) Unwrap() error        { return e.LastErr }

// Sleeper waits for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Request struct {
	Prompt      string
	DailyTarget float64
	Slots       []mealplans.Slot
}

type Result struct {
	Plan     *mealplans.DietPlan
	Report   validation.CalorieReport
	Warnings []validation.PortionWarning
	Raw      string
	Attempts []Attempt
}

type Options struct {
	Config   config.AcquisitionConfig
	Defaults ai.Request
	Log      *logger.Logger
	Metrics  *metrics.Metrics
	Sleeper  Sleeper
	Now      func() time.Time
	// Jitter returns a value in [0, 1).
	Jitter   func() float64
	Observer func(Attempt)
}

type Engine struct {
	provider ai.Provider
	cfg      config.AcquisitionConfig
	defaults ai.Request
	log      *logger.Logger
	metrics  *metrics.Metrics
	sleeper  Sleeper
	now      func() time.Time
	jitter   func() float64
	observer func(Attempt)
}

func New(provider ai.Provider, opts Options) *Engine {
	cfg := opts.Config
	def := config.DefaultAcquisition()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.MaxTransientAttempts <= 0 {
		cfg.MaxTransientAttempts = def.MaxTransientAttempts
	}
	if cfg.CalorieToleranceKcal <= 0 {
		cfg.CalorieToleranceKcal = def.CalorieToleranceKcal
	}
	if cfg.MinDaysWithin <= 0 {
		cfg.MinDaysWithin = def.MinDaysWithin
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = cfg.BaseBackoff
	}

	e := &Engine{
		provider: provider,
		cfg:      cfg,
		defaults: opts.Defaults,
		log:      logger.OrNop(opts.Log),
		metrics:  opts.Metrics,
		sleeper:  opts.Sleeper,
		now:      opts.Now,
		jitter:   opts.Jitter,
		observer: opts.Observer,
	}
	if e.sleeper == nil {
		e.sleeper = timerSleeper{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.jitter == nil {
		e.jitter = rand.Float64
	}
	return e
}

// Config returns the effective bounds.
func (e *Engine) Config() config.AcquisitionConfig { return e.cfg }

// Backoff is the wait before the k-th backoff (k >= 1): base doubled per
// backoff, capped at MaxBackoff, plus jitter, and never below retryAfter.
func (e *Engine) Backoff(k int, retryAfter time.Duration) time.Duration {
	if k < 1 {
		k = 1
	}
	delay := float64(e.cfg.BaseBackoff) * math.Pow(2, float64(k-1))
	if ceiling := float64(e.cfg.MaxBackoff); delay > ceiling {
		delay = ceiling
	}
	if e.cfg.JitterFraction > 0 {
		delay += delay * e.cfg.JitterFraction * e.jitter()
	}
	d := time.Duration(delay)
	if d < retryAfter {
		d = retryAfter
	}
	return d
}

// Acquire calls the provider until a response parses, has the requested
// structure and meets the calorie majority, or until a ceiling is reached.
// Provider failures that are neither rate limits nor transient end the run
// immediately with the provider error.
func (e *Engine) Acquire(ctx context.Context, req Request) (*Result, error) {
	if len(req.Slots) == 0 {
		return nil, errors.New("acquire plan: no slots requested")
	}

	res := &Result{}
	var (
		lastRaw    string
		lastReason Reason
		lastErr    error
		backoffs   int
		transients int
	)

	for n := 1; n <= e.cfg.MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return res, e.abort(err)
		}

		att := Attempt{Number: n, State: Requesting}
		start := e.now()
		e.log.Debug("acquisition transition", "attempt", n, "state", Requesting.String())

		call := e.defaults
		call.Prompt = req.Prompt
		resp, err := e.provider.Generate(ctx, call)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				att.Reason, att.Err, att.Outcome = ReasonCanceled, ctxErr, Exhausted
				e.record(res, att, start)
				return res, e.abort(ctxErr)
			}

			att.Err = err
			var retryAfter time.Duration
			switch {
			case errors.Is(err, ai.ErrRateLimited):
				att.Reason = ReasonRateLimited
				var rl *ai.RateLimitError
				if errors.As(err, &rl) {
					retryAfter = rl.RetryAfter
				}
			case errors.Is(err, ai.ErrTransient):
				att.Reason = ReasonTransient
				transients++
			default:
				att.Reason, att.Outcome = ReasonProvider, Exhausted
				e.record(res, att, start)
				e.metrics.ObserveOutcome("failed")
				e.log.Error("acquisition failed", "attempt", n, "error", err.Error())
				return res, fmt.Errorf("acquire plan: %w", err)
			}
			lastReason, lastErr = att.Reason, err

			if n == e.cfg.MaxAttempts || transients >= e.cfg.MaxTransientAttempts {
				att.Outcome = Exhausted
				e.record(res, att, start)
				break
			}

			backoffs++
			att.Outcome = Retrying
			att.Backoff = e.Backoff(backoffs, retryAfter)
			e.record(res, att, start)
			e.metrics.ObserveBackoff(att.Backoff)
			e.log.Warn("acquisition backing off",
				"attempt", n,
				"reason", string(att.Reason),
				"backoff", att.Backoff.String(),
				"error", err.Error(),
			)
			if err := e.sleeper.Sleep(ctx, att.Backoff); err != nil {
				return res, e.abort(err)
			}
			continue
		}

		lastRaw = resp.Text
		plan, report, reason, verr := e.check(resp.Text, req, &att)
		if verr == nil {
			att.Outcome = Accepted
			e.record(res, att, start)
			plan.Summary = mealplans.Summarize(plan)
			res.Plan = plan
			res.Report = report
			res.Raw = resp.Text
			res.Warnings = validation.PortionWarnings(plan)
			e.metrics.ObserveOutcome(Accepted.String())
			e.log.Info("plan accepted",
				"attempt", n,
				"days_within", report.WithinCount(),
				"portion_warnings", len(res.Warnings),
			)
			return res, nil
		}

		att.Reason, att.Err = reason, verr
		lastReason, lastErr = reason, verr
		if n == e.cfg.MaxAttempts {
			att.Outcome = Exhausted
			e.record(res, att, start)
			break
		}
		// Same prompt again; the shared gate spaces the next call.
		att.Outcome = Retrying
		e.record(res, att, start)
		e.log.Info("acquisition retrying", "attempt", n, "reason", string(reason), "error", verr.Error())
	}

	e.metrics.ObserveOutcome(Exhausted.String())
	e.log.Error("plan acquisition exhausted",
		"attempts", len(res.Attempts),
		"last_reason", string(lastReason),
		"last_raw", abbreviate(lastRaw, lastRawLogLimit),
	)
	return res, &ExhaustedError{
		LastRaw:    lastRaw,
		LastReason: lastReason,
		LastErr:    lastErr,
		Attempts:   len(res.Attempts),
	}
}

// lastRawLogLimit caps how much of the final response is logged on exhaustion.
const lastRawLogLimit = 512

func abbreviate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func (e *Engine) check(raw string, req Request, att *Attempt) (*mealplans.DietPlan, validation.CalorieReport, Reason, error) {
	att.State = Parsing
	e.log.Debug("acquisition transition", "attempt", att.Number, "state", Parsing.String())
	doc, err := validation.ParseAndRepair(raw)
	if err != nil {
		return nil, validation.CalorieReport{}, ReasonMalformed, err
	}

	att.State = Validating
	e.log.Debug("acquisition transition", "attempt", att.Number, "state", Validating.String())
	if err := validation.ValidateStructure(doc, req.Slots).Err(); err != nil {
		return nil, validation.CalorieReport{}, ReasonStructure, err
	}
	plan, err := validation.Decode(doc, req.Slots)
	if err != nil {
		return nil, validation.CalorieReport{}, ReasonStructure, err
	}
	report := validation.ValidateCalorieTargets(plan, req.DailyTarget, e.cfg.CalorieToleranceKcal)
	if err := report.Err(e.cfg.MinDaysWithin); err != nil {
		return nil, report, ReasonCalories, err
	}
	return plan, report, ReasonNone, nil
}

func (e *Engine) record(res *Result, att Attempt, start time.Time) {
	att.Duration = e.now().Sub(start)
	res.Attempts = append(res.Attempts, att)
	e.metrics.ObserveAttempt(att.Result())
	if e.observer != nil {
		e.observer(att)
	}
}

func (e *Engine) abort(err error) error {
	e.metrics.ObserveOutcome(string(ReasonCanceled))
	e.log.Warn("plan acquisition canceled", "error", err.Error())
	return fmt.Errorf("acquire plan: %w", err)
}
