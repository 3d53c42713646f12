// Package planner turns a profile into an accepted plan: targets, candidates,
// prompt and acquisition, relaxing dislikes when acquisition is exhausted.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/dietplan/internal/acquisition"
	"github.com/fdg312/dietplan/internal/candidates"
	"github.com/fdg312/dietplan/internal/catalog"
	"github.com/fdg312/dietplan/internal/logger"
	"github.com/fdg312/dietplan/internal/mealplans"
	"github.com/fdg312/dietplan/internal/nutrition"
	"github.com/fdg312/dietplan/internal/profiles"
	"github.com/fdg312/dietplan/internal/prompt"
	"github.com/fdg312/dietplan/internal/validation"
)

// Relaxation is the ladder step that produced a plan.
type Relaxation int

const (
	RelaxNone Relaxation = iota
	RelaxTruncateDislikes
	RelaxDropDislikes
)

// keptDislikes is how many dislikes survive the first relaxation step.
const keptDislikes = 2

func (r Relaxation) String() string {
	switch r {
	case RelaxTruncateDislikes:
		return "dislikes_truncated"
	case RelaxDropDislikes:
		return "dislikes_dropped"
	default:
		return "none"
	}
}

func (r Relaxation) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Acquirer is the part of the acquisition engine the planner drives.
type Acquirer interface {
	Acquire(ctx context.Context, req acquisition.Request) (*acquisition.Result, error)
}

type Options struct {
	Catalog   *catalog.Catalog
	Rules     *catalog.Rules
	SlotCap   int
	Tolerance float64
	// Timeout bounds one Generate call including every relaxation step.
	Timeout time.Duration
	Log     *logger.Logger
}

type Result struct {
	Profile    profiles.UserProfile
	Targets    nutrition.Targets
	Candidates map[mealplans.Slot]int
	Prompt     string
	Plan       *mealplans.DietPlan
	Report     validation.CalorieReport
	Warnings   []validation.PortionWarning
	Attempts   []acquisition.Attempt
	Relaxation Relaxation
}

type Planner struct {
	engine    Acquirer
	catalog   *catalog.Catalog
	rules     *catalog.Rules
	slotCap   int
	tolerance float64
	timeout   time.Duration
	log       *logger.Logger
}

func New(engine Acquirer, opts Options) *Planner {
	p := &Planner{
		engine:    engine,
		catalog:   opts.Catalog,
		rules:     opts.Rules,
		slotCap:   opts.SlotCap,
		tolerance: opts.Tolerance,
		timeout:   opts.Timeout,
		log:       logger.OrNop(opts.Log),
	}
	if p.catalog == nil {
		p.catalog = catalog.Default()
	}
	if p.rules == nil {
		p.rules = catalog.DefaultRules()
	}
	if p.tolerance <= 0 {
		p.tolerance = prompt.DefaultToleranceKcal
	}
	return p
}

// Generate produces a plan for profile. Missing candidates are fatal; an
// exhausted acquisition is retried with fewer dislikes, at most twice.
// The returned Result carries the attempts made even when err is non-nil.
func (p *Planner) Generate(ctx context.Context, profile profiles.UserProfile) (*Result, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	targets := nutrition.ComputeTargets(profile)
	res := &Result{Targets: targets}
	log := p.log.With("user", profile.Name)

	var lastErr error
	for _, step := range ladder(profile) {
		current := relax(profile, step)
		res.Profile = current
		res.Relaxation = step
		if step != RelaxNone {
			log.Warn("relaxing profile after exhausted acquisition",
				"step", step.String(),
				"dislikes", len(current.Dislikes),
			)
		}

		set, err := candidates.Select(p.catalog, current, candidates.Options{
			Cap:   p.slotCap,
			Rules: p.rules,
			Log:   log,
		})
		if set != nil {
			res.Candidates = set.Counts()
		}
		if err != nil {
			return res, err
		}

		text, err := prompt.Build(prompt.PlanRequest{
			Profile:           current,
			Targets:           targets,
			Candidates:        set,
			PortionMultiplier: targets.PortionMultiplier,
			ToleranceKcal:     p.tolerance,
		})
		if err != nil {
			return res, err
		}
		res.Prompt = text

		acq, err := p.engine.Acquire(ctx, acquisition.Request{
			Prompt:      text,
			DailyTarget: float64(targets.CalorieGoal),
			Slots:       set.Slots,
		})
		if acq != nil {
			res.Attempts = append(res.Attempts, acq.Attempts...)
		}
		if err == nil {
			res.Plan = acq.Plan
			res.Report = acq.Report
			res.Warnings = acq.Warnings
			log.Info("plan generated",
				"calorie_goal", targets.CalorieGoal,
				"attempts", len(res.Attempts),
				"relaxation", step.String(),
			)
			return res, nil
		}
		if !errors.Is(err, acquisition.ErrExhausted) {
			return res, err
		}
		lastErr = err
	}
	return res, fmt.Errorf("generate plan for %q: %w", profile.Name, lastErr)
}

// ladder lists the steps worth trying for profile. A step that would not
// change the dislikes is skipped.
func ladder(p profiles.UserProfile) []Relaxation {
	steps := []Relaxation{RelaxNone}
	if len(p.Dislikes) > keptDislikes {
		steps = append(steps, RelaxTruncateDislikes)
	}
	if len(p.Dislikes) > 0 {
		steps = append(steps, RelaxDropDislikes)
	}
	return steps
}

func relax(p profiles.UserProfile, step Relaxation) profiles.UserProfile {
	switch step {
	case RelaxTruncateDislikes:
		if len(p.Dislikes) > keptDislikes {
			return p.WithDislikes(p.Dislikes[:keptDislikes])
		}
		return p
	case RelaxDropDislikes:
		return p.WithDislikes(nil)
	default:
		return p
	}
}
