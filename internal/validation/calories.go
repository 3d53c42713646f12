package validation

import (
	"fmt"
	"math"

	"github.com/fdg312/dietplan/internal/mealplans"
	"github.com/fdg312/dietplan/internal/quantity"
)

// DayReport compares one day's summed calories with its target.
type DayReport struct {
	Day         string  `json:"day"`
	Observed    float64 `json:"observed_kcal"`
	Target      float64 `json:"target_kcal"`
	Difference  float64 `json:"difference"`
	WithinRange bool    `json:"within_range"`
}

type CalorieReport struct {
	Tolerance float64     `json:"tolerance_kcal"`
	Days      []DayReport `json:"days"`
}

// ValidateCalorieTargets marks a day within range when its total is no more
// than tolerance away from dailyTarget.
func ValidateCalorieTargets(plan *mealplans.DietPlan, dailyTarget, tolerance float64) CalorieReport {
	rep := CalorieReport{Tolerance: tolerance}
	if plan == nil {
		return rep
	}
	for _, d := range plan.Days {
		observed := math.Round(d.Totals().Calories*10) / 10
		diff := observed - dailyTarget
		rep.Days = append(rep.Days, DayReport{
			Day:         d.Label,
			Observed:    observed,
			Target:      dailyTarget,
			Difference:  diff,
			WithinRange: math.Abs(diff) <= tolerance,
		})
	}
	return rep
}

func (r CalorieReport) WithinCount() int {
	n := 0
	for _, d := range r.Days {
		if d.WithinRange {
			n++
		}
	}
	return n
}

// Accepted reports whether at least minDays days are within range.
func (r CalorieReport) Accepted(minDays int) bool {
	return r.WithinCount() >= minDays
}

// Err returns nil when the report is accepted, or an error wrapping
// ErrCalorieToleranceNotMet.
func (r CalorieReport) Err(minDays int) error {
	if r.Accepted(minDays) {
		return nil
	}
	return fmt.Errorf("%w: %d of %d days within %.0f kcal, need %d",
		ErrCalorieToleranceNotMet, r.WithinCount(), len(r.Days), r.Tolerance, minDays)
}

// MinPortionBase is the smallest meaningful absolute portion, in grams or millilitres.
const MinPortionBase = 25

type PortionWarning struct {
	Day      string `json:"day"`
	Slot     string `json:"slot"`
	Dish     string `json:"dish"`
	Quantity string `json:"quantity"`
}

// PortionWarnings lists selections whose quantity falls below a meaningful
// portion. They are reported, not rejected.
func PortionWarnings(plan *mealplans.DietPlan) []PortionWarning {
	if plan == nil {
		return nil
	}
	var out []PortionWarning
	for _, d := range plan.Days {
		for _, m := range d.Meals {
			for _, it := range m.Items {
				if it.Quantity == "" {
					continue
				}
				if quantity.Parse(it.Quantity).BelowMinimum(MinPortionBase) {
					out = append(out, PortionWarning{Day: d.Label, Slot: string(m.Slot), Dish: it.Name, Quantity: it.Quantity})
				}
			}
		}
	}
	return out
}
