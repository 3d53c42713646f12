package mealplans

import "math"

// Selection is one dish placed in a slot, with quantity and nutrients after scaling.
type Selection struct {
	Key      string
	Name     string
	Quantity string
	Calories float64
	Protein  float64
	Carbs    float64
	Fats     float64
}

type Meal struct {
	Slot  Slot
	Items []Selection
}

type DayPlan struct {
	Label string
	Meals []Meal
}

type Totals struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fats     float64
}

// Summary holds rounded daily averages.
type Summary struct {
	AverageCalories int
	AverageProtein  int
	AverageCarbs    int
	AverageFats     int
}

// DietPlan is an accepted 7-day plan. It is not mutated after acceptance.
type DietPlan struct {
	Days    []DayPlan
	Summary Summary
}

func (d DayPlan) Meal(slot Slot) (Meal, bool) {
	for _, m := range d.Meals {
		if m.Slot == slot {
			return m, true
		}
	}
	return Meal{}, false
}

func (d DayPlan) Totals() Totals {
	var t Totals
	for _, m := range d.Meals {
		for _, it := range m.Items {
			t.Calories += it.Calories
			t.Protein += it.Protein
			t.Carbs += it.Carbs
			t.Fats += it.Fats
		}
	}
	return t
}

// Slots returns the slots present in the plan, in first-seen order.
func (p *DietPlan) Slots() []Slot {
	var out []Slot
	for _, d := range p.Days {
		for _, m := range d.Meals {
			if !containsSlot(out, m.Slot) {
				out = append(out, m.Slot)
			}
		}
	}
	return out
}

// Summarize computes average calories and macros over the plan's days.
func Summarize(p *DietPlan) Summary {
	if p == nil || len(p.Days) == 0 {
		return Summary{}
	}
	var sum Totals
	for _, d := range p.Days {
		t := d.Totals()
		sum.Calories += t.Calories
		sum.Protein += t.Protein
		sum.Carbs += t.Carbs
		sum.Fats += t.Fats
	}
	n := float64(len(p.Days))
	return Summary{
		AverageCalories: int(math.Round(sum.Calories / n)),
		AverageProtein:  int(math.Round(sum.Protein / n)),
		AverageCarbs:    int(math.Round(sum.Carbs / n)),
		AverageFats:     int(math.Round(sum.Fats / n)),
	}
}
