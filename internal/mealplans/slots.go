package mealplans

import (
	"math"
	"strings"
)

// Slot is a named meal position in a day.
type Slot string

const (
	Breakfast Slot = "Breakfast"
	Lunch     Slot = "Lunch"
	Dinner    Slot = "Dinner"
	Snack     Slot = "Snack"
	Snack1    Slot = "Snack1"
	Snack2    Slot = "Snack2"
)

func (s Slot) IsSnack() bool {
	return s == Snack || s == Snack1 || s == Snack2
}

// MealType is the catalog meal type a slot draws dishes from.
func (s Slot) MealType() string {
	if s.IsSnack() {
		return string(Snack)
	}
	return string(s)
}

// Share is a slot's percentage of the daily calorie goal.
type Share struct {
	Slot    Slot
	Percent int
}

var splits = map[int][]Share{
	3: {{Breakfast, 25}, {Lunch, 35}, {Dinner, 40}},
	4: {{Breakfast, 22}, {Lunch, 33}, {Dinner, 33}, {Snack, 12}},
	5: {{Breakfast, 20}, {Lunch, 30}, {Dinner, 30}, {Snack1, 10}, {Snack2, 10}},
}

// ClampFrequency keeps a meal frequency within the supported 3..5 range.
func ClampFrequency(freq int) int {
	if freq < 3 {
		return 3
	}
	if freq > 5 {
		return 5
	}
	return freq
}

// SlotSplit returns the fixed calorie split for a meal frequency.
func SlotSplit(freq int) []Share {
	src := splits[ClampFrequency(freq)]
	out := make([]Share, len(src))
	copy(out, src)
	return out
}

// SlotsFor lists the slots a day must contain for the given meal frequency.
func SlotsFor(freq int) []Slot {
	shares := splits[ClampFrequency(freq)]
	out := make([]Slot, len(shares))
	for i, s := range shares {
		out[i] = s.Slot
	}
	return out
}

type SlotTarget struct {
	Slot    Slot `json:"slot"`
	Percent int  `json:"percent"`
	Kcal    int  `json:"kcal"`
}

func SlotTargets(calorieGoal int, freq int) []SlotTarget {
	shares := SlotSplit(freq)
	out := make([]SlotTarget, len(shares))
	for i, s := range shares {
		out[i] = SlotTarget{
			Slot:    s.Slot,
			Percent: s.Percent,
			Kcal:    int(math.Round(float64(calorieGoal) * float64(s.Percent) / 100)),
		}
	}
	return out
}

func containsSlot(slots []Slot, s Slot) bool {
	for _, x := range slots {
		if x == s {
			return true
		}
	}
	return false
}

// CanonicalSlot maps a slot key produced by a model onto the requested schema.
// Numbered or qualified snacks collapse onto Snack when the schema has a single
// snack slot. In a two-snack schema an unqualified snack returns Snack and the
// caller assigns it to the first free numbered slot.
func CanonicalSlot(key string, slots []Slot) (Slot, bool) {
	n := normalizeKey(key)
	switch n {
	case "breakfast", "morningmeal":
		return Breakfast, containsSlot(slots, Breakfast)
	case "lunch":
		return Lunch, containsSlot(slots, Lunch)
	case "dinner", "supper":
		return Dinner, containsSlot(slots, Dinner)
	}
	if !strings.Contains(n, "snack") {
		return "", false
	}

	if containsSlot(slots, Snack) {
		return Snack, true
	}
	if !containsSlot(slots, Snack1) {
		return "", false
	}
	switch {
	case strings.HasSuffix(n, "1"), strings.Contains(n, "morning"):
		return Snack1, true
	case strings.HasSuffix(n, "2"), strings.Contains(n, "evening"), strings.Contains(n, "afternoon"):
		return Snack2, true
	default:
		return Snack, true
	}
}

func normalizeKey(key string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return r.Replace(strings.ToLower(strings.TrimSpace(key)))
}
