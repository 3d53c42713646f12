package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fdg312/dietplan/internal/mealplans"
)

type dishField int

const (
	fName dishField = iota
	fQuantity
	fCalories
	fProtein
	fCarbs
	fFats
)

var dishFieldAliases = map[string]dishField{
	"name":          fName,
	"dish":          fName,
	"dishname":      fName,
	"item":          fName,
	"quantity":      fQuantity,
	"qty":           fQuantity,
	"portion":       fQuantity,
	"serving":       fQuantity,
	"calories":      fCalories,
	"calorie":       fCalories,
	"kcal":          fCalories,
	"energy":        fCalories,
	"protein":       fProtein,
	"proteins":      fProtein,
	"carbs":         fCarbs,
	"carb":          fCarbs,
	"carbohydrates": fCarbs,
	"fats":          fFats,
	"fat":           fFats,
}

// Decode converts a structurally valid document into a typed plan in schema
// slot order. Nutrient strings such as "350 kcal" are read as numbers.
func Decode(doc map[string]any, slots []mealplans.Slot) (*mealplans.DietPlan, error) {
	days, err := planDays(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	plan := &mealplans.DietPlan{Days: make([]mealplans.DayPlan, 0, len(days))}
	for i, raw := range days {
		day, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: day %d is not an object", ErrInvalidStructure, i+1)
		}
		dp := mealplans.DayPlan{Label: dayLabel(day, i)}
		resolved, _ := resolveDay(day, slots)
		for _, s := range slots {
			meal := mealplans.Meal{Slot: s}
			for _, v := range resolved[s] {
				for _, e := range slotEntries(v) {
					sel, err := decodeSelection(e)
					if err != nil {
						return nil, fmt.Errorf("%w: %s %s: %v", ErrInvalidStructure, dp.Label, s, err)
					}
					meal.Items = append(meal.Items, sel)
				}
			}
			if len(resolved[s]) > 1 {
				// Merged slots (Snack1 + Snack2 into Snack) reuse dish keys.
				for j := range meal.Items {
					meal.Items[j].Key = fmt.Sprintf("Dish%d", j+1)
				}
			}
			dp.Meals = append(dp.Meals, meal)
		}
		plan.Days = append(plan.Days, dp)
	}
	plan.Summary = mealplans.Summarize(plan)
	return plan, nil
}

func dayLabel(day map[string]any, i int) string {
	for k, v := range day {
		if normalizeKey(k) != "day" {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				if _, err := strconv.Atoi(s); err == nil {
					return "Day " + s
				}
				return s
			}
		case float64:
			return fmt.Sprintf("Day %d", int(t))
		}
	}
	return fmt.Sprintf("Day %d", i+1)
}

func decodeSelection(e entry) (mealplans.Selection, error) {
	sel := mealplans.Selection{Key: e.key}
	switch t := e.val.(type) {
	case string:
		sel.Name = strings.TrimSpace(t)
		return sel, nil
	case map[string]any:
		for k, v := range t {
			f, ok := dishFieldAliases[normalizeKey(k)]
			if !ok {
				continue
			}
			switch f {
			case fName:
				sel.Name = toString(v)
			case fQuantity:
				sel.Quantity = toString(v)
			default:
				n, err := toNumber(v)
				if err != nil {
					return sel, fmt.Errorf("%s: %w", k, err)
				}
				switch f {
				case fCalories:
					sel.Calories = n
				case fProtein:
					sel.Protein = n
				case fCarbs:
					sel.Carbs = n
				case fFats:
					sel.Fats = n
				}
			}
		}
		if sel.Name == "" {
			sel.Name = e.key
		}
		return sel, nil
	}
	return sel, fmt.Errorf("unsupported dish value %T", e.val)
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

var leadingNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

func toNumber(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case json.Number:
		return t.Float64()
	case nil:
		return 0, nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if s == "" {
			return 0, nil
		}
		m := leadingNumber.FindString(s)
		if m == "" {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return strconv.ParseFloat(m, 64)
	}
	return 0, fmt.Errorf("not a number: %v", v)
}
