package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/fdg312/dietplan/internal/mealplans"
)

// PlanDays is the number of days an accepted plan must contain.
const PlanDays = 7

// ValidationResult collects every structural problem found in a document.
type ValidationResult struct {
	Valid    bool
	Problems []string
}

func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidStructure, strings.Join(r.Problems, "; "))
}

// ValidateStructure checks a parsed document: a "7DayPlan" array of exactly
// seven day objects, each carrying exactly the requested slots with at least
// one dish. Slot aliases are normalized first; "Day", "Notes" and "Total*"
// keys are tolerated.
func ValidateStructure(doc map[string]any, slots []mealplans.Slot) ValidationResult {
	var problems []string
	days, err := planDays(doc)
	if err != nil {
		return ValidationResult{Problems: []string{err.Error()}}
	}
	if len(days) != PlanDays {
		problems = append(problems, fmt.Sprintf("expected %d days, got %d", PlanDays, len(days)))
	}
	for i, raw := range days {
		label := fmt.Sprintf("day %d", i+1)
		day, ok := raw.(map[string]any)
		if !ok {
			problems = append(problems, label+": not an object")
			continue
		}
		resolved, unknown := resolveDay(day, slots)
		for _, k := range unknown {
			problems = append(problems, fmt.Sprintf("%s: unexpected key %q", label, k))
		}
		for _, s := range slots {
			vals, ok := resolved[s]
			if !ok {
				problems = append(problems, fmt.Sprintf("%s: missing %s", label, s))
				continue
			}
			if countEntries(vals) == 0 {
				problems = append(problems, fmt.Sprintf("%s: %s is empty", label, s))
			}
		}
	}
	return ValidationResult{Valid: len(problems) == 0, Problems: problems}
}

func planDays(doc map[string]any) ([]any, error) {
	if doc == nil {
		return nil, fmt.Errorf("empty document")
	}
	var v any
	var found bool
	for k, val := range doc {
		switch normalizeKey(k) {
		case "7dayplan", "sevendayplan":
			v, found = val, true
		}
	}
	if !found {
		return nil, fmt.Errorf("missing %q", mealplans.KeyPlan)
	}
	days, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%q is not an array", mealplans.KeyPlan)
	}
	return days, nil
}

func isMetaKey(k string) bool {
	n := normalizeKey(k)
	return n == "day" || n == "notes" || n == "note" || strings.HasPrefix(n, "total")
}

// resolveDay maps each slot key of a day onto the schema. Values of keys that
// resolve to the same slot are collected together. An unqualified snack in a
// two-snack schema fills the first numbered snack no other key claimed.
func resolveDay(day map[string]any, slots []mealplans.Slot) (map[mealplans.Slot][]any, []string) {
	keys := make([]string, 0, len(day))
	for k := range day {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resolved := make(map[mealplans.Slot][]any)
	var unknown []string
	var ambiguous []string
	twoSnacks := containsSlot(slots, mealplans.Snack1)
	for _, k := range keys {
		if isMetaKey(k) {
			continue
		}
		s, ok := mealplans.CanonicalSlot(k, slots)
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		if twoSnacks && s == mealplans.Snack {
			ambiguous = append(ambiguous, k)
			continue
		}
		resolved[s] = append(resolved[s], day[k])
	}
	for _, k := range ambiguous {
		target := mealplans.Snack2
		if _, taken := resolved[mealplans.Snack1]; !taken {
			target = mealplans.Snack1
		}
		resolved[target] = append(resolved[target], day[k])
	}
	return resolved, unknown
}

func containsSlot(slots []mealplans.Slot, s mealplans.Slot) bool {
	for _, x := range slots {
		if x == s {
			return true
		}
	}
	return false
}

// countEntries counts dishes across the values collected for one slot.
func countEntries(vals []any) int {
	n := 0
	for _, v := range vals {
		n += len(slotEntries(v))
	}
	return n
}

type entry struct {
	key string
	val any
}

// slotEntries flattens the shapes a slot value may take: a map of dish keys,
// a single dish object, an array of dishes, or a bare dish name.
func slotEntries(v any) []entry {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return nil
		}
		if looksLikeDish(t) {
			return []entry{{val: t}}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return naturalLess(keys[i], keys[j]) })
		out := make([]entry, 0, len(keys))
		for _, k := range keys {
			out = append(out, entry{key: k, val: t[k]})
		}
		return out
	case []any:
		out := make([]entry, 0, len(t))
		for _, item := range t {
			if item != nil {
				out = append(out, entry{val: item})
			}
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []entry{{val: t}}
	}
	return nil
}

func looksLikeDish(m map[string]any) bool {
	for k, v := range m {
		if _, nested := v.(map[string]any); nested {
			continue
		}
		if _, ok := dishFieldAliases[normalizeKey(k)]; ok {
			return true
		}
	}
	return false
}

func normalizeKey(k string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return r.Replace(strings.ToLower(strings.TrimSpace(k)))
}

// naturalLess orders "Dish2" before "Dish10".
func naturalLess(a, b string) bool {
	pa, na := splitNumericSuffix(a)
	pb, nb := splitNumericSuffix(b)
	if pa != pb || na < 0 || nb < 0 {
		return a < b
	}
	return na < nb
}

func splitNumericSuffix(s string) (string, int) {
	i := len(s)
	for i > 0 && unicode.IsDigit(rune(s[i-1])) {
		i--
	}
	if i == len(s) {
		return s, -1
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, -1
	}
	return s[:i], n
}
