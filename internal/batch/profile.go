package batch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fdg312/dietplan/internal/profiles"
)

// Defaults for survey cells that are blank or unparseable.
const (
	DefaultWeightKg      = 60
	DefaultHeightCm      = 170
	DefaultAge           = 30
	DefaultActivity      = "3"
	DefaultMealFrequency = 3
	DefaultGoal          = "General wellness"
)

var (
	listSep      = regexp.MustCompile(`[;,/]`)
	numberRe     = regexp.MustCompile(`\d+(?:\.\d+)?`)
	kgRe         = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*kgs?\b`)
	cmRe         = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*cms?\b`)
	unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

var emptyAnswers = map[string]bool{
	"":     true,
	"none": true,
	"no":   true,
	"na":   true,
	"n/a":  true,
	"nil":  true,
	"-":    true,
}

// ToProfile maps a survey row onto a profile, filling defaults for gaps.
// The result is validated.
func ToProfile(row Row) (profiles.UserProfile, error) {
	weight, height := bodyMetrics(row)

	activity := row.Get(FieldActivity)
	if activity == "" {
		activity = DefaultActivity
	}
	goal := row.Get(FieldGoals)
	if goal == "" {
		goal = DefaultGoal
	}

	dislikes := append(splitList(row.Get(FieldAllergies)), splitList(row.Get(FieldDislikes))...)

	p := profiles.UserProfile{
		Name:              SanitizeName(row.Name(), fmt.Sprintf("user_%d", row.Index)),
		Age:               intOr(row.Get(FieldAge), DefaultAge),
		Gender:            profiles.ParseGender(row.Get(FieldGender)),
		WeightKg:          weight,
		HeightCm:          height,
		ActivityLevel:     profiles.ParseActivityLevel(activity),
		Goal:              profiles.ParseGoal(goal),
		DietType:          profiles.ParseDietType(row.Get(FieldDietType)),
		MealFrequency:     clamp(intOr(row.Get(FieldMeals), DefaultMealFrequency), 3, 5),
		CulturePreference: row.Get(FieldCulture),
		HealthConditions:  splitList(row.Get(FieldConditions)),
		Dislikes:          dedupe(dislikes),
		NonVegAvoidDays:   splitList(row.Get(FieldNonVegDays)),
		Notes:             row.Get(FieldNotes),
	}
	if email := row.Get(FieldEmail); strings.Contains(email, "@") && !strings.ContainsAny(email, " \t") {
		p.Email = email
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("row %d: %w", row.Index, err)
	}
	return p, nil
}

// SanitizeName makes a name safe for file names. fallback is used when
// nothing printable remains.
func SanitizeName(name, fallback string) string {
	out := unsafeNameRe.ReplaceAllString(strings.TrimSpace(name), "_")
	out = strings.Trim(out, "_")
	if out == "" {
		return fallback
	}
	return out
}

// bodyMetrics reads weight and height from their own columns, falling back
// to a combined "60kg, 165cm" answer.
func bodyMetrics(row Row) (float64, float64) {
	weight := floatOr(row.Get(FieldWeight), 0)
	height := floatOr(row.Get(FieldHeight), 0)

	if combined := row.Get(FieldWeightHeight); combined != "" {
		if weight == 0 {
			if m := kgRe.FindStringSubmatch(combined); m != nil {
				weight, _ = strconv.ParseFloat(m[1], 64)
			}
		}
		if height == 0 {
			if m := cmRe.FindStringSubmatch(combined); m != nil {
				height, _ = strconv.ParseFloat(m[1], 64)
			}
		}
		// Unlabelled "60, 165" is read as weight then height.
		if weight == 0 || height == 0 {
			nums := numberRe.FindAllString(combined, -1)
			if len(nums) == 2 {
				if weight == 0 {
					weight, _ = strconv.ParseFloat(nums[0], 64)
				}
				if height == 0 {
					height, _ = strconv.ParseFloat(nums[1], 64)
				}
			}
		}
	}

	if weight == 0 {
		weight = DefaultWeightKg
	}
	if height == 0 {
		height = DefaultHeightCm
	}
	return weight, height
}

// floatOr takes the first number in s, so "72 kg" reads as 72.
func floatOr(s string, def float64) float64 {
	m := numberRe.FindString(s)
	if m == "" {
		return def
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func intOr(s string, def int) int {
	v := floatOr(s, 0)
	if v == 0 {
		return def
	}
	return int(v)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func splitList(s string) []string {
	if emptyAnswers[strings.ToLower(strings.TrimSpace(s))] {
		return nil
	}
	var out []string
	for _, part := range listSep.Split(s, -1) {
		part = strings.TrimSpace(part)
		if emptyAnswers[strings.ToLower(part)] {
			continue
		}
		out = append(out, part)
	}
	return out
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		k := strings.ToLower(it)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}
