package prompt

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/fdg312/dietplan/internal/candidates"
	"github.com/fdg312/dietplan/internal/catalog"
	"github.com/fdg312/dietplan/internal/mealplans"
	"github.com/fdg312/dietplan/internal/nutrition"
	"github.com/fdg312/dietplan/internal/profiles"
)

// DefaultToleranceKcal is quoted to the model when the request leaves it unset.
const DefaultToleranceKcal = 150

const (
	requestOpen  = "<request>"
	requestClose = "</request>"
)

//go:embed plan_prompt.tmpl
var planPrompt string

var planTemplate = template.Must(template.New("plan").Parse(planPrompt))

// PlanRequest is the complete input to one acquisition.
type PlanRequest struct {
	Profile           profiles.UserProfile
	Targets           nutrition.Targets
	Candidates        *candidates.CandidateSet
	PortionMultiplier float64
	ToleranceKcal     float64
}

// Slots returns the slot schema of the request.
func (r PlanRequest) Slots() []mealplans.Slot {
	if r.Candidates != nil && len(r.Candidates.Slots) > 0 {
		return r.Candidates.Slots
	}
	return mealplans.SlotsFor(r.Profile.MealFrequency)
}

// ProfileSummary is the part of the profile shown to the model.
type ProfileSummary struct {
	Name                string            `json:"name"`
	Age                 int               `json:"age"`
	Gender              string            `json:"gender"`
	WeightKg            float64           `json:"weight_kg"`
	HeightCm            float64           `json:"height_cm"`
	ActivityLevel       string            `json:"activity_level"`
	Goal                string            `json:"goal"`
	DietType            string            `json:"diet_type"`
	MealFrequency       int               `json:"meal_frequency"`
	CulturePreference   string            `json:"culture_preference,omitempty"`
	HealthConditions    []string          `json:"health_conditions,omitempty"`
	Dislikes            []string          `json:"dislikes,omitempty"`
	IngredientFrequency map[string]int    `json:"ingredient_frequency,omitempty"`
	LabValues           map[string]string `json:"lab_values,omitempty"`
	NonVegAvoidDays     []string          `json:"non_veg_avoid_days,omitempty"`
}

// Payload is the JSON embedded between the request tags.
type Payload struct {
	Profile           ProfileSummary              `json:"profile"`
	CalorieGoal       int                         `json:"calorie_goal"`
	Macros            nutrition.Macros            `json:"macros"`
	SlotTargets       []mealplans.SlotTarget      `json:"slot_targets"`
	PortionMultiplier float64                     `json:"portion_multiplier"`
	Candidates        []candidates.SlotCandidates `json:"candidates"`
}

type view struct {
	Payload      string
	CalorieGoal  int
	Tolerance    int
	Distribution []string
	Frequency    []string
	Dislikes     []string
	Health       []string
	Labs         []string
	Diet         string
	Region       string
	SlotTargets  string
	SlotNames    string
	Schema       string
}

// Build renders the plan prompt. Equal requests render byte-identical prompts.
func Build(req PlanRequest) (string, error) {
	if req.Candidates == nil {
		return "", errors.New("build prompt: no candidates")
	}
	slots := req.Slots()
	targets := req.Targets.Slots
	if len(targets) == 0 {
		targets = mealplans.SlotTargets(req.Targets.CalorieGoal, len(slots))
	}

	payload := Payload{
		Profile:           summarize(req.Profile),
		CalorieGoal:       req.Targets.CalorieGoal,
		Macros:            req.Targets.Macros,
		SlotTargets:       targets,
		PortionMultiplier: req.PortionMultiplier,
		Candidates:        req.Candidates.Compact(req.PortionMultiplier),
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("build prompt: encode request: %w", err)
	}

	tolerance := req.ToleranceKcal
	if tolerance <= 0 {
		tolerance = DefaultToleranceKcal
	}
	rules := catalog.DefaultRules()
	v := view{
		Payload:      string(raw),
		CalorieGoal:  req.Targets.CalorieGoal,
		Tolerance:    int(tolerance),
		Distribution: distributionLines(targets),
		Frequency:    frequencyLines(req.Profile.IngredientFrequency),
		Dislikes:     dislikeLines(req.Profile.Dislikes),
		Health:       healthLines(rules.MatchConditions(req.Profile.HealthConditions)),
		Labs:         labLines(req.Profile.LabValues),
		Diet:         dietText(req.Profile),
		Region:       regionText(rules, req.Profile.CulturePreference),
		SlotTargets:  slotTargetText(targets),
		SlotNames:    slotNames(slots),
		Schema:       schema(slots),
	}

	var buf bytes.Buffer
	if err := planTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}
	return buf.String(), nil
}

// ExtractRequest recovers the payload embedded in a rendered prompt.
func ExtractRequest(text string) (Payload, error) {
	start := strings.Index(text, requestOpen)
	end := strings.Index(text, requestClose)
	if start < 0 || end < start {
		return Payload{}, errors.New("no request block in prompt")
	}
	var p Payload
	body := text[start+len(requestOpen) : end]
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return Payload{}, fmt.Errorf("decode request block: %w", err)
	}
	return p, nil
}

func summarize(p profiles.UserProfile) ProfileSummary {
	return ProfileSummary{
		Name:                p.Name,
		Age:                 p.Age,
		Gender:              string(p.Gender),
		WeightKg:            p.WeightKg,
		HeightCm:            p.HeightCm,
		ActivityLevel:       string(p.ActivityLevel),
		Goal:                string(p.Goal),
		DietType:            string(p.DietType),
		MealFrequency:       p.MealFrequency,
		CulturePreference:   p.CulturePreference,
		HealthConditions:    p.HealthConditions,
		Dislikes:            p.Dislikes,
		IngredientFrequency: p.IngredientFrequency,
		LabValues:           p.LabValues,
		NonVegAvoidDays:     p.NonVegAvoidDays,
	}
}

func distributionLines(targets []mealplans.SlotTarget) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, fmt.Sprintf("%s: %d%% (~%d kcal)", t.Slot, t.Percent, t.Kcal))
	}
	return out
}

func frequencyLines(freq map[string]int) []string {
	if len(freq) == 0 {
		return []string{"None specified."}
	}
	keys := make([]string, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("Use %s about %dx/week, spaced out (not on consecutive days).", k, freq[k]))
	}
	return out
}

func dislikeLines(dislikes []string) []string {
	var out []string
	for _, d := range dislikes {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, fmt.Sprintf("Exclude %s; substitute with a similar nutrient-dense alternative.", d))
		}
	}
	if len(out) == 0 {
		return []string{"None."}
	}
	return out
}

var conditionAdvice = map[string]string{
	"diabetes":     "Diabetes: avoid refined sugars, sweets, white bread/rice and high-GI carbs.",
	"pcos":         "PCOS: limit dairy and refined flour; prefer gluten-free or dairy-free swaps.",
	"thyroid":      "Thyroid: avoid raw crucifers (broccoli, kale), soy and goitrogens; cooked is fine.",
	"hypertension": "Hypertension: low salt; no pickles, papad or processed foods.",
	"kidney":       "Kidney disease: moderate protein; limit potassium-rich foods and salt.",
	"heart":        "Heart disease: avoid fried foods, butter, ghee and red meat; favor fiber and healthy fats.",
}

func healthLines(conditions []string) []string {
	var out []string
	for _, c := range conditions {
		if a, ok := conditionAdvice[c]; ok {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return []string{"None."}
	}
	return out
}

func labLines(labs map[string]string) []string {
	keys := make([]string, 0, len(labs))
	for k := range labs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, lab := range keys {
		l := strings.ToLower(lab)
		st := strings.ToLower(strings.TrimSpace(labs[lab]))
		high := st == "high" || st == "elevated"
		low := st == "low" || st == "deficient"
		switch {
		case strings.Contains(l, "b12") && low:
			out = append(out, "Low B12: include eggs, dairy (if allowed), fish or fortified yeast.")
		case strings.Contains(l, "triglyceride") && high:
			out = append(out, "High triglycerides: fatty fish 2x/week (if allowed), flax/chia seeds; avoid sweets.")
		case strings.Contains(l, "cholesterol") && high:
			out = append(out, "High cholesterol: focus on soluble fiber and healthy fats; limit red meat.")
		case strings.Contains(l, "iron") && low:
			out = append(out, "Iron deficiency: include spinach, legumes, tofu; pair with vitamin C sources.")
		case strings.Contains(l, "vitamin d") && low:
			out = append(out, "Low vitamin D: include egg yolks, mushrooms, fortified milk (if allowed); advise sunlight.")
		case strings.Contains(l, "blood pressure") || strings.Contains(l, "hypertension"):
			if high {
				out = append(out, "High blood pressure: DASH-style meals with fruits, vegetables and low-fat dairy; no added salt.")
			}
		}
	}
	if len(out) == 0 {
		return []string{"None."}
	}
	return out
}

func dietText(p profiles.UserProfile) string {
	avoid := ""
	if len(p.NonVegAvoidDays) > 0 {
		avoid = fmt.Sprintf(" No non-veg on %s.", strings.Join(p.NonVegAvoidDays, ", "))
	}
	switch p.DietType {
	case profiles.NonVegetarian:
		return "Non-Vegetarian: limit animal protein to 1 meal/day." + avoid
	case profiles.Eggetarian:
		return "Eggetarian: no meat or fish; eggs allowed."
	case profiles.Jain:
		return "Jain: no eggs, root vegetables, onion, garlic, honey or gelatin; use asafoetida."
	case profiles.Vegetarian:
		return "Vegetarian: no meat, fish or eggs."
	}
	return "Mixed: vegetarian and non-vegetarian dishes allowed." + avoid
}

var regionAdvice = map[string]string{
	"north": "North Indian: rotis, dals, sabzis, paneer, curd.",
	"south": "South Indian: rice, idli, dosa, upma, sambar.",
	"west":  "West Indian: poha, thepla, dhokla, bhakri, usal.",
	"east":  "East Indian: rice, dal, shukto, chhena, light fish curries (if allowed).",
}

func regionText(rules *catalog.Rules, pref string) string {
	if strings.Contains(strings.ToLower(pref), "western") {
		return "Western: oatmeal, salads, grilled proteins."
	}
	if !rules.IsRegionWildcard(pref) {
		if g, ok := rules.RegionGroup(pref); ok {
			return regionAdvice[g]
		}
	}
	return "Mixed cuisine."
}

func slotTargetText(targets []mealplans.SlotTarget) string {
	parts := make([]string, len(targets))
	for i, t := range targets {
		parts[i] = fmt.Sprintf("%s ~%d kcal", t.Slot, t.Kcal)
	}
	return strings.Join(parts, ", ")
}

func slotNames(slots []mealplans.Slot) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = fmt.Sprintf("%q", string(s))
	}
	return strings.Join(parts, ", ")
}

func schema(slots []mealplans.Slot) string {
	var b strings.Builder
	b.WriteString("{\n  \"7DayPlan\": [\n    {\n      \"Day\": \"Day 1\"")
	for _, s := range slots {
		fmt.Fprintf(&b, ",\n      %q: {\"Dish1\": {\"name\": \"...\", \"quantity\": \"...\", \"calories\": 0, \"protein\": 0, \"carbs\": 0, \"fats\": 0}}", string(s))
	}
	b.WriteString("\n    }\n  ],\n")
	b.WriteString("  \"Summary\": {\n    \"AverageCalories\": \"### kcal/day\",\n")
	b.WriteString("    \"AverageMacros\": {\"Protein\": \"##g\", \"Carbs\": \"##g\", \"Fats\": \"##g\"}\n  }\n}")
	return b.String()
}
