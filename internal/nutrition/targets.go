package nutrition

import (
	"math"

	"github.com/fdg312/dietplan/internal/mealplans"
	"github.com/fdg312/dietplan/internal/profiles"
)

// Macros holds daily macronutrient targets in grams.
type Macros struct {
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// Targets are the computed energy targets for one profile.
type Targets struct {
	BMR               float64                `json:"bmr"`
	TDEE              float64                `json:"tdee"`
	CalorieGoal       int                    `json:"calorie_goal"`
	Macros            Macros                 `json:"macros"`
	PortionMultiplier float64                `json:"portion_multiplier"`
	Slots             []mealplans.SlotTarget `json:"slots"`
}

var activityFactors = map[profiles.ActivityLevel]float64{
	profiles.Sedentary:        1.2,
	profiles.LightlyActive:    1.375,
	profiles.ModeratelyActive: 1.55,
	profiles.VeryActive:       1.725,
	profiles.ExtraActive:      1.9,
}

var goalAdjustments = map[profiles.Goal]float64{
	profiles.FatLoss:         0.8,
	profiles.MuscleGain:      1.15,
	profiles.WeightGain:      1.2,
	profiles.GeneralWellness: 1.0,
}

type ratio struct{ protein, carbs, fat float64 }

var macroRatios = map[profiles.Goal]ratio{
	profiles.FatLoss:         {0.40, 0.35, 0.25},
	profiles.MuscleGain:      {0.35, 0.40, 0.25},
	profiles.WeightGain:      {0.25, 0.45, 0.30},
	profiles.GeneralWellness: {0.30, 0.40, 0.30},
}

// BMR uses the Mifflin-St Jeor equation.
func BMR(weightKg, heightCm float64, age int, gender profiles.Gender) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if gender == profiles.Male {
		return base + 5
	}
	return base - 161
}

// TDEE applies the activity factor. Unknown levels use the lightly active factor.
func TDEE(bmr float64, level profiles.ActivityLevel) float64 {
	f, ok := activityFactors[level]
	if !ok {
		f = activityFactors[profiles.LightlyActive]
	}
	return bmr * f
}

func AdjustForGoal(tdee float64, goal profiles.Goal) float64 {
	f, ok := goalAdjustments[goal]
	if !ok {
		f = 1.0
	}
	return tdee * f
}

func ComputeMacros(calories float64, goal profiles.Goal) Macros {
	r, ok := macroRatios[goal]
	if !ok {
		r = macroRatios[profiles.GeneralWellness]
	}
	return Macros{
		ProteinG: round1(calories * r.protein / 4),
		CarbsG:   round1(calories * r.carbs / 4),
		FatG:     round1(calories * r.fat / 9),
	}
}

// PortionMultiplier scales catalog portions toward the profile's energy needs.
func PortionMultiplier(p profiles.UserProfile) float64 {
	var m float64
	switch p.Goal {
	case profiles.FatLoss:
		m = 0.8
	case profiles.MuscleGain, profiles.WeightGain:
		m = 1.2
	default:
		m = 1.0
	}
	switch p.ActivityLevel {
	case profiles.Sedentary:
		m -= 0.05
	case profiles.VeryActive:
		m += 0.1
	case profiles.ExtraActive:
		m += 0.15
	}
	if p.HasCondition("diabetes") {
		m *= 0.9
	}
	m = math.Max(0.5, math.Min(1.6, m))
	return math.Round(m*100) / 100
}

// ComputeTargets derives all energy targets for a profile.
func ComputeTargets(p profiles.UserProfile) Targets {
	bmr := BMR(p.WeightKg, p.HeightCm, p.Age, p.Gender)
	tdee := TDEE(bmr, p.ActivityLevel)
	goal := AdjustForGoal(tdee, p.Goal)
	calorieGoal := int(math.Round(goal))
	return Targets{
		BMR:               math.Round(bmr),
		TDEE:              math.Round(tdee),
		CalorieGoal:       calorieGoal,
		Macros:            ComputeMacros(goal, p.Goal),
		PortionMultiplier: PortionMultiplier(p),
		Slots:             mealplans.SlotTargets(calorieGoal, p.MealFrequency),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
