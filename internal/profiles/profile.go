package profiles

import (
	"strconv"
	"strings"
)

type ActivityLevel string

const (
	Sedentary        ActivityLevel = "Sedentary"
	LightlyActive    ActivityLevel = "Lightly active"
	ModeratelyActive ActivityLevel = "Moderately active"
	VeryActive       ActivityLevel = "Very active"
	ExtraActive      ActivityLevel = "Extra active"
)

type Goal string

const (
	FatLoss         Goal = "Fat loss"
	MuscleGain      Goal = "Muscle gain"
	WeightGain      Goal = "Weight gain"
	GeneralWellness Goal = "General wellness"
)

type DietType string

const (
	Vegetarian    DietType = "Vegetarian"
	Eggetarian    DietType = "Eggetarian"
	NonVegetarian DietType = "Non-Vegetarian"
	Jain          DietType = "Jain"
	Mixed         DietType = "Mixed"
)

type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
	Other  Gender = "Other"
)

// UserProfile is the input to plan generation. Callers treat it as immutable;
// use the With* helpers to derive variants.
type UserProfile struct {
	Name                string            `json:"name" validate:"required,max=120"`
	Email               string            `json:"email,omitempty" validate:"omitempty,email"`
	Age                 int               `json:"age" validate:"gte=10,lte=100"`
	Gender              Gender            `json:"gender" validate:"oneof=Male Female Other"`
	WeightKg            float64           `json:"weight_kg" validate:"gte=20,lte=350"`
	HeightCm            float64           `json:"height_cm" validate:"gte=90,lte=250"`
	ActivityLevel       ActivityLevel     `json:"activity_level" validate:"required"`
	Goal                Goal              `json:"goal" validate:"required"`
	DietType            DietType          `json:"diet_type" validate:"required"`
	MealFrequency       int               `json:"meal_frequency" validate:"gte=3,lte=5"`
	CulturePreference   string            `json:"culture_preference,omitempty" validate:"max=80"`
	HealthConditions    []string          `json:"health_conditions,omitempty" validate:"dive,max=80"`
	Dislikes            []string          `json:"dislikes,omitempty" validate:"dive,max=80"`
	IngredientFrequency map[string]int    `json:"ingredient_frequency,omitempty" validate:"dive,gte=0,lte=21"`
	LabValues           map[string]string `json:"lab_values,omitempty"`
	NonVegAvoidDays     []string          `json:"non_veg_avoid_days,omitempty"`
	Notes               string            `json:"notes,omitempty" validate:"max=2000"`
}

// WithDislikes returns a copy of the profile with the dislike list replaced.
func (p UserProfile) WithDislikes(d []string) UserProfile {
	out := p
	if d == nil {
		out.Dislikes = nil
		return out
	}
	out.Dislikes = append([]string(nil), d...)
	return out
}

// HasCondition reports whether any listed health condition contains name.
func (p UserProfile) HasCondition(name string) bool {
	name = strings.ToLower(name)
	for _, c := range p.HealthConditions {
		if strings.Contains(strings.ToLower(c), name) {
			return true
		}
	}
	return false
}

// ParseActivityLevel accepts level names, common synonyms and the 1-10
// numeric survey scale. Anything else maps to LightlyActive.
func ParseActivityLevel(s string) ActivityLevel {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		switch {
		case n <= 2:
			return Sedentary
		case n <= 4:
			return LightlyActive
		case n <= 6:
			return ModeratelyActive
		case n <= 8:
			return VeryActive
		default:
			return ExtraActive
		}
	}

	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "sedentary"), strings.Contains(l, "inactive"):
		return Sedentary
	case strings.Contains(l, "light"):
		return LightlyActive
	case strings.Contains(l, "moderate"):
		return ModeratelyActive
	case strings.Contains(l, "very"), strings.Contains(l, "highly"):
		return VeryActive
	case strings.Contains(l, "extra"), strings.Contains(l, "extreme"):
		return ExtraActive
	}
	return LightlyActive
}

func ParseGoal(s string) Goal {
	l := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(l, "fat"), strings.Contains(l, "weight loss"), strings.Contains(l, "lose"):
		return FatLoss
	case strings.Contains(l, "muscle"):
		return MuscleGain
	case strings.Contains(l, "weight gain"), strings.Contains(l, "gain weight"):
		return WeightGain
	}
	return GeneralWellness
}

func ParseDietType(s string) DietType {
	l := strings.ToLower(strings.TrimSpace(s))
	l = strings.NewReplacer("-", "", " ", "", "_", "").Replace(l)
	switch {
	case l == "":
		return Mixed
	case strings.Contains(l, "nonveg"):
		return NonVegetarian
	case strings.Contains(l, "jain"):
		return Jain
	case strings.Contains(l, "egg"):
		return Eggetarian
	case strings.Contains(l, "veg"):
		return Vegetarian
	}
	return Mixed
}

func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "man":
		return Male
	case "female", "f", "woman":
		return Female
	}
	return Other
}
