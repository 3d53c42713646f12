package nutrition

import (
	"testing"

	"github.com/fdg312/dietplan/internal/profiles"
	"github.com/stretchr/testify/assert"
)

func TestBMR(t *testing.T) {
	assert.InDelta(t, 1648.75, BMR(70, 175, 30, profiles.Male), 0.001)
	assert.InDelta(t, 1320.25, BMR(60, 165, 30, profiles.Female), 0.001)
	assert.InDelta(t, 1320.25, BMR(60, 165, 30, profiles.Other), 0.001)
}

func TestTDEEFactors(t *testing.T) {
	assert.InDelta(t, 1200, TDEE(1000, profiles.Sedentary), 0.001)
	assert.InDelta(t, 1375, TDEE(1000, profiles.LightlyActive), 0.001)
	assert.InDelta(t, 1550, TDEE(1000, profiles.ModeratelyActive), 0.001)
	assert.InDelta(t, 1725, TDEE(1000, profiles.VeryActive), 0.001)
	assert.InDelta(t, 1900, TDEE(1000, profiles.ExtraActive), 0.001)
	assert.InDelta(t, 1375, TDEE(1000, "unknown"), 0.001)
}

func TestComputeTargets(t *testing.T) {
	p := profiles.UserProfile{
		Age:           30,
		Gender:        profiles.Male,
		WeightKg:      70,
		HeightCm:      175,
		ActivityLevel: profiles.ModeratelyActive,
		Goal:          profiles.FatLoss,
		MealFrequency: 4,
	}
	got := ComputeTargets(p)

	assert.Equal(t, 2044, got.CalorieGoal)
	assert.InDelta(t, 204.4, got.Macros.ProteinG, 0.001)
	assert.InDelta(t, 178.9, got.Macros.CarbsG, 0.001)
	assert.InDelta(t, 56.8, got.Macros.FatG, 0.001)
	assert.Len(t, got.Slots, 4)
	assert.InDelta(t, 0.8, got.PortionMultiplier, 0.001)
}

func TestGoalAdjustment(t *testing.T) {
	assert.InDelta(t, 800, AdjustForGoal(1000, profiles.FatLoss), 0.001)
	assert.InDelta(t, 1150, AdjustForGoal(1000, profiles.MuscleGain), 0.001)
	assert.InDelta(t, 1200, AdjustForGoal(1000, profiles.WeightGain), 0.001)
	assert.InDelta(t, 1000, AdjustForGoal(1000, profiles.GeneralWellness), 0.001)
}

func TestPortionMultiplier(t *testing.T) {
	tests := []struct {
		name string
		p    profiles.UserProfile
		want float64
	}{
		{"wellness moderate", profiles.UserProfile{Goal: profiles.GeneralWellness, ActivityLevel: profiles.ModeratelyActive}, 1.0},
		{"fat loss sedentary", profiles.UserProfile{Goal: profiles.FatLoss, ActivityLevel: profiles.Sedentary}, 0.75},
		{"muscle gain extra", profiles.UserProfile{Goal: profiles.MuscleGain, ActivityLevel: profiles.ExtraActive}, 1.35},
		{"weight gain very", profiles.UserProfile{Goal: profiles.WeightGain, ActivityLevel: profiles.VeryActive}, 1.3},
		{"diabetic wellness", profiles.UserProfile{Goal: profiles.GeneralWellness, HealthConditions: []string{"Diabetes"}}, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PortionMultiplier(tt.p), 0.001)
		})
	}
}
