package prompt

import (
	"strings"
	"testing"

	"github.com/fdg312/dietplan/internal/candidates"
	"github.com/fdg312/dietplan/internal/catalog"
	"github.com/fdg312/dietplan/internal/mealplans"
	"github.com/fdg312/dietplan/internal/nutrition"
	"github.com/fdg312/dietplan/internal/profiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest(t *testing.T, freq int) PlanRequest {
	t.Helper()
	p := profiles.UserProfile{
		Name:                "Ravi",
		Email:               "ravi@example.com",
		Age:                 34,
		Gender:              profiles.Male,
		WeightKg:            78,
		HeightCm:            172,
		ActivityLevel:       profiles.ModeratelyActive,
		Goal:                profiles.FatLoss,
		DietType:            profiles.NonVegetarian,
		MealFrequency:       freq,
		CulturePreference:   "Mixed",
		HealthConditions:    []string{"Diabetes", "hypothyroid"},
		Dislikes:            []string{"okra", "bitter gourd"},
		IngredientFrequency: map[string]int{"paneer": 2, "chicken": 3, "fish": 1},
		LabValues:           map[string]string{"Vitamin B12": "low", "Triglycerides": "high", "Iron": "normal"},
		NonVegAvoidDays:     []string{"Tuesday", "Thursday"},
	}
	set, err := candidates.Select(catalog.Default(), p, candidates.Options{})
	require.NoError(t, err)
	targets := nutrition.ComputeTargets(p)
	return PlanRequest{
		Profile:           p,
		Targets:           targets,
		Candidates:        set,
		PortionMultiplier: targets.PortionMultiplier,
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	req := testRequest(t, 4)
	first, err := Build(req)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Build(testRequest(t, 4))
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestBuildContainsConstraintBlocks(t *testing.T) {
	out, err := Build(testRequest(t, 4))
	require.NoError(t, err)

	for _, want := range []string{
		"**Meal Distribution**",
		"Breakfast: 22%",
		"Snack: 12%",
		"Use chicken about 3x/week",
		"Exclude okra;",
		"Exclude bitter gourd;",
		"Diabetes: avoid refined sugars",
		"Thyroid: avoid raw crucifers",
		"Low B12",
		"High triglycerides",
		"No non-veg on Tuesday, Thursday.",
		"Mixed cuisine.",
		"never on consecutive days",
		"2-3 L water/day",
		"at least 25 g, 25 ml or half a unit",
		`"Breakfast", "Lunch", "Dinner", "Snack"`,
		`"7DayPlan"`,
		`"AverageMacros"`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Iron deficiency")
	assert.NotContains(t, out, "ravi@example.com")

	chicken := strings.Index(out, "Use chicken")
	fish := strings.Index(out, "Use fish")
	paneer := strings.Index(out, "Use paneer")
	assert.True(t, chicken < fish && fish < paneer, "frequency lines are sorted")
}

func TestExtractRequestRoundTrip(t *testing.T) {
	req := testRequest(t, 5)
	out, err := Build(req)
	require.NoError(t, err)

	payload, err := ExtractRequest(out)
	require.NoError(t, err)
	assert.Equal(t, req.Targets.CalorieGoal, payload.CalorieGoal)
	assert.Equal(t, "Ravi", payload.Profile.Name)
	require.Len(t, payload.SlotTargets, 5)
	assert.Equal(t, mealplans.Snack2, payload.SlotTargets[4].Slot)
	require.Len(t, payload.Candidates, 5)
	assert.NotEmpty(t, payload.Candidates[0].Dishes)
	assert.InDelta(t, req.PortionMultiplier, payload.PortionMultiplier, 0.0001)
}

func TestExtractRequestMissingBlock(t *testing.T) {
	_, err := ExtractRequest("no payload here")
	assert.Error(t, err)
	_, err = ExtractRequest("<request>{not json</request>")
	assert.Error(t, err)
}

func TestBuildRequiresCandidates(t *testing.T) {
	_, err := Build(PlanRequest{})
	assert.Error(t, err)
}

func TestDietAndRegionText(t *testing.T) {
	rules := catalog.DefaultRules()
	assert.Equal(t, "Western: oatmeal, salads, grilled proteins.", regionText(rules, "Western"))
	assert.Contains(t, regionText(rules, "South Indian"), "South Indian")
	assert.Contains(t, regionText(rules, "Punjabi"), "North Indian")
	assert.Equal(t, "Mixed cuisine.", regionText(rules, "Both"))

	assert.Contains(t, dietText(profiles.UserProfile{DietType: profiles.Jain}), "asafoetida")
	assert.Equal(t, "Vegetarian: no meat, fish or eggs.", dietText(profiles.UserProfile{DietType: profiles.Vegetarian}))
	assert.Equal(t, []string{"None."}, dislikeLines(nil))
	assert.Equal(t, []string{"None specified."}, frequencyLines(nil))
	assert.Equal(t, []string{"None."}, labLines(map[string]string{"Iron": "normal"}))
}
