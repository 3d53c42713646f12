package profiles

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() UserProfile {
	return UserProfile{
		Name:          "Asha",
		Email:         "asha@example.com",
		Age:           30,
		Gender:        Female,
		WeightKg:      60,
		HeightCm:      165,
		ActivityLevel: LightlyActive,
		Goal:          FatLoss,
		DietType:      Vegetarian,
		MealFrequency: 3,
	}
}

func TestParseActivityLevel(t *testing.T) {
	tests := map[string]ActivityLevel{
		"1":                 Sedentary,
		"2":                 Sedentary,
		"3":                 LightlyActive,
		"4":                 LightlyActive,
		"5":                 ModeratelyActive,
		"6.5":               ModeratelyActive,
		"8":                 VeryActive,
		"10":                ExtraActive,
		"Sedentary":         Sedentary,
		"moderately active": ModeratelyActive,
		"Highly active":     VeryActive,
		"extremely active":  ExtraActive,
		"":                  LightlyActive,
		"couch":             LightlyActive,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseActivityLevel(in), "input %q", in)
	}
}

func TestParseGoalAndDietType(t *testing.T) {
	assert.Equal(t, FatLoss, ParseGoal("Fat loss"))
	assert.Equal(t, MuscleGain, ParseGoal("muscle gain"))
	assert.Equal(t, WeightGain, ParseGoal("Weight Gain"))
	assert.Equal(t, GeneralWellness, ParseGoal("feel better"))

	assert.Equal(t, NonVegetarian, ParseDietType("Non-Vegetarian"))
	assert.Equal(t, NonVegetarian, ParseDietType("non veg"))
	assert.Equal(t, Eggetarian, ParseDietType("Eggetarian"))
	assert.Equal(t, Jain, ParseDietType("jain"))
	assert.Equal(t, Vegetarian, ParseDietType("veg"))
	assert.Equal(t, Mixed, ParseDietType("whatever"))
	assert.Equal(t, Mixed, ParseDietType(""))

	assert.Equal(t, Male, ParseGender(" MALE "))
	assert.Equal(t, Female, ParseGender("f"))
	assert.Equal(t, Other, ParseGender(""))
}

func TestValidate(t *testing.T) {
	require.NoError(t, validProfile().Validate())

	p := validProfile()
	p.Age = 5
	p.MealFrequency = 7
	p.Email = "not-an-email"
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidProfile))
	assert.Contains(t, err.Error(), "Age")
	assert.Contains(t, err.Error(), "MealFrequency")
	assert.Contains(t, err.Error(), "Email")

	p = validProfile()
	p.DietType = "Carnivore"
	err = p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DietType")
}

func TestWithDislikesCopies(t *testing.T) {
	p := validProfile()
	p.Dislikes = []string{"okra", "mushroom", "paneer"}

	q := p.WithDislikes(p.Dislikes[:2])
	q.Dislikes[0] = "changed"

	assert.Equal(t, "okra", p.Dislikes[0])
	assert.Len(t, q.Dislikes, 2)
	assert.Nil(t, p.WithDislikes(nil).Dislikes)
}

func TestHasCondition(t *testing.T) {
	p := validProfile()
	p.HealthConditions = []string{"Type 2 Diabetes"}
	assert.True(t, p.HasCondition("diabetes"))
	assert.False(t, p.HasCondition("thyroid"))
}
