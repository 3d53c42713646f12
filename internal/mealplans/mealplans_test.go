package mealplans

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotsFor(t *testing.T) {
	assert.Equal(t, []Slot{Breakfast, Lunch, Dinner}, SlotsFor(3))
	assert.Equal(t, []Slot{Breakfast, Lunch, Dinner, Snack}, SlotsFor(4))
	assert.Equal(t, []Slot{Breakfast, Lunch, Dinner, Snack1, Snack2}, SlotsFor(5))
	assert.Equal(t, SlotsFor(3), SlotsFor(1), "frequencies below 3 are clamped")
}

func TestSlotSplitsSumToHundred(t *testing.T) {
	for freq := 3; freq <= 5; freq++ {
		total := 0
		for _, s := range SlotSplit(freq) {
			total += s.Percent
		}
		assert.Equal(t, 100, total, "freq %d", freq)
	}
}

func TestSlotTargets(t *testing.T) {
	targets := SlotTargets(1500, 3)
	require.Len(t, targets, 3)
	assert.Equal(t, 375, targets[0].Kcal)
	assert.Equal(t, 525, targets[1].Kcal)
	assert.Equal(t, 600, targets[2].Kcal)
}

func TestCanonicalSlot(t *testing.T) {
	single := SlotsFor(4)
	double := SlotsFor(5)

	tests := []struct {
		key    string
		slots  []Slot
		want   Slot
		wantOK bool
	}{
		{"breakfast", single, Breakfast, true},
		{" Lunch ", single, Lunch, true},
		{"Snack1", single, Snack, true},
		{"Evening Snack", single, Snack, true},
		{"Snacks", single, Snack, true},
		{"Snack 1", double, Snack1, true},
		{"evening_snack", double, Snack2, true},
		{"Snack", double, Snack, true},
		{"Snack", SlotsFor(3), "", false},
		{"Notes", single, "", false},
	}
	for _, tt := range tests {
		got, ok := CanonicalSlot(tt.key, tt.slots)
		assert.Equal(t, tt.wantOK, ok, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}
}

func TestDietPlanMarshalsWireContract(t *testing.T) {
	plan := DietPlan{
		Days: []DayPlan{{
			Label: "Day 1",
			Meals: []Meal{
				{Slot: Breakfast, Items: []Selection{{Key: "Dish1", Name: "Poha", Quantity: "1 plate (200g)", Calories: 300, Protein: 6, Carbs: 50, Fats: 8}}},
				{Slot: Lunch, Items: []Selection{{Name: "Dal Rice", Quantity: "1 bowl (250g)", Calories: 450}}},
			},
		}},
	}
	plan.Summary = Summarize(&plan)

	b, err := json.Marshal(plan)
	require.NoError(t, err)
	s := string(b)

	assert.True(t, strings.HasPrefix(s, `{"7DayPlan":[{"Day":"Day 1","Breakfast":{"Dish1":{"name":"Poha"`), s)
	assert.Contains(t, s, `"Lunch":{"Dish1":{"name":"Dal Rice"`)
	assert.Contains(t, s, `"AverageCalories":"750 kcal/day"`)
	assert.Contains(t, s, `"AverageMacros":{"Protein":"6g","Carbs":"50g","Fats":"8g"}`)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(b, &generic))
	assert.Len(t, generic[KeyPlan], 1)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Equal(t, Summary{}, Summarize(&DietPlan{}))
}

func TestDayPlanMarshalJSONNeverRepeatsDishKeys(t *testing.T) {
	day := DayPlan{
		Label: "Day 1",
		Meals: []Meal{{Slot: Snack, Items: []Selection{
			{Key: "Dish1", Name: "Fruit bowl", Calories: 150},
			{Key: "Dish1", Name: "Sprouts chaat", Calories: 90},
			{Name: "Buttermilk", Calories: 40},
		}}},
	}
	raw, err := json.Marshal(day)
	require.NoError(t, err)

	var decoded struct {
		Snack map[string]json.RawMessage `json:"Snack"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Snack, 3)
	assert.Contains(t, decoded.Snack, "Dish1")
	assert.Contains(t, decoded.Snack, "Dish2")
	assert.Contains(t, decoded.Snack, "Dish3")
	assert.Equal(t, 3, strings.Count(string(raw), `"Dish`))
}
