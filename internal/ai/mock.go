package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/fdg312/dietplan/internal/candidates"
	"github.com/fdg312/dietplan/internal/mealplans"
	"github.com/fdg312/dietplan/internal/prompt"
	"github.com/fdg312/dietplan/internal/quantity"
)

const mockDays = 7

// MockProvider answers without a network. It reads the request block of the
// prompt and composes a plan from the offered candidates, scaling each dish
// to its slot target and rotating dishes across days.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	payload, err := prompt.ExtractRequest(req.Prompt)
	if err != nil {
		return Response{}, fmt.Errorf("mock provider: %w", err)
	}

	pool := make(map[mealplans.Slot][]candidates.CompactDish, len(payload.Candidates))
	for _, sc := range payload.Candidates {
		pool[sc.Slot] = sc.Dishes
	}

	plan := &mealplans.DietPlan{Days: make([]mealplans.DayPlan, 0, mockDays)}
	for day := 0; day < mockDays; day++ {
		dp := mealplans.DayPlan{Label: fmt.Sprintf("Day %d", day+1)}
		for _, target := range payload.SlotTargets {
			meal := mealplans.Meal{Slot: target.Slot}
			if dishes := pool[target.Slot]; len(dishes) > 0 {
				meal.Items = append(meal.Items, mockSelection(dishes[day%len(dishes)], target.Kcal))
			}
			dp.Meals = append(dp.Meals, meal)
		}
		plan.Days = append(plan.Days, dp)
	}
	plan.Summary = mealplans.Summarize(plan)

	body, err := json.Marshal(plan)
	if err != nil {
		return Response{}, fmt.Errorf("mock provider: %w", err)
	}
	return Response{Text: string(body), Model: "mock"}, nil
}

func mockSelection(d candidates.CompactDish, targetKcal int) mealplans.Selection {
	m := 1.0
	if d.Kcal > 0 && targetKcal > 0 {
		m = float64(targetKcal) / d.Kcal
	}
	return mealplans.Selection{
		Key:      "Dish1",
		Name:     d.Name,
		Quantity: quantity.ScaleString(d.Quantity, m),
		Calories: round1(d.Kcal * m),
		Protein:  round1(d.Protein * m),
		Carbs:    round1(d.Carbs * m),
		Fats:     round1(d.Fat * m),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
