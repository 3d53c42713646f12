package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/fdg312/dietplan/internal/acquisition"
	"github.com/fdg312/dietplan/internal/ai"
	"github.com/fdg312/dietplan/internal/candidates"
	"github.com/fdg312/dietplan/internal/catalog"
	"github.com/fdg312/dietplan/internal/config"
	"github.com/fdg312/dietplan/internal/mealplans"
	"github.com/fdg312/dietplan/internal/profiles"
	"github.com/fdg312/dietplan/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAcquirer fails the first `failures` calls with ErrExhausted.
type fakeAcquirer struct {
	failures int
	err      error
	requests []acquisition.Request
}

func (f *fakeAcquirer) Acquire(ctx context.Context, req acquisition.Request) (*acquisition.Result, error) {
	f.requests = append(f.requests, req)
	res := &acquisition.Result{Attempts: []acquisition.Attempt{{Number: 1}}}
	if f.err != nil {
		return res, f.err
	}
	if len(f.requests) <= f.failures {
		return res, &acquisition.ExhaustedError{Attempts: 1, LastReason: acquisition.ReasonCalories}
	}
	res.Plan = &mealplans.DietPlan{Days: []mealplans.DayPlan{{Label: "Day 1"}}}
	return res, nil
}

func (f *fakeAcquirer) dislikes(t *testing.T, call int) []string {
	t.Helper()
	payload, err := prompt.ExtractRequest(f.requests[call].Prompt)
	require.NoError(t, err)
	return payload.Profile.Dislikes
}

func profile(dislikes ...string) profiles.UserProfile {
	return profiles.UserProfile{
		Name:          "Meera",
		Age:           41,
		Gender:        profiles.Female,
		WeightKg:      68,
		HeightCm:      158,
		ActivityLevel: profiles.Sedentary,
		Goal:          profiles.FatLoss,
		DietType:      profiles.Vegetarian,
		MealFrequency: 4,
		Dislikes:      dislikes,
	}
}

func TestGenerateRelaxesDislikesStepByStep(t *testing.T) {
	acq := &fakeAcquirer{failures: 2}
	res, err := New(acq, Options{}).Generate(context.Background(), profile("okra", "bitter gourd", "mushroom"))
	require.NoError(t, err)

	require.Len(t, acq.requests, 3)
	assert.Equal(t, []string{"okra", "bitter gourd", "mushroom"}, acq.dislikes(t, 0))
	assert.Equal(t, []string{"okra", "bitter gourd"}, acq.dislikes(t, 1))
	assert.Empty(t, acq.dislikes(t, 2))

	assert.Equal(t, RelaxDropDislikes, res.Relaxation)
	assert.Len(t, res.Attempts, 3)
	assert.NotNil(t, res.Plan)
	assert.Empty(t, res.Profile.Dislikes)
	assert.Equal(t, mealplans.SlotsFor(4), acq.requests[0].Slots)
	assert.Equal(t, float64(res.Targets.CalorieGoal), acq.requests[0].DailyTarget)
}

func TestGenerateSkipsStepsThatChangeNothing(t *testing.T) {
	acq := &fakeAcquirer{failures: 10}
	res, err := New(acq, Options{}).Generate(context.Background(), profile("okra"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, acquisition.ErrExhausted))
	assert.Len(t, acq.requests, 2, "original then dislikes dropped")
	assert.Equal(t, RelaxDropDislikes, res.Relaxation)

	acq = &fakeAcquirer{failures: 10}
	_, err = New(acq, Options{}).Generate(context.Background(), profile())
	assert.True(t, errors.Is(err, acquisition.ErrExhausted))
	assert.Len(t, acq.requests, 1)
}

func TestGenerateAcceptsFirstTry(t *testing.T) {
	acq := &fakeAcquirer{}
	res, err := New(acq, Options{}).Generate(context.Background(), profile("okra", "brinjal", "karela"))
	require.NoError(t, err)
	assert.Len(t, acq.requests, 1)
	assert.Equal(t, RelaxNone, res.Relaxation)
	assert.Equal(t, "none", res.Relaxation.String())
}

func TestInsufficientCandidatesIsFatal(t *testing.T) {
	onlyBreakfast := catalog.New("test", []catalog.Dish{{
		Name:      "Poha",
		MealTypes: []string{"Breakfast"},
		VegType:   "Vegetarian",
		Class:     catalog.Veg,
		Calories:  250,
		Quantity:  "1 plate (200g)",
	}})
	acq := &fakeAcquirer{}
	res, err := New(acq, Options{Catalog: onlyBreakfast}).Generate(context.Background(), profile("okra", "a", "b"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, candidates.ErrInsufficientCandidates))
	assert.Empty(t, acq.requests)
	assert.Equal(t, 1, res.Candidates[mealplans.Breakfast])
	assert.Zero(t, res.Candidates[mealplans.Lunch])
}

func TestOtherAcquisitionErrorsAreNotRelaxed(t *testing.T) {
	acq := &fakeAcquirer{err: context.Canceled}
	_, err := New(acq, Options{}).Generate(context.Background(), profile("okra", "a", "b"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, acq.requests, 1)
}

func TestInvalidProfileIsRejected(t *testing.T) {
	p := profile()
	p.Age = 4
	acq := &fakeAcquirer{}
	_, err := New(acq, Options{}).Generate(context.Background(), p)
	assert.ErrorIs(t, err, profiles.ErrInvalidProfile)
	assert.Empty(t, acq.requests)
}

func TestGenerateWithMockProvider(t *testing.T) {
	engine := acquisition.New(ai.NewMockProvider(), acquisition.Options{
		Config:   config.DefaultAcquisition(),
		Defaults: ai.Request{System: config.DefaultSystemInstruction},
	})
	for _, freq := range []int{3, 4, 5} {
		p := profile("okra")
		p.MealFrequency = freq
		res, err := New(engine, Options{}).Generate(context.Background(), p)
		require.NoError(t, err)
		assert.Equal(t, RelaxNone, res.Relaxation)
		require.Len(t, res.Plan.Days, 7)
		assert.Equal(t, mealplans.SlotsFor(freq), res.Plan.Slots())
		assert.Equal(t, 7, res.Report.WithinCount())
		assert.Len(t, res.Attempts, 1)
	}
}

func TestFromConfigMockMode(t *testing.T) {
	cfg := &config.Config{
		AIMode:         config.AIModeMock,
		CatalogPath:    t.TempDir() + "/missing.csv",
		CatalogSlotCap: 25,
		Acquisition:    config.DefaultAcquisition(),
	}
	p, err := FromConfig(context.Background(), cfg, nil, nil, nil)
	require.NoError(t, err)

	res, err := p.Generate(context.Background(), profile("okra"))
	require.NoError(t, err)
	assert.Len(t, res.Plan.Days, 7)
	assert.Equal(t, RelaxNone, res.Relaxation)
}
