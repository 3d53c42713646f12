package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fdg312/dietplan/internal/acquisition"
	"github.com/fdg312/dietplan/internal/batch"
	"github.com/fdg312/dietplan/internal/blob"
	"github.com/fdg312/dietplan/internal/candidates"
	"github.com/fdg312/dietplan/internal/mealplans"
	"github.com/fdg312/dietplan/internal/nutrition"
	"github.com/fdg312/dietplan/internal/planner"
	"github.com/fdg312/dietplan/internal/profiles"
	"github.com/fdg312/dietplan/internal/validation"
)

const maxPlanRequestBytes = 1 << 20

// planRequest accepts free-text enums ("3", "moderately active", "veg")
// and normalizes them with the profile parsers.
type planRequest struct {
	Name                string            `json:"name"`
	Email               string            `json:"email"`
	Age                 int               `json:"age"`
	Gender              string            `json:"gender"`
	WeightKg            float64           `json:"weight_kg"`
	HeightCm            float64           `json:"height_cm"`
	ActivityLevel       string            `json:"activity_level"`
	Goal                string            `json:"goal"`
	DietType            string            `json:"diet_type"`
	MealFrequency       int               `json:"meal_frequency"`
	CulturePreference   string            `json:"culture_preference"`
	HealthConditions    []string          `json:"health_conditions"`
	Dislikes            []string          `json:"dislikes"`
	IngredientFrequency map[string]int    `json:"ingredient_frequency"`
	LabValues           map[string]string `json:"lab_values"`
	NonVegAvoidDays     []string          `json:"non_veg_avoid_days"`
	Notes               string            `json:"notes"`
}

func (req planRequest) profile() profiles.UserProfile {
	freq := req.MealFrequency
	if freq == 0 {
		freq = 3
	}
	return profiles.UserProfile{
		Name:                req.Name,
		Email:               req.Email,
		Age:                 req.Age,
		Gender:              profiles.ParseGender(req.Gender),
		WeightKg:            req.WeightKg,
		HeightCm:            req.HeightCm,
		ActivityLevel:       profiles.ParseActivityLevel(req.ActivityLevel),
		Goal:                profiles.ParseGoal(req.Goal),
		DietType:            profiles.ParseDietType(req.DietType),
		MealFrequency:       freq,
		CulturePreference:   req.CulturePreference,
		HealthConditions:    req.HealthConditions,
		Dislikes:            req.Dislikes,
		IngredientFrequency: req.IngredientFrequency,
		LabValues:           req.LabValues,
		NonVegAvoidDays:     req.NonVegAvoidDays,
		Notes:               req.Notes,
	}
}

type attemptView struct {
	Number     int    `json:"number"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	BackoffMS  int64  `json:"backoff_ms,omitempty"`
}

func attemptViews(attempts []acquisition.Attempt) []attemptView {
	out := make([]attemptView, 0, len(attempts))
	for _, a := range attempts {
		v := attemptView{
			Number:     a.Number,
			Outcome:    a.Outcome.String(),
			Reason:     string(a.Reason),
			DurationMS: a.Duration.Milliseconds(),
			BackoffMS:  a.Backoff.Milliseconds(),
		}
		if a.Err != nil {
			v.Error = a.Err.Error()
		}
		out = append(out, v)
	}
	return out
}

type planResponse struct {
	Plan          *mealplans.DietPlan         `json:"plan"`
	Targets       nutrition.Targets           `json:"targets"`
	CalorieReport validation.CalorieReport    `json:"calorie_report"`
	Warnings      []validation.PortionWarning `json:"warnings,omitempty"`
	Candidates    map[mealplans.Slot]int      `json:"candidates,omitempty"`
	Attempts      []attemptView               `json:"attempts"`
	Relaxation    planner.Relaxation          `json:"relaxation"`
}

// handleCreatePlan runs one synchronous generation for a JSON profile.
func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPlanRequestBytes)
	var req planRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Request body must be a JSON profile")
		return
	}

	res, err := s.planner.Generate(r.Context(), req.profile())
	if err != nil {
		s.writePlanError(w, res, err)
		return
	}

	writeJSON(w, http.StatusOK, planResponse{
		Plan:          res.Plan,
		Targets:       res.Targets,
		CalorieReport: res.Report,
		Warnings:      res.Warnings,
		Candidates:    res.Candidates,
		Attempts:      attemptViews(res.Attempts),
		Relaxation:    res.Relaxation,
	})
}

type planErrorBody struct {
	Error    errorDetail   `json:"error"`
	Attempts []attemptView `json:"attempts,omitempty"`
}

func (s *Server) writePlanError(w http.ResponseWriter, res *planner.Result, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	msg := "Plan generation failed"
	switch {
	case errors.Is(err, profiles.ErrInvalidProfile):
		status, code, msg = http.StatusBadRequest, "invalid_profile", err.Error()
	case errors.Is(err, candidates.ErrInsufficientCandidates):
		status, code, msg = http.StatusUnprocessableEntity, "insufficient_candidates", err.Error()
	case errors.Is(err, acquisition.ErrExhausted):
		status, code = http.StatusBadGateway, "plan_exhausted"
		msg = "No acceptable plan within the attempt limit"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
		msg = "Plan generation timed out"
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the body.
		status, code = 499, "canceled"
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("plan generation failed", "code", code, "error", err)
	}

	body := planErrorBody{Error: errorDetail{Code: code, Message: msg}}
	if res != nil {
		body.Attempts = attemptViews(res.Attempts)
	}
	writeJSON(w, status, body)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseRunID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_run_id", "Run id must be a UUID")
		return
	}
	rep, err := batch.ReadReport(r.Context(), s.store, runID)
	if errors.Is(err, blob.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "Run not found")
		return
	}
	if err != nil {
		s.log.Error("read run report", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to read run")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
