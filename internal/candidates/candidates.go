package candidates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/dietplan/internal/catalog"
	"github.com/fdg312/dietplan/internal/logger"
	"github.com/fdg312/dietplan/internal/mealplans"
	"github.com/fdg312/dietplan/internal/profiles"
	"github.com/fdg312/dietplan/internal/quantity"
)

const DefaultCap = 25

var ErrInsufficientCandidates = errors.New("insufficient candidates")

// InsufficientError lists required slots left without any eligible dish.
type InsufficientError struct {
	Slots []mealplans.Slot
}

func (e *InsufficientError) Error() string {
	names := make([]string, len(e.Slots))
	for i, s := range e.Slots {
		names[i] = string(s)
	}
	return fmt.Sprintf("%s: no eligible dishes for %s", ErrInsufficientCandidates, strings.Join(names, ", "))
}

func (e *InsufficientError) Is(target error) bool { return target == ErrInsufficientCandidates }

type Options struct {
	// Cap bounds dishes per slot. Zero means DefaultCap.
	Cap   int
	Rules *catalog.Rules
	Log   *logger.Logger
}

// CandidateSet holds the bounded dish lists offered for each slot, in slot order.
type CandidateSet struct {
	Slots  []mealplans.Slot
	BySlot map[mealplans.Slot][]catalog.Dish
	// Available counts eligible dishes per slot before the cap.
	Available map[mealplans.Slot]int
}

func (s *CandidateSet) Counts() map[mealplans.Slot]int {
	out := make(map[mealplans.Slot]int, len(s.BySlot))
	for _, slot := range s.Slots {
		out[slot] = len(s.BySlot[slot])
	}
	return out
}

func (s *CandidateSet) Total() int {
	n := 0
	for _, slot := range s.Slots {
		n += len(s.BySlot[slot])
	}
	return n
}

// Select filters the catalog against one profile and caps each slot in
// catalog order. A required slot with no eligible dish yields *InsufficientError.
func Select(cat *catalog.Catalog, p profiles.UserProfile, opts Options) (*CandidateSet, error) {
	rules := opts.Rules
	if rules == nil {
		rules = catalog.DefaultRules()
	}
	limit := opts.Cap
	if limit <= 0 {
		limit = DefaultCap
	}
	log := logger.OrNop(opts.Log)

	f := newFilter(rules, p)
	eligible := cat.Filter(f.keep)

	set := &CandidateSet{
		Slots:     mealplans.SlotsFor(p.MealFrequency),
		BySlot:    make(map[mealplans.Slot][]catalog.Dish),
		Available: make(map[mealplans.Slot]int),
	}
	var empty []mealplans.Slot
	for _, slot := range set.Slots {
		var pool []catalog.Dish
		for _, d := range eligible {
			if d.ServesMeal(slot.MealType()) {
				pool = append(pool, d)
			}
		}
		set.Available[slot] = len(pool)
		if len(pool) > limit {
			pool = pool[:limit]
		}
		set.BySlot[slot] = pool
		if len(pool) == 0 {
			log.Warn("no candidates for slot", "slot", slot, "diet", p.DietType, "region", p.CulturePreference)
			empty = append(empty, slot)
		}
	}
	log.Debug("candidates selected", "catalog", cat.Source(), "eligible", len(eligible), "total", set.Total())
	if len(empty) > 0 {
		return set, &InsufficientError{Slots: empty}
	}
	return set, nil
}

type filter struct {
	rules       *catalog.Rules
	maxClass    catalog.VegClass
	jain        bool
	regionOn    bool
	regionGroup string
	regionPref  string
	excluded    []string
}

func newFilter(rules *catalog.Rules, p profiles.UserProfile) *filter {
	f := &filter{rules: rules, maxClass: catalog.NonVeg}
	switch p.DietType {
	case profiles.Vegetarian:
		f.maxClass = catalog.Veg
	case profiles.Eggetarian:
		f.maxClass = catalog.Egg
	case profiles.Jain:
		f.maxClass = catalog.Veg
		f.jain = true
	}

	if !rules.IsRegionWildcard(p.CulturePreference) {
		f.regionOn = true
		f.regionPref = strings.ToLower(strings.TrimSpace(p.CulturePreference))
		f.regionGroup, _ = rules.RegionGroup(p.CulturePreference)
	}

	f.excluded = append(f.excluded, rules.ConditionExclusions(p.HealthConditions)...)
	f.excluded = append(f.excluded, rules.DislikeTerms(p.Dislikes)...)
	f.excluded = append(f.excluded, rules.LabExclusions(p.LabValues)...)
	return f
}

func (f *filter) keep(d catalog.Dish) bool {
	if d.Class > f.maxClass {
		return false
	}
	if f.jain && d.Mentions(f.rules.JainExcluded...) {
		return false
	}
	if f.regionOn && !f.regionMatches(d.Region) {
		return false
	}
	if len(f.excluded) > 0 && d.Mentions(f.excluded...) {
		return false
	}
	return true
}

func (f *filter) regionMatches(region string) bool {
	if f.rules.IsUniversalRegion(region) {
		return true
	}
	r := strings.ToLower(region)
	if f.regionGroup != "" {
		for _, kw := range f.rules.Regions[f.regionGroup] {
			if strings.Contains(r, kw) {
				return true
			}
		}
		return false
	}
	return strings.Contains(r, f.regionPref) || strings.Contains(f.regionPref, r)
}

// CompactDish is the prompt representation of one candidate.
type CompactDish struct {
	Name              string  `json:"name"`
	Kcal              float64 `json:"kcal"`
	Protein           float64 `json:"protein"`
	Carbs             float64 `json:"carbs"`
	Fat               float64 `json:"fat"`
	Quantity          string  `json:"quantity"`
	SuggestedQuantity string  `json:"suggested_quantity,omitempty"`
}

type SlotCandidates struct {
	Slot   mealplans.Slot `json:"slot"`
	Dishes []CompactDish  `json:"dishes"`
}

// Compact renders the set for a prompt. Suggested quantities apply the
// portion multiplier to absolute amounts only.
func (s *CandidateSet) Compact(portionMultiplier float64) []SlotCandidates {
	out := make([]SlotCandidates, 0, len(s.Slots))
	for _, slot := range s.Slots {
		dishes := s.BySlot[slot]
		sc := SlotCandidates{Slot: slot, Dishes: make([]CompactDish, 0, len(dishes))}
		for _, d := range dishes {
			cd := CompactDish{
				Name:     d.Name,
				Kcal:     d.Calories,
				Protein:  d.ProteinG,
				Carbs:    d.CarbsG,
				Fat:      d.FatG,
				Quantity: d.Quantity,
			}
			if portionMultiplier > 0 && portionMultiplier != 1 {
				if scaled := quantity.ScaleString(d.Quantity, portionMultiplier); scaled != d.Quantity {
					cd.SuggestedQuantity = scaled
				}
			}
			sc.Dishes = append(sc.Dishes, cd)
		}
		out = append(out, sc)
	}
	return out
}
