package catalog

import (
	"strings"
	"unicode"
)

// VegClass orders diet classes so that a diet allows every class up to its own.
type VegClass int

const (
	Veg VegClass = iota
	Egg
	NonVeg
)

func (v VegClass) String() string {
	switch v {
	case Egg:
		return "Eggetarian"
	case NonVeg:
		return "Non-Vegetarian"
	default:
		return "Vegetarian"
	}
}

// Dish is one catalog row. Nutrients are per canonical quantity and never negative.
type Dish struct {
	Name        string   `json:"name"`
	Region      string   `json:"region"`
	MealTypes   []string `json:"meal_types"`
	MealTypeRaw string   `json:"meal_type"`
	VegType     string   `json:"veg_type"`
	Class       VegClass `json:"-"`
	Calories    float64  `json:"calories"`
	ProteinG    float64  `json:"protein_g"`
	CarbsG      float64  `json:"carbs_g"`
	FatG        float64  `json:"fat_g"`
	Quantity    string   `json:"quantity"`
	Ingredients string   `json:"ingredients"`
}

// SplitMealTypes splits a meal type cell such as "Lunch/Dinner" or "Breakfast, Snack".
func SplitMealTypes(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case '/', ',', ';', '|', '&':
			return true
		}
		return false
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ServesMeal reports whether the dish is tagged for the given meal type.
func (d Dish) ServesMeal(mealType string) bool {
	want := strings.ToLower(strings.TrimSpace(mealType))
	for _, mt := range d.MealTypes {
		got := strings.ToLower(mt)
		if got == want || strings.TrimSuffix(got, "s") == want {
			return true
		}
		if want == "snack" && strings.Contains(got, "snack") {
			return true
		}
	}
	return false
}

// Text is the lowercase name and ingredient text used for term matching.
func (d Dish) Text() string {
	return strings.ToLower(d.Name + " " + d.Ingredients)
}

// Mentions reports whether any term occurs in the dish name or ingredients.
// Matching is plural-insensitive: "tomatoes" matches "tomato" and vice versa.
func (d Dish) Mentions(terms ...string) bool {
	text := d.Text()
	for _, t := range terms {
		if t == "" {
			continue
		}
		if strings.Contains(text, t) {
			return true
		}
		if s := singular(t); s != t && len(s) >= 3 && strings.Contains(text, s) {
			return true
		}
	}
	return false
}

func singular(t string) string {
	switch {
	case strings.HasSuffix(t, "oes"):
		return strings.TrimSuffix(t, "es")
	case strings.HasSuffix(t, "ies"):
		return strings.TrimSuffix(t, "ies") + "y"
	case strings.HasSuffix(t, "ss"):
		return t
	case strings.HasSuffix(t, "s"):
		return strings.TrimSuffix(t, "s")
	}
	return t
}

// Classify derives the diet class from the veg/non-veg tag and a keyword scan.
// The stricter of the two wins.
func Classify(vegType, name, ingredients string, rules *Rules) VegClass {
	tag := strings.ToLower(vegType)
	class := Veg
	switch {
	case strings.Contains(tag, "non"):
		class = NonVeg
	case strings.Contains(tag, "egg"):
		class = Egg
	}
	text := strings.ToLower(name + " " + ingredients)
	if class < NonVeg && containsWordAny(text, rules.Diet.MeatTerms) {
		class = NonVeg
	}
	if class < Egg && containsWordAny(text, rules.Diet.EggTerms) {
		class = Egg
	}
	return class
}

func containsWordAny(text string, terms []string) bool {
	for _, t := range terms {
		if containsWord(text, t) {
			return true
		}
	}
	return false
}

// containsWord matches term at letter boundaries, allowing a plural suffix.
func containsWord(text, term string) bool {
	for start := 0; start < len(text); {
		i := strings.Index(text[start:], term)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(term)
		before := i == 0 || !isLetter(text[i-1])
		rest := text[end:]
		rest = strings.TrimPrefix(rest, "es")
		if len(rest) == len(text[end:]) {
			rest = strings.TrimPrefix(rest, "s")
		}
		after := rest == "" || !isLetter(rest[0])
		if before && after {
			return true
		}
		start = i + 1
	}
	return false
}

func isLetter(b byte) bool {
	return b < 0x80 && unicode.IsLetter(rune(b))
}
