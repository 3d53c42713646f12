package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/fdg312/dietplan/internal/logger"
)

// ErrCatalogLoad matches every *LoadError via errors.Is.
var ErrCatalogLoad = errors.New("catalog load failed")

// LoadError reports an unreadable or malformed dish source.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load catalog %q: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrCatalogLoad }

// RowIssue describes a source row that was skipped.
type RowIssue struct {
	Line   int
	Reason string
}

// Catalog is an ordered, read-only dish collection. It is safe to share
// between goroutines.
type Catalog struct {
	source  string
	dishes  []Dish
	skipped []RowIssue
}

// New builds a catalog from already classified dishes.
func New(source string, dishes []Dish) *Catalog {
	return &Catalog{source: source, dishes: append([]Dish(nil), dishes...)}
}

func (c *Catalog) Len() int       { return len(c.dishes) }
func (c *Catalog) Source() string { return c.source }

// Dishes returns a copy of all dishes in source order.
func (c *Catalog) Dishes() []Dish {
	return append([]Dish(nil), c.dishes...)
}

// Skipped lists rows rejected during loading.
func (c *Catalog) Skipped() []RowIssue {
	return append([]RowIssue(nil), c.skipped...)
}

// Filter returns dishes accepted by keep, in source order.
func (c *Catalog) Filter(keep func(Dish) bool) []Dish {
	var out []Dish
	for _, d := range c.dishes {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

type field int

const (
	fieldName field = iota
	fieldRegion
	fieldQuantity
	fieldCalories
	fieldProtein
	fieldCarbs
	fieldFat
	fieldVeg
	fieldMeal
	fieldIngredients
	fieldCount
)

// headerCandidates lists, per field, the header fragments it accepts, most specific first.
var headerCandidates = [fieldCount][]string{
	fieldName:        {"name", "dish"},
	fieldRegion:      {"region", "state", "cuisine"},
	fieldQuantity:    {"quantity", "portion", "serving"},
	fieldCalories:    {"calories", "calorie", "kcal", "energy"},
	fieldProtein:     {"protein"},
	fieldCarbs:       {"carbs", "carb", "carbohydrate"},
	fieldFat:         {"fat", "fats"},
	fieldVeg:         {"veg/non-veg", "veg", "diet"},
	fieldMeal:        {"meal type", "meal"},
	fieldIngredients: {"ingredients", "ingredient"},
}

var requiredFields = []field{fieldName, fieldCalories, fieldMeal}

var fieldNames = [fieldCount]string{"name", "region", "quantity", "calories", "protein", "carbs", "fat", "veg", "meal type", "ingredients"}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

// matchHeaders maps canonical fields onto column indexes. Exact matches are
// resolved for every field before any substring match, and a column is used
// at most once.
func matchHeaders(headers []string) [fieldCount]int {
	var idx [fieldCount]int
	for i := range idx {
		idx[i] = -1
	}
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = normalizeHeader(h)
	}
	used := make([]bool, len(headers))

	for f := field(0); f < fieldCount; f++ {
		for _, cand := range headerCandidates[f] {
			for i, h := range norm {
				if !used[i] && h == cand {
					idx[f], used[i] = i, true
					break
				}
			}
			if idx[f] >= 0 {
				break
			}
		}
	}
	for f := field(0); f < fieldCount; f++ {
		if idx[f] >= 0 {
			continue
		}
		for _, cand := range headerCandidates[f] {
			for i, h := range norm {
				if !used[i] && strings.Contains(h, cand) {
					idx[f], used[i] = i, true
					break
				}
			}
			if idx[f] >= 0 {
				break
			}
		}
	}
	return idx
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// parseNumber reads the leading number of cells like "350", "350 kcal" or "12.5g".
// Empty cells are zero.
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return strconv.ParseFloat(m, 64)
}

// Load reads a dish CSV file.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()
	return Read(f, path)
}

// Read parses dish rows from r. Rows with unparseable or negative nutrients
// are skipped and reported through Skipped.
func Read(r io.Reader, source string) (*Catalog, error) {
	return readWithRules(r, source, DefaultRules())
}

func readWithRules(r io.Reader, source string, rules *Rules) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Source: source, Err: errors.New("empty source")}
		}
		return nil, &LoadError{Source: source, Err: err}
	}
	idx := matchHeaders(headers)
	var missing []string
	for _, f := range requiredFields {
		if idx[f] < 0 {
			missing = append(missing, fieldNames[f])
		}
	}
	if len(missing) > 0 {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))}
	}

	c := &Catalog{source: source}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("line %d: %w", line, err)}
		}
		d, reason := parseRow(rec, idx, rules)
		if reason != "" {
			c.skipped = append(c.skipped, RowIssue{Line: line, Reason: reason})
			continue
		}
		c.dishes = append(c.dishes, d)
	}
	if len(c.dishes) == 0 {
		return nil, &LoadError{Source: source, Err: errors.New("no usable dish rows")}
	}
	return c, nil
}

func parseRow(rec []string, idx [fieldCount]int, rules *Rules) (Dish, string) {
	cell := func(f field) string {
		i := idx[f]
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	d := Dish{
		Name:        cell(fieldName),
		Region:      cell(fieldRegion),
		MealTypeRaw: cell(fieldMeal),
		VegType:     cell(fieldVeg),
		Quantity:    cell(fieldQuantity),
		Ingredients: cell(fieldIngredients),
	}
	if d.Name == "" {
		return Dish{}, "empty name"
	}
	d.MealTypes = SplitMealTypes(d.MealTypeRaw)
	if len(d.MealTypes) == 0 {
		return Dish{}, fmt.Sprintf("%s: empty meal type", d.Name)
	}
	if d.Quantity == "" {
		d.Quantity = "1 serving"
	}

	nutrients := []struct {
		f   field
		dst *float64
	}{
		{fieldCalories, &d.Calories},
		{fieldProtein, &d.ProteinG},
		{fieldCarbs, &d.CarbsG},
		{fieldFat, &d.FatG},
	}
	for _, n := range nutrients {
		v, err := parseNumber(cell(n.f))
		if err != nil {
			return Dish{}, fmt.Sprintf("%s: %s: %v", d.Name, fieldNames[n.f], err)
		}
		if v < 0 {
			return Dish{}, fmt.Sprintf("%s: negative %s", d.Name, fieldNames[n.f])
		}
		*n.dst = v
	}
	d.Class = Classify(d.VegType, d.Name, d.Ingredients, rules)
	return d, ""
}

// LoadOrDefault loads path and falls back to the built-in dish set when the
// source cannot be used.
func LoadOrDefault(path string, log *logger.Logger) *Catalog {
	log = logger.OrNop(log)
	c, err := Load(path)
	if err != nil {
		log.Warn("catalog unavailable, using built-in dishes", "path", path, "error", err)
		return Default()
	}
	for _, s := range c.skipped {
		log.Warn("catalog row skipped", "path", path, "line", s.Line, "reason", s.Reason)
	}
	log.Info("catalog loaded", "path", path, "dishes", c.Len(), "skipped", len(c.skipped))
	return c
}
