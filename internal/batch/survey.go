// Package batch turns survey spreadsheets into one plan PDF per respondent.
package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Canonical survey fields.
const (
	FieldName         = "Name"
	FieldEmail        = "Email"
	FieldAge          = "Age"
	FieldGender       = "Gender"
	FieldWeight       = "Weight"
	FieldHeight       = "Height"
	FieldWeightHeight = "Weight & Height"
	FieldActivity     = "Activity level"
	FieldGoals        = "Goals"
	FieldDietType     = "Diet type"
	FieldMeals        = "Meal frequency in a day"
	FieldCulture      = "Culture preference"
	FieldAllergies    = "Any food allergies"
	FieldDislikes     = "Dislikes"
	FieldConditions   = "Health Conditions"
	FieldNonVegDays   = "Non-Veg Days"
	FieldNotes        = "Additional notes"
)

// InterestColumn filters respondents when present: only "yes" rows are kept.
const InterestColumn = "Would you be interested in a personalized diet plan"

// columnMap renames verbose survey headers. Keys are normalized headers.
var columnMap = map[string]string{
	"name of the employee":                                                       FieldName,
	"name of the employees":                                                      FieldName,
	"name of the employee(s)":                                                    FieldName,
	"official email address":                                                     FieldEmail,
	"email":                                                                      FieldEmail,
	"current body weight":                                                        FieldWeight,
	"current height (in cm)":                                                     FieldHeight,
	"current body height":                                                        FieldHeight,
	"are there any preferred day you don't eat non-vegetarian food":              FieldNonVegDays,
	"any regional preference ( state wise)(like north indian or south indian)":   FieldCulture,
	"any regional preference (state wise)(like north indian or south indian)":    FieldCulture,
	"any food allergies (gluten intolerance / lactose intolerance or any other)": FieldAllergies,
	"any additional information you would like to share":                         FieldNotes,
	"goal":                                                                       FieldGoals,
	"goals":                                                                      FieldGoals,
	"food dislikes":                                                              FieldDislikes,
	"health conditions":                                                          FieldConditions,
	"any health conditions":                                                      FieldConditions,
	"rate your activity level":                                                   FieldActivity,
	"how many meals do you eat a day":                                            FieldMeals,
}

var ErrEmptySurvey = errors.New("survey has no header row")

// Row is one respondent. Index is the 0-based data row position in the
// uploaded file and stays stable after filtering.
type Row struct {
	Index  int
	Fields map[string]string
}

func (r Row) Get(key string) string {
	return strings.TrimSpace(r.Fields[key])
}

// Name returns the respondent name or "".
func (r Row) Name() string {
	return r.Get(FieldName)
}

type Survey struct {
	Headers []string
	Rows    []Row
	// Filtered is set when the interest column was present.
	Filtered bool
}

// Row looks a respondent up by Index.
func (s *Survey) Row(index int) (Row, bool) {
	for _, r := range s.Rows {
		if r.Index == index {
			return r, true
		}
	}
	return Row{}, false
}

// Indices lists every row index in file order.
func (s *Survey) Indices() []int {
	out := make([]int, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Index
	}
	return out
}

// ReadSurvey parses a survey CSV, renames known headers and, when the
// interest column exists, keeps only respondents who answered yes.
func ReadSurvey(r io.Reader) (*Survey, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptySurvey
	}
	if err != nil {
		return nil, fmt.Errorf("read survey header: %w", err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = canonicalHeader(h)
	}

	s := &Survey{Headers: headers}
	interestCol := -1
	for i, h := range headers {
		if strings.EqualFold(h, InterestColumn) {
			interestCol = i
			s.Filtered = true
		}
	}

	for index := 0; ; index++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read survey row %d: %w", index, err)
		}
		if blank(rec) {
			continue
		}
		if interestCol >= 0 {
			if interestCol >= len(rec) || !strings.EqualFold(strings.TrimSpace(rec[interestCol]), "yes") {
				continue
			}
		}

		row := Row{Index: index, Fields: make(map[string]string, len(headers))}
		for i, h := range headers {
			if i >= len(rec) || h == "" {
				continue
			}
			// The first non-empty value wins when two headers map to one field.
			if v := strings.TrimSpace(rec[i]); v != "" && row.Fields[h] == "" {
				row.Fields[h] = v
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

func canonicalHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	if mapped, ok := columnMap[normalizeHeader(h)]; ok {
		return mapped
	}
	return h
}

func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
