package mealplans

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire keys of the accepted plan document.
const (
	KeyPlan    = "7DayPlan"
	KeyDay     = "Day"
	KeySummary = "Summary"
)

type wireSelection struct {
	Name     string  `json:"name"`
	Quantity string  `json:"quantity"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

type wireMacros struct {
	Protein string `json:"Protein"`
	Carbs   string `json:"Carbs"`
	Fats    string `json:"Fats"`
}

type wireSummary struct {
	AverageCalories string     `json:"AverageCalories"`
	AverageMacros   wireMacros `json:"AverageMacros"`
}

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSummary{
		AverageCalories: fmt.Sprintf("%d kcal/day", s.AverageCalories),
		AverageMacros: wireMacros{
			Protein: fmt.Sprintf("%dg", s.AverageProtein),
			Carbs:   fmt.Sprintf("%dg", s.AverageCarbs),
			Fats:    fmt.Sprintf("%dg", s.AverageFats),
		},
	})
}

// MarshalJSON writes the day with "Day" first and slots in plan order.
// Go maps would sort the keys, so the object is assembled by hand.
func (d DayPlan) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeKV(&buf, KeyDay, d.Label); err != nil {
		return nil, err
	}
	for _, m := range d.Meals {
		buf.WriteByte(',')
		if err := writeKey(&buf, string(m.Slot)); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		used := make(map[string]bool, len(m.Items))
		for i, it := range m.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			key := it.Key
			for n := i + 1; key == "" || used[key]; n++ {
				key = fmt.Sprintf("Dish%d", n)
			}
			used[key] = true
			if err := writeKV(&buf, key, wireSelection{
				Name:     it.Name,
				Quantity: it.Quantity,
				Calories: it.Calories,
				Protein:  it.Protein,
				Carbs:    it.Carbs,
				Fats:     it.Fats,
			}); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p DietPlan) MarshalJSON() ([]byte, error) {
	days := p.Days
	if days == nil {
		days = []DayPlan{}
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeKV(&buf, KeyPlan, days); err != nil {
		return nil, err
	}
	buf.WriteByte(',')
	if err := writeKV(&buf, KeySummary, p.Summary); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	return nil
}

func writeKV(buf *bytes.Buffer, key string, v any) error {
	if err := writeKey(buf, key); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
